package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"entitle/internal/infrastructure"
	"entitle/internal/license"
)

// LicenseService provides the transport-facing view of the activation state
type LicenseService interface {
	// GetStatus returns the current trust decision as an API response.
	GetStatus(ctx context.Context) *LicenseStatusResponse
	// Revalidate triggers a validation cycle on demand. It returns false
	// without running a cycle when the rate limit is exhausted.
	Revalidate(ctx context.Context) (*LicenseStatusResponse, bool)
}

// LicenseStatusResponse is the standardized license status payload
type LicenseStatusResponse struct {
	// RFC 7807 style problem fields
	Type   string `json:"type,omitempty"`
	Title  string `json:"title,omitempty"`
	Status int    `json:"status"`

	// Application fields
	LicenseStatus  string     `json:"license_status"` // active|inactive
	Message        string     `json:"message"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	DaysLeft       int        `json:"days_left,omitempty"`
	TraceID        string     `json:"trace_id"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Revalidator triggers one validation cycle and reports the decision.
// *license.Orchestrator satisfies this.
type Revalidator interface {
	RunCycle(ctx context.Context) license.TrustDecision
}

// licenseService implements LicenseService on top of the state cell and the
// orchestrator
type licenseService struct {
	state       license.StateReader
	revalidator Revalidator
	limiter     *rate.Limiter
	logger      *slog.Logger
	now         func() time.Time
}

// NewLicenseService creates the service. The limiter bounds how often
// on-demand revalidation may reach the licensing authority.
func NewLicenseService(state license.StateReader, revalidator Revalidator, limiter *rate.Limiter, logger *slog.Logger) LicenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &licenseService{
		state:       state,
		revalidator: revalidator,
		limiter:     limiter,
		logger:      logger.With(slog.String("service", "license")),
		now:         time.Now,
	}
}

// GetStatus returns the current trust decision as an API response
func (s *licenseService) GetStatus(ctx context.Context) *LicenseStatusResponse {
	decision := s.state.Current()

	s.logger.DebugContext(ctx, "license status read",
		slog.Bool("is_active", decision.IsActive),
	)

	return s.toResponse(ctx, decision)
}

// Revalidate runs a validation cycle if the rate limit allows
func (s *licenseService) Revalidate(ctx context.Context) (*LicenseStatusResponse, bool) {
	if !s.limiter.Allow() {
		s.logger.WarnContext(ctx, "revalidation request rate limited")
		return nil, false
	}

	s.logger.InfoContext(ctx, "on-demand revalidation triggered")
	decision := s.revalidator.RunCycle(ctx)
	return s.toResponse(ctx, decision), true
}

// toResponse maps a trust decision to the API payload
func (s *licenseService) toResponse(ctx context.Context, decision license.TrustDecision) *LicenseStatusResponse {
	traceID := middleware.GetReqID(ctx)
	if traceID == "" {
		traceID = infrastructure.GetTraceID(ctx)
	}

	resp := &LicenseStatusResponse{
		Status:    200,
		TraceID:   traceID,
		Timestamp: s.now(),
	}

	if !decision.IsActive {
		resp.Type = "/license/inactive"
		resp.Title = "License Inactive"
		resp.LicenseStatus = "inactive"
		resp.Message = "No active license. Activate a license or restore connectivity to the licensing server."
		return resp
	}

	resp.LicenseStatus = "active"
	resp.Message = "License is active"
	resp.ExpirationDate = decision.ExpirationDate
	if decision.ExpirationDate != nil {
		if days := int(time.Until(*decision.ExpirationDate).Hours() / 24); days > 0 {
			resp.DaysLeft = days
		}
	}
	return resp
}
