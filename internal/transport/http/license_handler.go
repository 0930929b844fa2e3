package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "entitle/internal/errors"
	"entitle/internal/services"
)

// LicenseHandler handles license-related HTTP requests
type LicenseHandler struct {
	service services.LicenseService
	logger  *slog.Logger
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(service services.LicenseService, logger *slog.Logger) *LicenseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LicenseHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "license")),
	}
}

// Routes returns a chi router for license endpoints
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.GetStatus)
	r.Post("/revalidate", h.Revalidate)
	return r
}

// GetStatus handles GET /status
func (h *LicenseHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := h.service.GetStatus(r.Context())
	render.Status(r, resp.Status)
	render.JSON(w, r, resp)
}

// Revalidate handles POST /revalidate. A rate-limited request gets 429
// with the standard error envelope.
func (h *LicenseHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.service.Revalidate(r.Context())
	if !ok {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrRateLimitExceeded))
		return
	}

	h.logger.InfoContext(r.Context(), "revalidation completed",
		slog.String("license_status", resp.LicenseStatus),
	)
	render.Status(r, resp.Status)
	render.JSON(w, r, resp)
}
