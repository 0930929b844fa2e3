package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitle/internal/services"
)

// stubLicenseService returns canned responses for handler tests.
type stubLicenseService struct {
	status      *services.LicenseStatusResponse
	revalidated *services.LicenseStatusResponse
	allowed     bool
}

func (s *stubLicenseService) GetStatus(_ context.Context) *services.LicenseStatusResponse {
	return s.status
}

func (s *stubLicenseService) Revalidate(_ context.Context) (*services.LicenseStatusResponse, bool) {
	if !s.allowed {
		return nil, false
	}
	return s.revalidated, true
}

func newTestRouter(t *testing.T, svc services.LicenseService) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{
		LicenseService: svc,
		Logger:         slog.Default(),
	})
}

func TestLicenseHandler_GetStatus(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		status     *services.LicenseStatusResponse
		wantStatus string
	}{
		{
			name: "active license",
			status: &services.LicenseStatusResponse{
				Status:         200,
				LicenseStatus:  "active",
				Message:        "License is active",
				ExpirationDate: &expiry,
			},
			wantStatus: "active",
		},
		{
			name: "inactive license",
			status: &services.LicenseStatusResponse{
				Type:          "/license/inactive",
				Title:         "License Inactive",
				Status:        200,
				LicenseStatus: "inactive",
			},
			wantStatus: "inactive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubLicenseService{status: tt.status})

			req := httptest.NewRequest(http.MethodGet, "/api/license/status", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			var got services.LicenseStatusResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got.LicenseStatus)
		})
	}
}

func TestLicenseHandler_Revalidate(t *testing.T) {
	router := newTestRouter(t, &stubLicenseService{
		allowed: true,
		revalidated: &services.LicenseStatusResponse{
			Status:        200,
			LicenseStatus: "active",
			Message:       "License is active",
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/license/revalidate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got services.LicenseStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "active", got.LicenseStatus)
}

func TestLicenseHandler_RevalidateRateLimited(t *testing.T) {
	router := newTestRouter(t, &stubLicenseService{allowed: false})

	req := httptest.NewRequest(http.MethodPost, "/api/license/revalidate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, &stubLicenseService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
