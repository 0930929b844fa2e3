package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"entitle/internal/middleware"
	"entitle/internal/services"
)

// RouterConfig carries the dependencies of the HTTP surface
type RouterConfig struct {
	LicenseService services.LicenseService
	LicenseGate    *middleware.LicenseGate
	Metrics        http.Handler
	Logger         *slog.Logger
	// AppRoutes mounts the host application's routes. They sit behind the
	// license gate.
	AppRoutes func(chi.Router)
}

// NewRouter builds the chi router. License status, health, and metrics stay
// reachable while the license is inactive; application routes sit behind
// the gate.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if cfg.LicenseGate != nil {
		cfg.LicenseGate.
			ExcludePath("/healthz").
			ExcludePath("/metrics").
			ExcludePrefix("/api/license")
		r.Use(cfg.LicenseGate.Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.PlainText(w, req, "ok")
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		licenseHandler := NewLicenseHandler(cfg.LicenseService, cfg.Logger)
		r.Mount("/license", licenseHandler.Routes())

		if cfg.AppRoutes != nil {
			cfg.AppRoutes(r)
		}
	})

	return r
}
