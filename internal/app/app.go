package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"entitle/internal/config"
	"entitle/internal/infrastructure"
	"entitle/internal/license"
	"entitle/internal/middleware"
	"entitle/internal/services"
	transport "entitle/internal/transport/http"
)

// Application holds the wired components of the licensed daemon
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Orchestrator *license.Orchestrator
	Runner       *license.Runner
	Server       *http.Server
}

// New builds the application from configuration: logging, telemetry, the
// license validation pipeline, and the HTTP surface.
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	verifier, err := license.NewVerifierFromFile(cfg.Paths.TrustAnchorFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load trust anchor: %w", err)
	}

	checker, err := license.NewStatusChecker(cfg.Licensing.ServerURL, cfg.Licensing.StatusEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to configure status checker: %w", err)
	}

	metrics, err := license.InitializeValidationMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize validation metrics: %w", err)
	}

	store := license.NewFileStore(cfg.Paths.LicenseFile)
	cell := license.NewStateCell()
	orchestrator := license.NewOrchestrator(verifier, checker, store, cell, cfg.Licensing.CheckTimeout,
		license.WithMetrics(metrics),
	)

	limiter := rate.NewLimiter(rate.Limit(cfg.Licensing.RevalidateRPS), cfg.Licensing.RevalidateBurst)
	licenseService := services.NewLicenseService(orchestrator.State(), orchestrator, limiter, logger)
	gate := middleware.NewLicenseGate(orchestrator.State(), logger)

	router := transport.NewRouter(transport.RouterConfig{
		LicenseService: licenseService,
		LicenseGate:    gate,
		Metrics:        providers.PrometheusHTTP,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Orchestrator:  orchestrator,
		Runner:        license.NewRunner(orchestrator, cfg.Licensing.CheckInterval),
		Server:        server,
	}, nil
}

// Run starts the validation runner and the HTTP server and blocks until
// the context is canceled or a component fails. SIGINT and SIGTERM trigger
// graceful shutdown.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.InfoContext(ctx, "starting application",
		slog.Int("port", a.Config.Server.Port),
		slog.Duration("check_interval", a.Config.Licensing.CheckInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Runner.Run(ctx)
	})

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// shutdown stops the HTTP server and flushes telemetry within the
// configured shutdown timeout
func (a *Application) shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Logger.Info("shutting down application")

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file close: %w", err))
	}
	return errors.Join(errs...)
}
