package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "entitle"
	ServiceVersion = "1.0.0"
	MeterName      = "entitle"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up the OpenTelemetry meter provider with a Prometheus
// exporter and returns the providers together with an HTTP handler that
// serves the scrape endpoint.
func InitializeOTel(logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	logger.InfoContext(ctx, "OpenTelemetry metrics initialized",
		slog.String("service", ServiceName),
		slog.String("version", ServiceVersion),
		slog.String("exporter", "prometheus"),
	)

	return &OTelProviders{
		MeterProvider:  meterProvider,
		Meter:          meterProvider.Meter(MeterName),
		PrometheusHTTP: promhttp.Handler(),
		Logger:         logger,
	}, nil
}

// Shutdown flushes and stops the meter provider
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}
