package license

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ValidationMetrics holds the OpenTelemetry metrics for the validation cycle
type ValidationMetrics struct {
	// Cycle metrics
	CycleRuns     metric.Int64Counter
	CycleDuration metric.Float64Histogram

	// Decision metrics
	DecisionsActive   metric.Int64Counter
	DecisionsInactive metric.Int64Counter

	// Remote authority metrics
	RemoteOutcomes metric.Int64Counter

	// Replacement envelope metrics
	ReplacementsPersisted metric.Int64Counter
	ReplacementsRejected  metric.Int64Counter
}

// InitializeValidationMetrics creates all validation-cycle metrics
func InitializeValidationMetrics(meter metric.Meter) (*ValidationMetrics, error) {
	metrics := &ValidationMetrics{}

	var err error

	metrics.CycleRuns, err = meter.Int64Counter(
		"license_validation_cycles_total",
		metric.WithDescription("Total number of validation cycles run"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle counter: %w", err)
	}

	metrics.CycleDuration, err = meter.Float64Histogram(
		"license_validation_cycle_duration_seconds",
		metric.WithDescription("Validation cycle duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle duration histogram: %w", err)
	}

	metrics.DecisionsActive, err = meter.Int64Counter(
		"license_decisions_active_total",
		metric.WithDescription("Total number of active trust decisions published"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active decisions counter: %w", err)
	}

	metrics.DecisionsInactive, err = meter.Int64Counter(
		"license_decisions_inactive_total",
		metric.WithDescription("Total number of inactive trust decisions published"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inactive decisions counter: %w", err)
	}

	metrics.RemoteOutcomes, err = meter.Int64Counter(
		"license_remote_status_outcomes_total",
		metric.WithDescription("Remote status query outcomes by classification"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote outcomes counter: %w", err)
	}

	metrics.ReplacementsPersisted, err = meter.Int64Counter(
		"license_replacements_persisted_total",
		metric.WithDescription("Replacement envelopes persisted after re-verification"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create replacements persisted counter: %w", err)
	}

	metrics.ReplacementsRejected, err = meter.Int64Counter(
		"license_replacements_rejected_total",
		metric.WithDescription("Replacement envelopes rejected by re-verification"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create replacements rejected counter: %w", err)
	}

	return metrics, nil
}

// recordCycle records the cycle run, its duration, and the decision outcome
func (m *ValidationMetrics) recordCycle(ctx context.Context, start time.Time, decision TrustDecision) {
	if m == nil {
		return
	}
	m.CycleRuns.Add(ctx, 1)
	m.CycleDuration.Record(ctx, time.Since(start).Seconds())
	if decision.IsActive {
		m.DecisionsActive.Add(ctx, 1)
	} else {
		m.DecisionsInactive.Add(ctx, 1)
	}
}

// recordRemoteOutcome records one classified remote status result
func (m *ValidationMetrics) recordRemoteOutcome(ctx context.Context, kind StatusKind) {
	if m == nil {
		return
	}
	m.RemoteOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", kind.String()),
	))
}
