package license

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"entitle/internal/infrastructure"
)

// Orchestrator runs validation cycles: local signature verification, the
// remote status check, and the backup-expiry policy, reconciled into one
// trust decision per cycle and published to the state cell.
type Orchestrator struct {
	verifier     *Verifier
	checker      *StatusChecker
	store        EnvelopeStore
	cell         *StateCell
	checkTimeout time.Duration
	metrics      *ValidationMetrics
	logger       *slog.Logger
	now          func() time.Time

	// group collapses concurrent RunCycle calls into a single in-flight
	// cycle, so two racing cycles can never interleave publications.
	group singleflight.Group
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithMetrics attaches validation metrics
func WithMetrics(m *ValidationMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the orchestrator's time source, for tests
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the validation components together. The cell is
// owned by the caller so several consumers can read it while the
// orchestrator remains its only writer.
func NewOrchestrator(verifier *Verifier, checker *StatusChecker, store EnvelopeStore, cell *StateCell, checkTimeout time.Duration, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		verifier:     verifier,
		checker:      checker,
		store:        store,
		cell:         cell,
		checkTimeout: checkTimeout,
		logger:       infrastructure.WithComponent(infrastructure.GetLogger(), "validation_orchestrator"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the read-only view of the activation state
func (o *Orchestrator) State() StateReader {
	return o.cell
}

// RunCycle executes one validation cycle and returns the published
// decision. Concurrent callers share a single in-flight cycle. License
// trouble of any kind degrades to an inactive decision; RunCycle never
// fails.
func (o *Orchestrator) RunCycle(ctx context.Context) TrustDecision {
	v, _, _ := o.group.Do("cycle", func() (interface{}, error) {
		return o.runCycle(ctx), nil
	})
	return v.(TrustDecision)
}

// runCycle performs the actual cycle. Publication at the end is the single
// point of mutation of the state cell.
func (o *Orchestrator) runCycle(ctx context.Context) TrustDecision {
	start := o.now()
	decision := o.decide(ctx)

	o.cell.Publish(decision)
	o.metrics.recordCycle(ctx, start, decision)

	attrs := []any{
		slog.Bool("is_active", decision.IsActive),
		slog.Duration("duration", time.Since(start)),
	}
	if decision.ExpirationDate != nil {
		attrs = append(attrs, slog.Time("expiration_date", *decision.ExpirationDate))
	}
	o.logger.InfoContext(ctx, "validation cycle complete", attrs...)

	return decision
}

// decide walks the decision states: untrusted, locally trusted, then one of
// confirmed-active, revoked-inactive, grace-active, grace-inactive.
func (o *Orchestrator) decide(ctx context.Context) TrustDecision {
	inactive := TrustDecision{}

	env, err := o.store.Load()
	if err != nil {
		o.logger.WarnContext(ctx, "no usable license envelope",
			slog.String("error", err.Error()),
		)
		return inactive
	}

	// Sole authority gate: an envelope that does not verify can never
	// produce an active state, regardless of remote or backup signals.
	facts, trusted := o.verifier.Verify(env)
	if !trusted {
		o.logger.WarnContext(ctx, "stored envelope failed verification")
		return inactive
	}

	now := o.now()
	expired := now.After(facts.ExpiryDate)

	status := o.checker.Check(ctx, facts.UserID, o.checkTimeout)
	o.metrics.recordRemoteOutcome(ctx, status.Kind)

	switch status.Kind {
	case StatusConfirmed:
		if status.Replacement != nil {
			o.persistReplacement(ctx, status.Replacement)
		}
		// Local expiry is a hard ceiling no remote confirmation overrides.
		if expired {
			o.logger.WarnContext(ctx, "license confirmed remotely but expired locally",
				slog.Time("expiry_date", facts.ExpiryDate),
			)
			return inactive
		}
		return activeDecision(facts.ExpiryDate)

	case StatusRevoked:
		// Revocation overrides any backup grace.
		return inactive

	default: // StatusUnreachable
		if expired || now.After(facts.BackupExpiryDate) {
			o.logger.WarnContext(ctx, "authority unreachable and grace window elapsed",
				slog.Time("backup_expiry_date", facts.BackupExpiryDate),
			)
			return inactive
		}
		o.logger.InfoContext(ctx, "authority unreachable, license active within grace window",
			slog.Time("backup_expiry_date", facts.BackupExpiryDate),
		)
		return activeDecision(facts.ExpiryDate)
	}
}

// persistReplacement stores a replacement envelope for the next cycle, but
// only after it independently re-verifies against the trust anchor.
func (o *Orchestrator) persistReplacement(ctx context.Context, replacement *Envelope) {
	if _, trusted := o.verifier.Verify(replacement); !trusted {
		o.logger.WarnContext(ctx, "replacement envelope failed re-verification, discarded")
		if o.metrics != nil {
			o.metrics.ReplacementsRejected.Add(ctx, 1)
		}
		return
	}

	if err := o.store.Replace(replacement); err != nil {
		// A failed persist only costs us the refreshed envelope; the
		// current cycle's decision stands.
		o.logger.ErrorContext(ctx, "failed to persist replacement envelope",
			slog.String("error", err.Error()),
		)
		return
	}

	if o.metrics != nil {
		o.metrics.ReplacementsPersisted.Add(ctx, 1)
	}
	o.logger.InfoContext(ctx, "replacement envelope persisted")
}

// activeDecision builds an active decision with its own copy of the expiry
func activeDecision(expiry time.Time) TrustDecision {
	return TrustDecision{IsActive: true, ExpirationDate: &expiry}
}
