package license

import (
	"sync/atomic"
	"time"
)

// TrustDecision is the single published outcome of one validation cycle:
// whether the license is active and, if so, until when. It is an immutable
// snapshot, created and replaced wholesale by the orchestrator.
type TrustDecision struct {
	IsActive       bool
	ExpirationDate *time.Time
}

// StateReader is the read-only view of the activation state handed to
// consuming code.
type StateReader interface {
	Current() TrustDecision
}

// StateCell holds the last-computed trust decision for one license domain.
// Publication swaps an atomic pointer, so readers are lock-free and always
// observe a complete snapshot, never a mid-update mix of fields.
type StateCell struct {
	decision atomic.Pointer[TrustDecision]
}

// NewStateCell creates a cell holding the default inactive decision
func NewStateCell() *StateCell {
	c := &StateCell{}
	c.decision.Store(&TrustDecision{})
	return c
}

// Publish atomically replaces the held decision
func (c *StateCell) Publish(d TrustDecision) {
	c.decision.Store(&d)
}

// Current returns the most recently published snapshot. The zero decision
// (inactive, no expiry) is returned before the first publish.
func (c *StateCell) Current() TrustDecision {
	if d := c.decision.Load(); d != nil {
		return *d
	}
	return TrustDecision{}
}
