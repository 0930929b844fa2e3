// Package license implements issuance and validation of signed entitlement
// certificates and reconciles them into a single trusted activation state.
//
// # Architecture Overview
//
// The package consists of several components:
//
//	- Issuer: builds and signs a license envelope from user/expiry facts
//	- Verifier: checks an envelope's signature and decodes its payload
//	- StatusChecker: queries the licensing authority for the current status
//	- Orchestrator: combines the above into one trust decision per cycle
//	- StateCell: process-wide, lock-free holder of the last trust decision
//	- FileStore: wholesale-replace persistence of the license envelope
//
// # Validation Flow
//
// One validation cycle follows these steps:
//
//	1. Load the stored envelope and verify its signature locally
//	2. Enforce the local expiry date as a hard ceiling
//	3. Query the remote authority (confirmed / revoked / unreachable)
//	4. Apply the offline grace window when the authority is unreachable
//	5. Publish the resulting decision atomically to the StateCell
//
// Local signature verification is the sole authority gate: an envelope that
// does not verify can never produce an active state, regardless of remote or
// grace signals. Revocation overrides the grace window unconditionally.
//
// # Failure Semantics
//
// Tampered and malformed input are expected outcomes, not exceptions: the
// Verifier reports them as "untrusted" and the Orchestrator degrades to an
// inactive decision. Validation never surfaces errors to the host; consuming
// code only ever observes a complete TrustDecision snapshot.
//
// Issuance-side failures (bad key material, serialization errors) are fatal
// to the issuing caller, since issuance is an offline, trusted, low-frequency
// operation where failing loudly is correct.
package license
