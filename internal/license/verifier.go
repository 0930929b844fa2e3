package license

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"entitle/internal/keys"
)

// Verifier checks license envelopes against the trust anchor (the public
// half of the signing pair). It is stateless and safe for concurrent use.
type Verifier struct {
	anchor *rsa.PublicKey
}

// NewVerifier creates a verifier around an already-parsed trust anchor
func NewVerifier(anchor *rsa.PublicKey) *Verifier {
	return &Verifier{anchor: anchor}
}

// NewVerifierFromFile loads the trust anchor from a PEM file. A missing or
// unparsable anchor is a configuration error, distinct from an untrusted
// envelope.
func NewVerifierFromFile(path string) (*Verifier, error) {
	anchor, err := keys.LoadTrustAnchor(path)
	if err != nil {
		return nil, err
	}
	return NewVerifier(anchor), nil
}

// Verify checks the envelope's signature over the exact decoded payload
// bytes and, only on a match, decodes the facts. Every failure mode -
// malformed base64, signature mismatch, unparsable payload - is reported as
// untrusted (nil, false), never as an error: tamper is an expected outcome.
func (v *Verifier) Verify(env *Envelope) (*LicenseFacts, bool) {
	if env == nil {
		return nil, false
	}

	payload, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, false
	}
	signature, err := base64.StdEncoding.DecodeString(env.Signature)
	if err != nil {
		return nil, false
	}

	digest := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(v.anchor, crypto.SHA256, digest[:], signature); err != nil {
		return nil, false
	}

	// A correctly-signed but unparsable payload is still untrusted.
	var facts LicenseFacts
	if err := json.Unmarshal(payload, &facts); err != nil {
		return nil, false
	}

	return &facts, true
}
