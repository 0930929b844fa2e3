package license

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"entitle/internal/keys"
)

// Issuer builds and signs license envelopes. It holds the private signing
// key and runs only on the trusted, issuing side.
type Issuer struct {
	key *rsa.PrivateKey
	now func() time.Time
}

// NewIssuer creates an issuer around an already-parsed signing key
func NewIssuer(key *rsa.PrivateKey) *Issuer {
	return &Issuer{key: key, now: time.Now}
}

// NewIssuerFromFile loads the signing key from a PEM file. A missing or
// unparsable key is fatal to the caller.
func NewIssuerFromFile(path string) (*Issuer, error) {
	key, err := keys.LoadSigningKey(path)
	if err != nil {
		return nil, err
	}
	return NewIssuer(key), nil
}

// WithClock overrides the issuer's time source. Used by tests and by
// callers that need reproducible backup windows.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue creates a signed envelope for the given user and expiry. The backup
// expiry is clamped to the real expiry so the grace window can never outlive
// the license itself.
func (i *Issuer) Issue(userID uuid.UUID, expiryDate time.Time, backupWindow time.Duration) (*Envelope, error) {
	backupExpiry := i.now().Add(backupWindow)
	if backupExpiry.After(expiryDate) {
		backupExpiry = expiryDate
	}

	facts := LicenseFacts{
		UserID:           userID,
		ExpiryDate:       expiryDate,
		BackupExpiryDate: backupExpiry,
	}

	payload, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	digest := sha256.Sum256(payload)
	signature, err := rsa.SignPKCS1v15(rand.Reader, i.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	return &Envelope{
		Data:      base64.StdEncoding.EncodeToString(payload),
		Signature: base64.StdEncoding.EncodeToString(signature),
	}, nil
}
