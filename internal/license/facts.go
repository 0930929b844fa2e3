package license

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// LicenseFacts is the signed content of a license: who it was granted to,
// when it expires, and until when an unreachable authority is tolerated.
// Facts are immutable once signed.
type LicenseFacts struct {
	UserID     uuid.UUID `json:"user_id"`
	ExpiryDate time.Time `json:"expiry_date"`
	// BackupExpiryDate bounds the offline grace window. Invariant:
	// BackupExpiryDate <= ExpiryDate, enforced at issuance.
	BackupExpiryDate time.Time `json:"backup_expiry_date"`
}

// Envelope is the transportable unit of a license: the base64 encoding of
// the exact payload bytes that were signed, plus the base64 signature.
type Envelope struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

// WellFormed reports whether both fields are present and base64-decodable.
// It says nothing about signature validity.
func (e *Envelope) WellFormed() bool {
	if e == nil || e.Data == "" || e.Signature == "" {
		return false
	}
	if _, err := base64.StdEncoding.DecodeString(e.Data); err != nil {
		return false
	}
	if _, err := base64.StdEncoding.DecodeString(e.Signature); err != nil {
		return false
	}
	return true
}
