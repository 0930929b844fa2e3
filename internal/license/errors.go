package license

import "errors"

// Issuance-side sentinel errors. These are fatal and surfaced to the issuing
// caller; validation-side outcomes are never reported as errors.
var (
	// ErrEncoding is returned when the license payload cannot be serialized.
	ErrEncoding = errors.New("license payload serialization failed")
	// ErrSigning is returned when signing the payload fails.
	ErrSigning = errors.New("license signing failed")
	// ErrNoLicense is returned by a store when no envelope is persisted.
	ErrNoLicense = errors.New("no license envelope stored")
)
