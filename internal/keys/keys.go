package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// MinKeySize is the smallest RSA modulus accepted for license signing keys.
const MinKeySize = 2048

// Sentinel errors surfaced to the issuing caller. Key generation and key
// loading are trusted, low-frequency operations where failing loudly is
// correct.
var (
	// ErrKeyTooSmall is returned when the requested key size is below MinKeySize.
	ErrKeyTooSmall = errors.New("key size below 2048 bits")
	// ErrKeyExists is returned when an output path already holds key material.
	// Existing keys are never silently overwritten.
	ErrKeyExists = errors.New("key file already exists")
	// ErrKeyMaterial is returned when key material cannot be read or parsed.
	ErrKeyMaterial = errors.New("unreadable or unparsable key material")
)

// KeyPair holds the PEM encodings of a freshly generated signing key pair.
// The private half stays on the issuing side; the public half (the trust
// anchor) is distributed to verifying sides.
type KeyPair struct {
	AnchorPEM     []byte
	SigningKeyPEM []byte
}

// Generate creates a new RSA key pair and writes both halves as PEM files.
// It fails with ErrKeyTooSmall for keySize < 2048 and with ErrKeyExists if
// either output path already holds key material.
func Generate(keySize int, anchorPath, signingKeyPath string) (*KeyPair, error) {
	if keySize < MinKeySize {
		return nil, fmt.Errorf("%w: got %d bits", ErrKeyTooSmall, keySize)
	}

	for _, path := range []string{anchorPath, signingKeyPath} {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyExists, path)
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, fmt.Errorf("key generation failed: %w", err)
	}

	pair, err := encodePair(key)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(signingKeyPath, pair.SigningKeyPEM, 0600); err != nil {
		return nil, fmt.Errorf("failed to write signing key: %w", err)
	}
	if err := os.WriteFile(anchorPath, pair.AnchorPEM, 0644); err != nil {
		// The pair is unusable without both halves on disk.
		os.Remove(signingKeyPath)
		return nil, fmt.Errorf("failed to write trust anchor: %w", err)
	}

	return pair, nil
}

// encodePair encodes a private key as PKCS#8 and its public half as PKIX PEM blocks
func encodePair(key *rsa.PrivateKey) (*KeyPair, error) {
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signing key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trust anchor: %w", err)
	}

	return &KeyPair{
		SigningKeyPEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		AnchorPEM:     pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
	}, nil
}

// ParseSigningKey parses a PEM-encoded RSA private key
func ParseSigningKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyMaterial)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Also accept the legacy PKCS#1 encoding.
		if key, err1 := x509.ParsePKCS1PrivateKey(block.Bytes); err1 == nil {
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrKeyMaterial)
	}
	return key, nil
}

// ParseTrustAnchor parses a PEM-encoded RSA public key
func ParseTrustAnchor(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyMaterial)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrKeyMaterial)
	}
	return key, nil
}

// LoadSigningKey reads and parses a PEM-encoded RSA private key file
func LoadSigningKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}
	return ParseSigningKey(data)
}

// LoadTrustAnchor reads and parses a PEM-encoded RSA public key file
func LoadTrustAnchor(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}
	return ParseTrustAnchor(data)
}
