package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// SealingConfig defines the parameters for passphrase-based key sealing
type SealingConfig struct {
	// SCRYPT parameters (OWASP recommended minimum)
	SCryptN      int
	SCryptR      int
	SCryptP      int
	SCryptKeyLen int

	// AES-GCM nonce size
	NonceSize int
}

// DefaultSealingConfig returns the standard sealing parameters
func DefaultSealingConfig() *SealingConfig {
	return &SealingConfig{
		SCryptN:      32768,
		SCryptR:      8,
		SCryptP:      1,
		SCryptKeyLen: 32, // AES-256
		NonceSize:    12, // GCM standard
	}
}

// SealedKey is the on-disk form of a passphrase-protected signing key
type SealedKey struct {
	Version    uint8  `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// SealSigningKey encrypts a signing key PEM under a passphrase using
// scrypt key derivation and AES-256-GCM
func SealSigningKey(keyPEM []byte, passphrase string, cfg *SealingConfig) ([]byte, error) {
	if len(keyPEM) == 0 {
		return nil, errors.New("key material cannot be empty")
	}
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}
	if cfg == nil {
		cfg = DefaultSealingConfig()
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := deriveCipher(passphrase, salt, cfg)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, cfg.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := SealedKey{
		Version:    1,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, keyPEM, nil),
	}

	return json.Marshal(sealed)
}

// UnsealSigningKey decrypts a sealed signing key. A wrong passphrase or a
// tampered payload fails the GCM authentication check and is reported as
// ErrKeyMaterial.
func UnsealSigningKey(data []byte, passphrase string, cfg *SealingConfig) ([]byte, error) {
	if cfg == nil {
		cfg = DefaultSealingConfig()
	}

	var sealed SealedKey
	if err := json.Unmarshal(data, &sealed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}
	if sealed.Version != 1 {
		return nil, fmt.Errorf("%w: unsupported sealed key version %d", ErrKeyMaterial, sealed.Version)
	}

	gcm, err := deriveCipher(passphrase, sealed.Salt, cfg)
	if err != nil {
		return nil, err
	}

	keyPEM, err := gcm.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unseal failed", ErrKeyMaterial)
	}

	return keyPEM, nil
}

// deriveCipher derives an AES-GCM AEAD from a passphrase and salt
func deriveCipher(passphrase string, salt []byte, cfg *SealingConfig) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, cfg.SCryptN, cfg.SCryptR, cfg.SCryptP, cfg.SCryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	defer func() {
		for i := range key {
			key[i] = 0
		}
	}()

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
