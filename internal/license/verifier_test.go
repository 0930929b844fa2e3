package license

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyTamperDetection(t *testing.T) {
	key := testKey(t)
	issuer := NewIssuer(key)
	verifier := NewVerifier(&key.PublicKey)

	env, err := issuer.Issue(uuid.New(), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	require.NoError(t, err)

	flipBit := func(encoded string, bit int) string {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		raw[bit/8] ^= 1 << (bit % 8)
		return base64.StdEncoding.EncodeToString(raw)
	}

	t.Run("any single bit flip in data is untrusted", func(t *testing.T) {
		raw, _ := base64.StdEncoding.DecodeString(env.Data)
		for bit := 0; bit < len(raw)*8; bit += 7 {
			tampered := &Envelope{Data: flipBit(env.Data, bit), Signature: env.Signature}
			facts, trusted := verifier.Verify(tampered)
			assert.False(t, trusted, "bit %d", bit)
			assert.Nil(t, facts)
		}
	})

	t.Run("any single bit flip in signature is untrusted", func(t *testing.T) {
		raw, _ := base64.StdEncoding.DecodeString(env.Signature)
		for bit := 0; bit < len(raw)*8; bit += 13 {
			tampered := &Envelope{Data: env.Data, Signature: flipBit(env.Signature, bit)}
			facts, trusted := verifier.Verify(tampered)
			assert.False(t, trusted, "bit %d", bit)
			assert.Nil(t, facts)
		}
	})
}

func TestVerifyMalformedInput(t *testing.T) {
	key := testKey(t)
	verifier := NewVerifier(&key.PublicKey)

	valid, err := NewIssuer(key).Issue(uuid.New(), time.Now().Add(time.Hour), time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name string
		env  *Envelope
	}{
		{name: "nil envelope", env: nil},
		{name: "empty envelope", env: &Envelope{}},
		{name: "data not base64", env: &Envelope{Data: "not!!base64", Signature: valid.Signature}},
		{name: "signature not base64", env: &Envelope{Data: valid.Data, Signature: "%%%"}},
		{name: "signature for different payload", env: &Envelope{
			Data:      base64.StdEncoding.EncodeToString([]byte(`{"user_id":"x"}`)),
			Signature: valid.Signature,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// must report untrusted, never panic
			facts, trusted := verifier.Verify(tt.env)
			assert.False(t, trusted)
			assert.Nil(t, facts)
		})
	}
}

func TestVerifySignedButUnparsablePayload(t *testing.T) {
	key := testKey(t)
	verifier := NewVerifier(&key.PublicKey)

	// A correctly-signed payload that is not a facts document must still be
	// untrusted.
	payload := []byte("this is not JSON at all")
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	require.NoError(t, err)

	env := &Envelope{
		Data:      base64.StdEncoding.EncodeToString(payload),
		Signature: base64.StdEncoding.EncodeToString(sig),
	}

	facts, trusted := verifier.Verify(env)
	assert.False(t, trusted)
	assert.Nil(t, facts)
}

func TestVerifyWrongAnchor(t *testing.T) {
	signingKey := testKey(t)
	otherKey := testKey(t)

	env, err := NewIssuer(signingKey).Issue(uuid.New(), time.Now().Add(time.Hour), time.Minute)
	require.NoError(t, err)

	_, trusted := NewVerifier(&otherKey.PublicKey).Verify(env)
	assert.False(t, trusted)
}

func TestVerifyConcurrent(t *testing.T) {
	key := testKey(t)
	verifier := NewVerifier(&key.PublicKey)

	env, err := NewIssuer(key).Issue(uuid.New(), time.Now().Add(time.Hour), time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, trusted := verifier.Verify(env)
				assert.True(t, trusted)
			}
		}()
	}
	wg.Wait()
}
