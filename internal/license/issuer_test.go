package license

import (
	"crypto/rand"
	"crypto/rsa"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitle/internal/keys"
)

// testKey generates a signing key for tests
func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// fixedClock returns a clock stuck at the given instant
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	key := testKey(t)
	issuer := NewIssuer(key)
	verifier := NewVerifier(&key.PublicKey)

	userID := uuid.New()
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	env, err := issuer.Issue(userID, expiry, 30*24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.True(t, env.WellFormed())

	facts, trusted := verifier.Verify(env)
	require.True(t, trusted)
	assert.Equal(t, userID, facts.UserID)
	assert.True(t, facts.ExpiryDate.Equal(expiry))
	assert.False(t, facts.BackupExpiryDate.After(facts.ExpiryDate))
}

func TestIssueBackupExpiryClamp(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		expiry       time.Time
		backupWindow time.Duration
		wantBackup   time.Time
	}{
		{
			name:         "window inside license lifetime",
			expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			backupWindow: 30 * 24 * time.Hour,
			wantBackup:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:         "window past expiry clamps to expiry",
			expiry:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			backupWindow: 90 * 24 * time.Hour,
			wantBackup:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:         "zero window",
			expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			backupWindow: 0,
			wantBackup:   issuedAt,
		},
		{
			name:         "expiry in the past clamps to expiry",
			expiry:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			backupWindow: 30 * 24 * time.Hour,
			wantBackup:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	key := testKey(t)
	verifier := NewVerifier(&key.PublicKey)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := NewIssuer(key).WithClock(fixedClock(issuedAt))

			env, err := issuer.Issue(uuid.New(), tt.expiry, tt.backupWindow)
			require.NoError(t, err)

			facts, trusted := verifier.Verify(env)
			require.True(t, trusted)
			assert.True(t, facts.BackupExpiryDate.Equal(tt.wantBackup),
				"got %v, want %v", facts.BackupExpiryDate, tt.wantBackup)
			assert.False(t, facts.BackupExpiryDate.After(facts.ExpiryDate),
				"backup expiry may never outlive the license")
		})
	}
}

func TestNewIssuerFromFile(t *testing.T) {
	t.Run("loads a generated key", func(t *testing.T) {
		dir := t.TempDir()
		keyPath := filepath.Join(dir, "license.key")
		_, err := keys.Generate(2048, filepath.Join(dir, "license.pub"), keyPath)
		require.NoError(t, err)

		issuer, err := NewIssuerFromFile(keyPath)
		require.NoError(t, err)

		_, err = issuer.Issue(uuid.New(), time.Now().Add(time.Hour), time.Minute)
		assert.NoError(t, err)
	})

	t.Run("missing key file is fatal", func(t *testing.T) {
		_, err := NewIssuerFromFile(filepath.Join(t.TempDir(), "missing.key"))
		assert.ErrorIs(t, err, keys.ErrKeyMaterial)
	})
}
