package license

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusChecker(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid https url", baseURL: "https://licensing.example.com"},
		{name: "valid with path", baseURL: "http://localhost:8080/v1"},
		{name: "missing scheme", baseURL: "licensing.example.com", wantErr: true},
		{name: "garbage", baseURL: "://nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatusChecker(tt.baseURL, "api/licenses/status", nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckClassification(t *testing.T) {
	userID := uuid.New()
	replacement := Envelope{
		Data:      "aGVsbG8=",
		Signature: "d29ybGQ=",
	}

	tests := []struct {
		name            string
		handler         http.HandlerFunc
		wantKind        StatusKind
		wantReplacement bool
	}{
		{
			name: "200 with well-formed envelope body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(replacement)
			},
			wantKind:        StatusConfirmed,
			wantReplacement: true,
		},
		{
			name: "200 with malformed body is confirmed without replacement",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"status":"ok"}`)
			},
			wantKind: StatusConfirmed,
		},
		{
			name: "200 with non-JSON body is confirmed without replacement",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "OK")
			},
			wantKind: StatusConfirmed,
		},
		{
			name: "200 with envelope holding invalid base64 is confirmed without replacement",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"data":"!!!","signature":"???"}`)
			},
			wantKind: StatusConfirmed,
		},
		{
			name:     "401 is revoked",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantKind: StatusRevoked,
		},
		{
			name:     "404 is revoked",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantKind: StatusRevoked,
		},
		{
			name:     "500 is unreachable",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantKind: StatusUnreachable,
		},
		{
			name:     "429 is unreachable",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			wantKind: StatusUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				tt.handler(w, r)
			}))
			defer server.Close()

			checker, err := NewStatusChecker(server.URL, "api/licenses/status", nil)
			require.NoError(t, err)

			status := checker.Check(context.Background(), userID, 2*time.Second)

			assert.Equal(t, tt.wantKind, status.Kind)
			assert.Equal(t, "/api/licenses/status/"+userID.String(), gotPath)
			if tt.wantReplacement {
				require.NotNil(t, status.Replacement)
				assert.Equal(t, replacement, *status.Replacement)
			} else {
				assert.Nil(t, status.Replacement)
			}
		})
	}
}

func TestCheckTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	checker, err := NewStatusChecker(server.URL, "status", nil)
	require.NoError(t, err)

	start := time.Now()
	status := checker.Check(context.Background(), uuid.New(), 100*time.Millisecond)

	assert.Equal(t, StatusUnreachable, status.Kind)
	assert.Less(t, time.Since(start), 2*time.Second, "check must not block past its timeout")
}

func TestCheckConnectionRefused(t *testing.T) {
	// Reserve a port and close it so nothing is listening.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	checker, err := NewStatusChecker(url, "status", nil)
	require.NoError(t, err)

	status := checker.Check(context.Background(), uuid.New(), time.Second)
	assert.Equal(t, StatusUnreachable, status.Kind)
}

func TestCheckCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	checker, err := NewStatusChecker(server.URL, "status", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	status := checker.Check(ctx, uuid.New(), 30*time.Second)
	assert.Equal(t, StatusUnreachable, status.Kind)
}
