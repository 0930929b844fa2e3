package license

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"entitle/internal/infrastructure"
)

// StatusKind classifies the outcome of a remote status query
type StatusKind int

const (
	// StatusConfirmed means the authority vouched for the license.
	StatusConfirmed StatusKind = iota
	// StatusRevoked means the authority explicitly rejected the license.
	StatusRevoked
	// StatusUnreachable means no authoritative answer was obtained.
	StatusUnreachable
)

// String returns the status kind as a log-friendly string
func (k StatusKind) String() string {
	switch k {
	case StatusConfirmed:
		return "confirmed"
	case StatusRevoked:
		return "revoked"
	default:
		return "unreachable"
	}
}

// Status is the classified result of one remote status query. Replacement
// is set only for a confirmed status whose body carried a well-formed
// envelope.
type Status struct {
	Kind        StatusKind
	Replacement *Envelope
}

// StatusChecker queries the licensing authority for the current status of a
// user's license. Expected network conditions are classified, never raised:
// only a malformed endpoint is an error, and only at construction time.
type StatusChecker struct {
	client    *http.Client
	statusURL *url.URL
	logger    *slog.Logger
}

// NewStatusChecker builds a checker for GET {baseURL}/{endpoint}/{userID}
func NewStatusChecker(baseURL, endpoint string, client *http.Client) (*StatusChecker, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("malformed licensing server URL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("licensing server URL %q missing scheme or host", baseURL)
	}
	statusURL := parsed.JoinPath(endpoint)

	if client == nil {
		client = http.DefaultClient
	}

	return &StatusChecker{
		client:    client,
		statusURL: statusURL,
		logger:    infrastructure.WithComponent(infrastructure.GetLogger(), "status_checker"),
	}, nil
}

// Check performs a single status query for userID, bounded by timeout.
// Classification: 2xx with a well-formed envelope body is confirmed with a
// replacement; 2xx with any other body is confirmed without one; 401 and
// 404 are revoked; everything else, including transport failures and
// timeouts, is unreachable.
func (c *StatusChecker) Check(ctx context.Context, userID uuid.UUID, timeout time.Duration) Status {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.statusURL.JoinPath(userID.String()).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to build status request",
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return Status{Kind: StatusUnreachable}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "licensing authority unreachable",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return Status{Kind: StatusUnreachable}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Status{Kind: StatusConfirmed, Replacement: c.parseReplacement(ctx, resp.Body)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		c.logger.WarnContext(ctx, "license revoked by authority",
			slog.String("user_id", userID.String()),
			slog.Int("status_code", resp.StatusCode),
		)
		return Status{Kind: StatusRevoked}
	default:
		c.logger.DebugContext(ctx, "unexpected status from licensing authority",
			slog.String("user_id", userID.String()),
			slog.Int("status_code", resp.StatusCode),
		)
		return Status{Kind: StatusUnreachable}
	}
}

// parseReplacement extracts a replacement envelope from a confirmed
// response body. A malformed body downgrades to confirmed-without-
// replacement; it is never persisted.
func (c *StatusChecker) parseReplacement(ctx context.Context, body io.Reader) *Envelope {
	data, err := io.ReadAll(io.LimitReader(body, maxEnvelopeBytes))
	if err != nil {
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.DebugContext(ctx, "confirmed response body is not an envelope")
		return nil
	}
	if !env.WellFormed() {
		return nil
	}
	return &env
}

// maxEnvelopeBytes bounds how much of a response body is read when looking
// for a replacement envelope.
const maxEnvelopeBytes = 1 << 20
