package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	apierrors "entitle/internal/errors"
	"entitle/internal/license"
)

// LicenseGate blocks requests while the activation state is inactive. It
// only reads the state cell; validation itself runs on its own schedule, so
// the gate adds no per-request latency or network traffic.
type LicenseGate struct {
	state           license.StateReader
	logger          *slog.Logger
	excludePaths    map[string]struct{}
	excludePrefixes []string
}

// NewLicenseGate creates a gate around the given activation state
func NewLicenseGate(state license.StateReader, logger *slog.Logger) *LicenseGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &LicenseGate{
		state:        state,
		logger:       logger.With(slog.String("component", "license_gate")),
		excludePaths: make(map[string]struct{}),
	}
}

// ExcludePath exempts an exact path from the gate
func (g *LicenseGate) ExcludePath(path string) *LicenseGate {
	g.excludePaths[path] = struct{}{}
	return g
}

// ExcludePrefix exempts a path prefix from the gate
func (g *LicenseGate) ExcludePrefix(prefix string) *LicenseGate {
	g.excludePrefixes = append(g.excludePrefixes, prefix)
	return g
}

// Handler returns the middleware
func (g *LicenseGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !g.state.Current().IsActive {
			g.logger.DebugContext(r.Context(), "request blocked, license inactive",
				slog.String("path", r.URL.Path),
			)
			apierrors.WriteError(w, apierrors.ErrLicenseInactive)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// excluded reports whether the path is exempt
func (g *LicenseGate) excluded(path string) bool {
	if _, ok := g.excludePaths[path]; ok {
		return true
	}
	for _, prefix := range g.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
