package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/cache"
)

const csrfHeader = "X-CSRF-Token"

// CSRF stores and validates per-session CSRF tokens. The token for a session
// lives in the shared cache keyed by the token's jti, so any gateway instance
// can validate it.
type CSRF struct {
	store cache.Cache
	ttl   time.Duration
}

// NewCSRF creates the CSRF guard.
func NewCSRF(store cache.Cache, ttl time.Duration) *CSRF {
	return &CSRF{store: store, ttl: ttl}
}

func csrfKey(sessionID string) string { return "csrf:" + sessionID }

// Issue stores a freshly generated token for the session and returns it. A
// new issue replaces the previous token; only the most recent one validates.
func (c *CSRF) Issue(ctx context.Context, sessionID, token string) error {
	return c.store.Set(ctx, csrfKey(sessionID), []byte(token), c.ttl)
}

// Protect rejects state-changing requests whose X-CSRF-Token header does not
// match the session's current token. Runs after authentication and before
// any handler, so no persistence can happen on a failed check.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := GetClaims(r.Context())
		if !ok {
			apierr.Write(w, r, apierr.CodeInvalidToken, "missing authentication", nil)
			return
		}

		presented := r.Header.Get(csrfHeader)
		if presented == "" {
			apierr.Write(w, r, apierr.CodeCSRFInvalid, "missing CSRF token", nil)
			return
		}

		stored, err := c.store.Get(r.Context(), csrfKey(claims.ID))
		if err != nil {
			apierr.Write(w, r, apierr.CodeCSRFInvalid, "no CSRF token issued for session", nil)
			return
		}

		if subtle.ConstantTimeCompare(stored, []byte(presented)) != 1 {
			apierr.Write(w, r, apierr.CodeCSRFInvalid, "CSRF token mismatch", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
