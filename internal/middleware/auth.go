package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/auth"
	"github.com/fleetops/fleet-gateway/internal/models"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticator validates bearer tokens and gates endpoints on permissions.
type Authenticator struct {
	authService *auth.Service
}

// NewAuthenticator creates the auth middleware set.
func NewAuthenticator(authService *auth.Service) *Authenticator {
	return &Authenticator{authService: authService}
}

// Authenticate validates the Authorization header and stores the claims in
// the request context. A missing or malformed token is INVALID_TOKEN; an
// expired one is TOKEN_EXPIRED. The two are distinct failure kinds.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			apierr.Write(w, r, apierr.CodeInvalidToken, "missing or malformed bearer token", nil)
			return
		}

		claims, err := a.authService.ValidateToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				apierr.Write(w, r, apierr.CodeTokenExpired, "token expired", nil)
				return
			}
			apierr.Write(w, r, apierr.CodeInvalidToken, "invalid token", nil)
			return
		}

		if claims.TenantID == uuid.Nil {
			apierr.Write(w, r, apierr.CodeTenantIsolation, "token carries no tenant scope", nil)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on a "<resource>:<action>" permission.
func (a *Authenticator) RequirePermission(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				apierr.Write(w, r, apierr.CodeInvalidToken, "missing authentication", nil)
				return
			}
			if !models.HasPermission(claims.Permissions, required) {
				apierr.PermissionDenied(w, r, required)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route on an exact role.
func (a *Authenticator) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				apierr.Write(w, r, apierr.CodeInvalidToken, "missing authentication", nil)
				return
			}
			if claims.Role != role {
				apierr.PermissionDenied(w, r, string(role)+" role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims extracts the authenticated claims from the request context.
func GetClaims(ctx context.Context) (*models.JWTClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*models.JWTClaims)
	return claims, ok
}
