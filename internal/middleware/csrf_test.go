package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-gateway/internal/cache"
	"github.com/fleetops/fleet-gateway/internal/models"
)

func csrfTestClaims(sessionID string) *models.JWTClaims {
	return &models.JWTClaims{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID: sessionID,
		},
	}
}

func csrfRequest(method, token string, claims *models.JWTClaims) *http.Request {
	req := httptest.NewRequest(method, "/", nil)
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	if claims != nil {
		ctx := context.WithValue(req.Context(), claimsKey, claims)
		req = req.WithContext(ctx)
	}
	return req
}

func TestCSRFProtect(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	guard := NewCSRF(mc, time.Hour)
	claims := csrfTestClaims("session-1")
	require.NoError(t, guard.Issue(context.Background(), "session-1", "token-1"))

	handlerRan := false
	h := guard.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	}))

	expectCode := func(t *testing.T, rec *httptest.ResponseRecorder, want string) {
		t.Helper()
		var env struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, want, env.Code)
	}

	t.Run("matching token passes", func(t *testing.T) {
		handlerRan = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, csrfRequest(http.MethodPost, "token-1", claims))
		assert.True(t, handlerRan)
	})

	t.Run("missing token blocks the handler", func(t *testing.T) {
		handlerRan = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, csrfRequest(http.MethodPost, "", claims))
		assert.False(t, handlerRan)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		expectCode(t, rec, "CSRF_TOKEN_INVALID")
	})

	t.Run("wrong token", func(t *testing.T) {
		handlerRan = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, csrfRequest(http.MethodDelete, "token-2", claims))
		assert.False(t, handlerRan)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("session without an issued token", func(t *testing.T) {
		handlerRan = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, csrfRequest(http.MethodPost, "token-1", csrfTestClaims("session-2")))
		assert.False(t, handlerRan)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("safe methods skip the check", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
			handlerRan = false
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, csrfRequest(method, "", claims))
			assert.True(t, handlerRan, method)
		}
	})

	t.Run("reissue invalidates the previous token", func(t *testing.T) {
		require.NoError(t, guard.Issue(context.Background(), "session-1", "token-9"))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, csrfRequest(http.MethodPost, "token-1", claims))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, csrfRequest(http.MethodPost, "token-9", claims))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
