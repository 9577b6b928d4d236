package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
	"github.com/fleetops/fleet-gateway/internal/cache"
)

// Category defines one rate-limit bucket. Limit is the allowance per
// window. Burst caps admitted requests per burst slot (a tenth of the
// window), bounding the spike that adjacent fixed windows would otherwise
// allow across a boundary.
type Category struct {
	Name   string
	Limit  int
	Burst  int
	Window time.Duration
}

// The documented per-category limits.
var (
	CategoryAuth     = Category{Name: "auth", Limit: 5, Burst: 10, Window: 15 * time.Minute}
	CategoryRegister = Category{Name: "registration", Limit: 3, Burst: 5, Window: time.Hour}
	CategoryRead     = Category{Name: "read", Limit: 100, Burst: 200, Window: time.Minute}
	CategoryWrite    = Category{Name: "write", Limit: 50, Burst: 100, Window: time.Minute}
	CategoryUpload   = Category{Name: "upload", Limit: 10, Burst: 20, Window: time.Minute}
	CategoryGlobalIP = Category{Name: "global_ip", Limit: 1000, Burst: 1500, Window: 15 * time.Minute}
)

// RateLimiter enforces fixed-window counters per (identity, category).
// Identity is the authenticated user when available, otherwise the client IP.
type RateLimiter struct {
	counter cache.Counter
	enabled bool
}

// NewRateLimiter creates the limiter. When disabled, its middleware are
// pass-throughs.
func NewRateLimiter(counter cache.Counter, enabled bool) *RateLimiter {
	return &RateLimiter{counter: counter, enabled: enabled}
}

// Limit enforces one category on the wrapped routes and stamps the
// X-RateLimit-* headers on every response, breach or not.
func (rl *RateLimiter) Limit(cat Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enabled {
				next.ServeHTTP(w, r)
				return
			}

			identity := r.RemoteAddr
			if claims, ok := GetClaims(r.Context()); ok {
				identity = claims.UserID.String()
			}

			now := time.Now()
			key := cache.CounterKey(identity, cat.Name, cat.Window, now)
			count, ttl, err := rl.counter.Incr(r.Context(), key, cat.Window)
			if err != nil {
				// Counter backend trouble must not take the API down.
				log.Warn().Err(err).Str("category", cat.Name).Msg("rate limit counter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(cat.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cat.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(ttl).Unix(), 10))
			w.Header().Set("X-RateLimit-Window", strconv.Itoa(int(cat.Window.Seconds())))

			if count > int64(cat.Limit) {
				rl.reject(w, r, cat, ttl)
				return
			}

			// Requests admitted by the window counter still count against
			// the burst slot, which caps boundary spikes at Burst.
			slot := burstSlot(cat.Window)
			burstKey := cache.CounterKey(identity, cat.Name+":burst", slot, now)
			burstCount, burstTTL, err := rl.counter.Incr(r.Context(), burstKey, slot)
			if err != nil {
				log.Warn().Err(err).Str("category", cat.Name).Msg("burst counter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if burstCount > int64(cat.Burst) {
				rl.reject(w, r, cat, burstTTL)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, cat Category, ttl time.Duration) {
	rateLimitRejections.WithLabelValues(cat.Name).Inc()
	retryAfter := int(ttl.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	apierr.RateLimited(w, r, retryAfter, cat.Limit, windowString(cat.Window))
}

func burstSlot(window time.Duration) time.Duration {
	slot := window / 10
	if slot < time.Second {
		slot = time.Second
	}
	return slot
}

// LimitByMethod applies the read category to GET/HEAD and the write category
// to everything else. Mounted inside the authenticated API group.
func (rl *RateLimiter) LimitByMethod(read, write Category) func(http.Handler) http.Handler {
	readMW := rl.Limit(read)
	writeMW := rl.Limit(write)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				readMW(next).ServeHTTP(w, r)
				return
			}
			writeMW(next).ServeHTTP(w, r)
		})
	}
}

func windowString(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
