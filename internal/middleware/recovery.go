package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/apierr"
)

// Recovery converts panics into a 500 response in the standard error
// envelope so clients never see a bare text body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("error", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				apierr.Internal(w, r)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
