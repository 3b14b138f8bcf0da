package auth

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// RequireAdmin rejects any request without a valid admin session
// cookie. Mounted once on the admin route group so no individual
// handler can forget the check.
func (s *Sessions) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Authenticated(r) {
			log.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("auth: unauthenticated admin request")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
