package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/defit-store/backend/internal/auth"
)

// NewRouter assembles the full HTTP surface. Everything under the
// admin group sits behind the session middleware; public routes are
// registered directly.
func NewRouter(
	sessions *auth.Sessions,
	productHandler *ProductHandler,
	orderHandler *OrderHandler,
	adminHandler *AdminHandler,
) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	productHandler.RegisterPublicRoutes(router)
	orderHandler.RegisterPublicRoutes(router)
	adminHandler.RegisterPublicRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(sessions.RequireAdmin)
		productHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
		adminHandler.RegisterAdminRoutes(r)
	})

	return router
}

// requestLogger writes one structured log line per request once the
// handler chain has finished with it.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
