package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/defzzd/learning-journal/internal/auth"
	"github.com/defzzd/learning-journal/internal/database"
)

// Logger is a middleware that logs requests
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// RequestScope attaches a fresh database.Scope to every request and runs its
// teardown once the request ends. The teardown is deferred so it fires even
// when the handler panics: the transaction commits unless the handler
// recorded a database-classified error, and the connection is always
// released. Requests that never touch the database tear down as a no-op.
func RequestScope(db *database.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := database.NewScope(db)
			ctx := database.WithScope(r.Context(), scope)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				if err := scope.Teardown(); err != nil {
					log.Error().
						Err(err).
						Str("path", r.URL.Path).
						Str("request_id", middleware.GetReqID(r.Context())).
						Msg("Request teardown failed")
					if ww.Status() == 0 {
						http.Error(ww, "Internal server error", http.StatusInternalServerError)
					}
				}
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}

// RequireLogin redirects requests without a valid session to the login page
func RequireLogin(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.LoggedIn(r) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
