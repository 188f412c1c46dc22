package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/avorobjovs/tunepin/internal/server/models"
)

type contextKey int

const userContextKey contextKey = iota

// userFromContext returns the principal placed there by requireToken.
func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok
}

// bearerToken extracts the opaque token from an Authorization header, or ""
// when the header is absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return auth[len(prefix):]
}

// requireToken guards a route with a bearer token of the given kind. The
// expected kind is fixed per route at registration time. All verification
// failures yield the same 401; only a store failure becomes a 500.
func (s *Server) requireToken(kind models.TokenKind, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := bearerToken(r)
		if value == "" {
			writeUnauthorized(w)
			return
		}
		user, err := s.auth.Verify(r.Context(), value, kind)
		if err != nil {
			s.logger.Error(r.Context(), "token verification failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			return
		}
		if user == nil {
			writeUnauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs one line per request with method, path, status and
// duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
