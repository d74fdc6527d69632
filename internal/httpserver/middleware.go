package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/officechat/wordbot/internal/auth"
)

// ctxUserKey is the context key type for storing the authenticated principal.
type ctxUserKey struct{}

// currentUser returns the principal placed by requireAuth, or nil.
func currentUser(r *http.Request) *auth.Principal {
	p, _ := r.Context().Value(ctxUserKey{}).(*auth.Principal)
	return p
}

// requestLogger emits one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin
// (CLIENT_ORIGIN; defaults to http://localhost:5173).
func corsFor(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerOrCookie extracts a bearer token from the Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.deps.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// principalFor verifies tok and reloads the user so role changes apply at once.
func (s *Server) principalFor(ctx context.Context, tok string) (*auth.Principal, error) {
	if tok == "" {
		return nil, auth.ErrInvalidToken
	}
	claims, err := s.deps.Auth.Parse(tok)
	if err != nil {
		return nil, err
	}
	// Ensure user still exists
	u, err := s.deps.Auth.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return auth.PrincipalOf(u), nil
}

// requireAuth enforces a valid JWT and injects the principal into request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.bearerOrCookie(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}
		p, err := s.principalFor(r.Context(), tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
