// internal/httpserver/server.go
//
// HTTP server wiring for the office chat word game.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, request logs, panic recovery,
//     CORS, timeouts, JSON, compression).
//   - Public endpoints: "/", "/health", game reads (status, leaderboards, history).
//   - Auth endpoints: /auth/signup, /auth/login, /auth/logout, /auth/me.
//   - Game commands (require auth): POST /game/start, /game/end, /game/words.
//   - Websocket upgrade: GET /ws (token via bearer header, cookie or ?token=).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - /ws sits outside the timeout/compress group: it is a long-lived hijacked connection.
//   - Game commands go through the realtime hub so REST callers trigger the same
//     broadcasts as websocket clients.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/officechat/wordbot/internal/auth"
	"github.com/officechat/wordbot/internal/realtime"
	"github.com/officechat/wordbot/internal/store"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Hub     *realtime.Hub
	Auth    *auth.Service
	Archive store.Archive

	ClientOrigin  string
	CookieName    string
	SecureCookies bool
	Now           func() time.Time
}

// Server bundles the router and its collaborators.
type Server struct {
	r    *chi.Mux
	deps Deps
	now  func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.CookieName == "" {
		d.CookieName = "officechat_token"
	}
	if d.Archive == nil {
		d.Archive = store.NewMemoryArchive()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{r: chi.NewRouter(), deps: d, now: now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)         // add X-Request-ID
	s.r.Use(chimw.RealIP)            // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)           // one zerolog line per request
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(corsFor(d.ClientOrigin)) // credentials-friendly CORS

	// Websocket: long-lived, no timeout or compression.
	s.r.Get("/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(chimw.Compress(5, "application/json"))
		r.Use(jsonContentType) // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "officechat-wordbot",
				"endpoints": []string{"/health", "/auth/*", "/game/*", "/ws"},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"ok":      true,
				"clients": s.deps.Hub.ClientCount(),
			})
		})

		s.mountAuthRoutes(r)
		s.mountGameRoutes(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Handler exposes the router (for http.Server and tests).
func (s *Server) Handler() http.Handler { return s.r }

// RunTimeoutSweep ends expired rounds every interval until ctx is done.
func (s *Server) RunTimeoutSweep(ctx context.Context, interval time.Duration) {
	s.deps.Hub.RunTimeoutSweep(ctx, interval)
}

// handleWS authenticates the caller and hands the connection to the hub.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		tok = r.URL.Query().Get("token")
	}
	p, err := s.principalFor(r.Context(), tok)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
		return
	}
	s.deps.Hub.ServeWS(w, r, p)
}

// ------------------------------- helpers -----------------------------------

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
