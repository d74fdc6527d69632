// internal/httpserver/routes_auth.go
//
// Account endpoints:
//   - POST /auth/signup → create a member, set the auth cookie, return user + token
//   - POST /auth/login  → check username + passkey, set the cookie, return user + token
//   - POST /auth/logout → clear the cookie
//   - GET  /auth/me     → current principal (requires auth)
//
// The token is returned in the body too, so websocket clients can pass it as ?token=.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/officechat/wordbot/internal/auth"
)

type signupReq struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Passkey     string `json:"passkey"`
}

type loginReq struct {
	Username string `json:"username"`
	Passkey  string `json:"passkey"`
}

type authRes struct {
	User  *auth.User `json:"user"`
	Token string     `json:"token"`
}

func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.requireAuth).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r))
	})
}

// handleSignup creates a new member, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	u, err := s.deps.Auth.Signup(r.Context(), body.Username, body.DisplayName, body.Passkey)
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "username_taken", "Username taken")
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, "invalid_signup", ve.Msg)
		default:
			log.Error().Err(err).Msg("signup")
			writeError(w, http.StatusInternalServerError, "signup_failed", "Could not create account")
		}
		return
	}
	s.issueToken(w, http.StatusCreated, u)
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	u, err := s.deps.Auth.Login(r.Context(), body.Username, body.Passkey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or passkey.")
			return
		}
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "login_failed", "Could not log in")
		return
	}
	s.issueToken(w, http.StatusOK, u)
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) issueToken(w http.ResponseWriter, status int, u *auth.User) {
	tok, exp, err := s.deps.Auth.Sign(u)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed", "Could not sign token")
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, status, authRes{User: u, Token: tok})
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.cookie(token, exp, 0))
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", time.Time{}, -1))
}

func (s *Server) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.deps.SecureCookies {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     s.deps.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}
