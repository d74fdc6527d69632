// internal/httpserver/routes_game.go
//
// Word-game endpoints under /game:
//   - GET  /game/status            → current round (or {active:false})
//   - GET  /game/leaderboard       → all-time top 10
//   - GET  /game/history?limit=    → archived rounds, newest first
//   - GET  /game/leaderboard/daily?date=YYYY-MM-DD → per-day totals (default today, UTC)
//   - POST /game/start {durationMs} → superadmin only
//   - POST /game/end                → superadmin only
//   - POST /game/words {word}       → any signed-in user; identity is the user id
//
// Commands go through the realtime hub, so websocket clients see the same
// game_started / game_score_update / game_ended broadcasts.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/officechat/wordbot/internal/daily"
	"github.com/officechat/wordbot/internal/game"
	"github.com/officechat/wordbot/internal/realtime"
)

const maxHistoryLimit = 100

func (s *Server) mountGameRoutes(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/leaderboard/daily", s.handleDailyLeaderboard)
		r.Get("/history", s.handleHistory)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/start", s.handleStart)
			r.Post("/end", s.handleEnd)
			r.Post("/words", s.handleSubmit)
		})
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, realtime.NewStatusPayload(s.deps.Hub.Engine().Status()))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, realtime.LeaderboardPayload{Entries: s.deps.Hub.Engine().AllTimeLeaderboard()})
}

// dailyRes is returned by /game/leaderboard/daily.
type dailyRes struct {
	Date string                  `json:"date"`
	Top  []game.LeaderboardEntry `json:"top"`
}

// handleDailyLeaderboard returns per-name totals for the given date (default today).
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	date, err := daily.ParseDateKey(r.URL.Query().Get("date"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}
	rows, err := s.deps.Archive.DailyLeaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error", "Could not load leaderboard")
		return
	}
	if rows == nil {
		rows = []game.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, dailyRes{Date: date, Top: rows})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	out, err := s.deps.Archive.RecentSessions(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("history")
		writeError(w, http.StatusInternalServerError, "server_error", "Could not load history")
		return
	}
	if out == nil {
		out = []game.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, out)
}

type startReq struct {
	DurationMs int64 `json:"durationMs"`
}

type startRes struct {
	SessionID  string `json:"sessionId"`
	Letters    string `json:"letters"`
	DurationMs int64  `json:"durationMs"`
	Message    string `json:"message"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var body startReq
	// An empty body means the default duration.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	d, err := realtime.DurationFromMs(body.DurationMs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
		return
	}
	res, err := s.deps.Hub.Start(r.Context(), currentUser(r), d)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, startRes{
		SessionID:  res.SessionID,
		Letters:    res.Letters,
		DurationMs: res.Duration.Milliseconds(),
		Message:    res.Message,
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Hub.End(r.Context(), currentUser(r))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type submitReq struct {
	Word string `json:"word"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body submitReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	me := currentUser(r)
	res, err := s.deps.Hub.Submit(r.Context(), me.ID, me.DisplayName, body.Word)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeGameError maps hub and engine errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	var rej *game.Rejection
	switch {
	case realtime.ForbiddenMessage(err) != "":
		writeError(w, http.StatusForbidden, "forbidden", realtime.ForbiddenMessage(err))
	case errors.As(err, &rej):
		writeError(w, rejectionStatus(rej.Reason), string(rej.Reason), rej.Message)
	default:
		log.Error().Err(err).Msg("game command")
		writeError(w, http.StatusInternalServerError, "server_error", "Internal error")
	}
}

// rejectionStatus: state conflicts are 409, bad words are 400.
func rejectionStatus(reason game.Reason) int {
	switch reason {
	case game.ReasonEmptyWord, game.ReasonTooShort, game.ReasonNotInDictionary, game.ReasonCannotForm:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}
