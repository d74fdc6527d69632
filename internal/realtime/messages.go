package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/officechat/wordbot/internal/game"
)

// MessageType names a websocket frame.
type MessageType string

// Client → Server message types
const (
	MsgStartGame      MessageType = "start_game"
	MsgEndGame        MessageType = "end_game"
	MsgSubmitWord     MessageType = "submit_word"
	MsgGetStatus      MessageType = "get_status"
	MsgGetLeaderboard MessageType = "get_leaderboard"
	MsgChat           MessageType = "chat_message"
	MsgPing           MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected       MessageType = "connected"
	MsgGameStarted     MessageType = "game_started"
	MsgGameEnded       MessageType = "game_ended"
	MsgGameSubmission  MessageType = "game_submission"
	MsgGameScoreUpdate MessageType = "game_score_update"
	MsgGameStatus      MessageType = "game_status"
	MsgGameLeaderboard MessageType = "game_leaderboard"
	MsgGameError       MessageType = "game_error"
	MsgPresence        MessageType = "presence"
	MsgPong            MessageType = "pong"
)

// Error codes carried by game_error besides engine rejection reasons.
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeForbidden      = "forbidden"
	ErrCodeInternal       = "internal_error"
)

// ClientMessage is a frame from client to server.
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is a frame from server to client.
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage stamps a frame with the current time.
func NewServerMessage(t MessageType, payload any) *ServerMessage {
	return &ServerMessage{
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// MaxDurationMs is the longest round a client may ask for (one day).
const MaxDurationMs = int64(24 * time.Hour / time.Millisecond)

// ErrDurationTooLong rejects a requested round longer than MaxDurationMs.
var ErrDurationTooLong = fmt.Errorf("durationMs must be at most %d", MaxDurationMs)

// DurationFromMs converts a requested round length. ms <= 0 returns 0, which
// the engine treats as its default duration.
func DurationFromMs(ms int64) (time.Duration, error) {
	switch {
	case ms <= 0:
		return 0, nil
	case ms > MaxDurationMs:
		return 0, ErrDurationTooLong
	default:
		return time.Duration(ms) * time.Millisecond, nil
	}
}

// Client message payloads

type StartGamePayload struct {
	DurationMs int64 `json:"durationMs"`
}

type SubmitWordPayload struct {
	Word string `json:"word"`
}

type ChatPayload struct {
	Text string `json:"text"`
}

// Server message payloads

type ConnectedPayload struct {
	Identity    string        `json:"identity"`
	DisplayName string        `json:"displayName"`
	Role        string        `json:"role"`
	Status      StatusPayload `json:"status"`
}

type GameStartedPayload struct {
	SessionID  string `json:"sessionId"`
	Letters    string `json:"letters"`
	DurationMs int64  `json:"durationMs"`
	Message    string `json:"message"`
}

type SubmissionPayload struct {
	Success    bool   `json:"success"`
	Word       string `json:"word,omitempty"`
	Points     int    `json:"points,omitempty"`
	TotalScore int    `json:"totalScore,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Message    string `json:"message"`
}

type ScoreUpdatePayload struct {
	DisplayName string `json:"displayName"`
	Word        string `json:"word"`
	Points      int    `json:"points"`
	TotalScore  int    `json:"totalScore"`
}

type StatusPayload struct {
	Active           bool            `json:"active"`
	SessionID        string          `json:"sessionId,omitempty"`
	Letters          string          `json:"letters,omitempty"`
	TimeLeftMs       int64           `json:"timeLeftMs"`
	Participants     []game.Standing `json:"participants"`
	TotalSubmissions int             `json:"totalSubmissions"`
}

type LeaderboardPayload struct {
	Entries []game.LeaderboardEntry `json:"entries"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ChatBroadcastPayload struct {
	ID          string `json:"id"`
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	Text        string `json:"text"`
}

type PresencePayload struct {
	Count  int      `json:"count"`
	Online []string `json:"online"`
}

// NewStatusPayload flattens an engine status for the wire.
func NewStatusPayload(st game.Status) StatusPayload {
	return StatusPayload{
		Active:           st.Active,
		SessionID:        st.SessionID,
		Letters:          st.Letters,
		TimeLeftMs:       st.Remaining.Milliseconds(),
		Participants:     lo.Ternary(st.Participants == nil, []game.Standing{}, st.Participants),
		TotalSubmissions: st.TotalSubmissions,
	}
}
