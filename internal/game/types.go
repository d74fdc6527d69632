// internal/game/types.go
//
// Core type definitions for the word-game engine.
// Defines:
//   - session/participant/submission state held while a round is active.
//   - result shapes returned to the host (start, submit, end, status).
//   - all-time scoreboard and history records kept across rounds.

package game

import "time"

// DefaultDuration is the round length used when the host does not ask for one.
const DefaultDuration = 120 * time.Second

// Participant is a player's running state inside one session.
type Participant struct {
	Identity    string
	DisplayName string
	Score       int
	Words       []string // claimed words, in submission order
	joinOrder   int
}

// Submission is one accepted word. Submissions are append-only.
type Submission struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"displayName"`
	Word        string    `json:"word"`
	Points      int       `json:"points"`
	At          time.Time `json:"at"`
}

// session is the single active round. It exists only while the engine is Active.
type session struct {
	id           string
	letters      string
	startedAt    time.Time
	duration     time.Duration
	validWords   []string // precomputed at start, never recomputed
	participants map[string]*Participant
	submissions  []Submission
	claimedBy    map[string]int // word -> index into submissions
}

// Standing is a participant as shown in rankings.
type Standing struct {
	Identity    string   `json:"identity"`
	DisplayName string   `json:"displayName"`
	Score       int      `json:"score"`
	Words       []string `json:"words"`
}

// StartResult is returned by a successful Start.
type StartResult struct {
	SessionID string        `json:"sessionId"`
	Letters   string        `json:"letters"`
	Duration  time.Duration `json:"-"`
	Message   string        `json:"message"`

	// Expired holds the results of a previous round that had run out of time
	// but had not been swept yet. Start finalizes it before beginning.
	Expired *Results `json:"-"`
}

// SubmitResult is returned by an accepted word.
type SubmitResult struct {
	Word    string `json:"word"`
	Points  int    `json:"points"`
	Total   int    `json:"totalScore"`
	Message string `json:"message"`
}

// Results summarizes a finished session.
type Results struct {
	SessionID      string     `json:"sessionId"`
	Letters        string     `json:"letters"`
	Leaderboard    []Standing `json:"leaderboard"`
	TotalWords     int        `json:"totalWords"`
	ValidWords     []string   `json:"validWords"`
	ValidWordCount int        `json:"validWordCount"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        time.Time  `json:"endedAt"`
	TimedOut       bool       `json:"timedOut"`
}

// Status is a read-only snapshot of the engine.
type Status struct {
	Active           bool          `json:"active"`
	SessionID        string        `json:"sessionId,omitempty"`
	Letters          string        `json:"letters,omitempty"`
	Remaining        time.Duration `json:"-"`
	Participants     []Standing    `json:"participants,omitempty"`
	TotalSubmissions int           `json:"totalSubmissions"`
}

// HistoryRecord is the immutable snapshot kept for every finished session.
type HistoryRecord struct {
	SessionID        string     `json:"sessionId"`
	Letters          string     `json:"letters"`
	Participants     []Standing `json:"participants"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          time.Time  `json:"endedAt"`
	TotalSubmissions int        `json:"totalSubmissions"`
}

// ScoreEntry is an all-time scoreboard row keyed by identity.
type ScoreEntry struct {
	Identity    string
	DisplayName string
	Score       int
}

// LeaderboardEntry is an all-time leaderboard row after display-name consolidation.
type LeaderboardEntry struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// scoreRecord is the uniform scoreboard value: identity -> {score, displayName}.
type scoreRecord struct {
	displayName string
	score       int
}
