// internal/store/memory.go
//
// Archive of finished word-game sessions, plus its in-memory implementation.
//
// Characteristics of the memory archive:
//   - Keeps every saved session in insertion order.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Saving the same session id twice is an error.

package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/officechat/wordbot/internal/daily"
	"github.com/officechat/wordbot/internal/game"
)

// DefaultHistoryLimit applies when RecentSessions gets limit <= 0.
const DefaultHistoryLimit = 20

// ErrDuplicateSession is returned when a session id was already archived.
var ErrDuplicateSession = errors.New("session already archived")

// Archive persists finished sessions for history and per-day leaderboards.
// Implementations may be backed by memory (this file) or SQL (sqlite.go).
type Archive interface {
	// SaveSession stores the final results of one session.
	SaveSession(ctx context.Context, r game.Results) error

	// RecentSessions returns up to limit sessions, most recently ended first.
	// limit <= 0 means DefaultHistoryLimit.
	RecentSessions(ctx context.Context, limit int) ([]game.HistoryRecord, error)

	// DailyLeaderboard sums scores per display name over sessions that ended
	// on day (YYYY-MM-DD, UTC) and returns the top limit rows.
	DailyLeaderboard(ctx context.Context, day string, limit int) ([]game.LeaderboardEntry, error)
}

// memory is a slice-backed Archive.
type memory struct {
	mu       sync.RWMutex
	sessions []game.HistoryRecord // in save order
	ids      map[string]struct{}
}

// NewMemoryArchive constructs an empty in-memory Archive.
func NewMemoryArchive() Archive {
	return &memory{ids: make(map[string]struct{})}
}

func (m *memory) SaveSession(ctx context.Context, r game.Results) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.ids[r.SessionID]; dup {
		return ErrDuplicateSession
	}
	m.ids[r.SessionID] = struct{}{}
	m.sessions = append(m.sessions, recordFromResults(r))
	return nil
}

func (m *memory) RecentSessions(ctx context.Context, limit int) ([]game.HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.sessions)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b game.HistoryRecord) int {
		return b.EndedAt.Compare(a.EndedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) DailyLeaderboard(ctx context.Context, day string, limit int) ([]game.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []game.ScoreEntry
	for _, s := range m.sessions {
		if daily.DateKey(s.EndedAt) != day {
			continue
		}
		for _, p := range s.Participants {
			entries = append(entries, game.ScoreEntry{
				Identity:    p.Identity,
				DisplayName: p.DisplayName,
				Score:       p.Score,
			})
		}
	}
	return game.Consolidate(entries, limit), nil
}

func recordFromResults(r game.Results) game.HistoryRecord {
	return game.HistoryRecord{
		SessionID:        r.SessionID,
		Letters:          r.Letters,
		Participants:     slices.Clone(r.Leaderboard),
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
		TotalSubmissions: r.TotalWords,
	}
}
