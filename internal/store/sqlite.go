// internal/store/sqlite.go
//
// SQL-backed Archive over the game_sessions / game_results tables.
//
// Notes:
//   - Timestamps are stored as fixed-width UTC text so they sort lexically.
//   - Each result row keeps its rank, so standings come back in order.
//   - Rows are always fully drained before the next query: in-memory
//     databases run on a single connection.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/officechat/wordbot/internal/daily"
	"github.com/officechat/wordbot/internal/game"
)

// SQLArchive implements Archive on a *sql.DB migrated with the embedded schema.
type SQLArchive struct{ db *sql.DB }

// NewSQLArchive wraps db. The schema must already be migrated.
func NewSQLArchive(db *sql.DB) *SQLArchive { return &SQLArchive{db: db} }

func (s *SQLArchive) SaveSession(ctx context.Context, r game.Results) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO game_sessions (id, letters, started_at, ended_at, day, total_submissions)
        VALUES (?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Letters, formatTime(r.StartedAt), formatTime(r.EndedAt),
		daily.DateKey(r.EndedAt), r.TotalWords,
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert session: %w", err)
	}

	for i, p := range r.Leaderboard {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO game_results (session_id, rank, identity, display_name, score, words)
            VALUES (?, ?, ?, ?, ?, ?)`,
			r.SessionID, i+1, p.Identity, p.DisplayName, p.Score, strings.Join(p.Words, ","),
		); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLArchive) RecentSessions(ctx context.Context, limit int) ([]game.HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, letters, started_at, ended_at, total_submissions
        FROM game_sessions
        ORDER BY ended_at DESC, rowid DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}

	out := make([]game.HistoryRecord, 0, limit)
	for rows.Next() {
		var (
			h                game.HistoryRecord
			started, stopped string
		)
		if err := rows.Scan(&h.SessionID, &h.Letters, &started, &stopped, &h.TotalSubmissions); err != nil {
			rows.Close()
			return nil, err
		}
		if h.StartedAt, err = parseTime(started); err != nil {
			rows.Close()
			return nil, err
		}
		if h.EndedAt, err = parseTime(stopped); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		standings, err := s.standings(ctx, out[i].SessionID)
		if err != nil {
			return nil, err
		}
		out[i].Participants = standings
	}
	return out, nil
}

func (s *SQLArchive) standings(ctx context.Context, sessionID string) ([]game.Standing, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT identity, display_name, score, words
        FROM game_results
        WHERE session_id=?
        ORDER BY rank ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Standing
	for rows.Next() {
		var (
			st    game.Standing
			words string
		)
		if err := rows.Scan(&st.Identity, &st.DisplayName, &st.Score, &words); err != nil {
			return nil, err
		}
		if words != "" {
			st.Words = strings.Split(words, ",")
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLArchive) DailyLeaderboard(ctx context.Context, day string, limit int) ([]game.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT r.identity, r.display_name, r.score
        FROM game_results r
        JOIN game_sessions s ON s.id = r.session_id
        WHERE s.day=?
        ORDER BY s.ended_at ASC, s.rowid ASC, r.rank ASC`, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []game.ScoreEntry
	for rows.Next() {
		var e game.ScoreEntry
		if err := rows.Scan(&e.Identity, &e.DisplayName, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return game.Consolidate(entries, limit), nil
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
