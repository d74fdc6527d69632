package game

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// AllTimeLimit is how many rows AllTimeLeaderboard returns.
const AllTimeLimit = 10

// DemoScores is the sample scoreboard the chat ships with for demos.
var DemoScores = []ScoreEntry{
	{Identity: "demo-user-1", DisplayName: "Demo", Score: 45},
	{Identity: "demo-user-2", DisplayName: "Vyborg", Score: 38},
	{Identity: "demo-user-3", DisplayName: "TestPlayer", Score: 32},
	{Identity: "demo-user-4", DisplayName: "WordMaster", Score: 28},
	{Identity: "demo-user-5", DisplayName: "GameFan", Score: 22},
}

// Seed adds entries to the all-time scoreboard as if they had been earned in
// earlier rounds.
func (e *Engine) Seed(entries ...ScoreEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, en := range entries {
		e.addScoreLocked(en.Identity, en.DisplayName, en.Score)
	}
}

// AllTimeLeaderboard returns the top AllTimeLimit players across all rounds.
//
// Rows are consolidated by display name, not identity: identities are
// per-connection and display names are what people recognise. Two distinct
// identities sharing a name therefore share one row. The row keeps the first
// identity seen for that name.
func (e *Engine) AllTimeLeaderboard() []LeaderboardEntry {
	e.mu.Lock()
	entries := lo.Map(e.scoreOrder, func(id string, _ int) ScoreEntry {
		rec := e.scores[id]
		return ScoreEntry{Identity: id, DisplayName: rec.displayName, Score: rec.score}
	})
	e.mu.Unlock()

	return Consolidate(entries, AllTimeLimit)
}

// Consolidate sums entries per display name, sorts by score descending and
// keeps the top limit rows (limit <= 0 keeps all). Ties keep first-seen order.
func Consolidate(entries []ScoreEntry, limit int) []LeaderboardEntry {
	index := make(map[string]int, len(entries))
	out := make([]LeaderboardEntry, 0, len(entries))
	for _, en := range entries {
		if i, ok := index[en.DisplayName]; ok {
			out[i].Score += en.Score
			continue
		}
		index[en.DisplayName] = len(out)
		out = append(out, LeaderboardEntry{
			Identity:    en.Identity,
			DisplayName: en.DisplayName,
			Score:       en.Score,
		})
	}
	slices.SortStableFunc(out, func(a, b LeaderboardEntry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
