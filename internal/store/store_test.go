package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/officechat/wordbot/assets"
	"github.com/officechat/wordbot/internal/game"
)

func openTestDB(t *testing.T) *SQLArchive {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db, assets.Migrations()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewSQLArchive(db)
}

// archives runs fn against every Archive implementation.
func archives(t *testing.T, fn func(t *testing.T, a Archive)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryArchive()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openTestDB(t)) })
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func results(id string, endedAt time.Time, standings ...game.Standing) game.Results {
	total := 0
	for _, s := range standings {
		total += len(s.Words)
	}
	return game.Results{
		SessionID:   id,
		Letters:     "AEIOULMNSTR",
		Leaderboard: standings,
		TotalWords:  total,
		StartedAt:   endedAt.Add(-2 * time.Minute),
		EndedAt:     endedAt,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	a := openTestDB(t)
	if err := Migrate(a.db, assets.Migrations()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("recorded migrations = %d", n)
	}
}

func TestIsMemoryDSN(t *testing.T) {
	cases := map[string]bool{
		DefaultDSN:         true,
		":memory:":         true,
		"./data/app.db":    false,
		"file:data/app.db": false,
	}
	for dsn, want := range cases {
		if got := IsMemoryDSN(dsn); got != want {
			t.Errorf("IsMemoryDSN(%q) = %v", dsn, got)
		}
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	archives(t, func(t *testing.T, a Archive) {
		ctx := context.Background()
		r := results("s1", base,
			game.Standing{Identity: "u1", DisplayName: "Alice", Score: 10, Words: []string{"RATS", "STAR"}},
			game.Standing{Identity: "u2", DisplayName: "Bob", Score: 3, Words: []string{"TEA"}},
		)
		if err := a.SaveSession(ctx, r); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
		if err := a.SaveSession(ctx, r); !errors.Is(err, ErrDuplicateSession) {
			t.Fatalf("duplicate save: err = %v", err)
		}

		got, err := a.RecentSessions(ctx, 10)
		if err != nil {
			t.Fatalf("RecentSessions: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("sessions = %+v", got)
		}
		h := got[0]
		if h.SessionID != "s1" || h.TotalSubmissions != 3 || !h.EndedAt.Equal(base) || !h.StartedAt.Equal(r.StartedAt) {
			t.Fatalf("record = %+v", h)
		}
		if len(h.Participants) != 2 || h.Participants[0].DisplayName != "Alice" || h.Participants[1].Words[0] != "TEA" {
			t.Fatalf("participants = %+v", h.Participants)
		}
	})
}

func TestRecentSessionsNewestFirst(t *testing.T) {
	archives(t, func(t *testing.T, a Archive) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			if err := a.SaveSession(ctx, results(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatal(err)
			}
		}
		got, err := a.RecentSessions(ctx, 3)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 || got[0].SessionID != "s4" || got[2].SessionID != "s2" {
			t.Fatalf("order = %+v", got)
		}
	})
}

func TestDailyLeaderboard(t *testing.T) {
	archives(t, func(t *testing.T, a Archive) {
		ctx := context.Background()
		save := func(r game.Results) {
			t.Helper()
			if err := a.SaveSession(ctx, r); err != nil {
				t.Fatal(err)
			}
		}
		save(results("morning", base,
			game.Standing{Identity: "c1", DisplayName: "Sam", Score: 6},
			game.Standing{Identity: "c2", DisplayName: "Kim", Score: 8},
		))
		save(results("noon", base.Add(3*time.Hour),
			game.Standing{Identity: "c3", DisplayName: "Sam", Score: 5},
		))
		save(results("tomorrow", base.Add(24*time.Hour),
			game.Standing{Identity: "c4", DisplayName: "Kim", Score: 50},
		))

		lb, err := a.DailyLeaderboard(ctx, "2024-03-01", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(lb) != 2 {
			t.Fatalf("rows = %+v", lb)
		}
		if lb[0].DisplayName != "Sam" || lb[0].Score != 11 || lb[0].Identity != "c1" {
			t.Fatalf("first row = %+v", lb[0])
		}
		if lb[1].DisplayName != "Kim" || lb[1].Score != 8 {
			t.Fatalf("second row = %+v", lb[1])
		}

		empty, err := a.DailyLeaderboard(ctx, "2020-01-01", 10)
		if err != nil || len(empty) != 0 {
			t.Fatalf("empty day: %+v, %v", empty, err)
		}
	})
}
