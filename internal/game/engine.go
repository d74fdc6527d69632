// internal/game/engine.go
//
// Word-game engine: one timed round at a time over a shared letter pool.
// Responsibilities:
//   - Start a round: draw letters, precompute every formable dictionary word.
//   - Accept word submissions: validate, reject duplicates, score.
//   - End a round on command or on timeout: rank players, fold scores into
//     the all-time scoreboard, append a history record.
//   - Answer read-only status and leaderboard queries.
//
// Notes:
//   - All state lives on the Engine and is guarded by one mutex, so the host
//     may call in from any goroutine.
//   - There are no internal timers. Expiry is checked at the top of every
//     mutating call and by CheckTimeout, which the host runs on an interval.
//   - Every failure is a *Rejection and leaves state untouched.

package game

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/officechat/wordbot/internal/words"
)

// Config tunes an Engine. Zero values fall back to production defaults.
type Config struct {
	DefaultDuration time.Duration    // used when Start gets d <= 0
	LetterSets      []string         // pools for GenerateLetters; nil uses LetterSets
	Now             func() time.Time // clock; defaults to time.Now
	Letters         func() string    // letter source; defaults to GenerateLetters(LetterSets)
	NewID           func() string    // session ids; defaults to uuid.NewString
	Logger          *zerolog.Logger  // defaults to a no-op logger
}

// Engine owns the active session, the all-time scoreboard and the history log.
type Engine struct {
	mu   sync.Mutex
	dict *words.Dictionary
	cfg  Config
	log  zerolog.Logger

	current *session
	joinSeq int

	scores     map[string]*scoreRecord // identity -> record
	scoreOrder []string                // identities in first-seen order
	history    []HistoryRecord
}

// NewEngine constructs an idle engine over dict.
func NewEngine(dict *words.Dictionary, cfg Config) *Engine {
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = DefaultDuration
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Letters == nil {
		sets := cfg.LetterSets
		cfg.Letters = func() string { return GenerateLetters(sets) }
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Engine{
		dict:   dict,
		cfg:    cfg,
		log:    logger.With().Str("component", "wordgame").Logger(),
		scores: make(map[string]*scoreRecord),
	}
}

// Start begins a new round lasting d (DefaultDuration when d <= 0).
// Returns ErrAlreadyActive while a round is running. A round whose time is up
// but which has not been swept yet is finalized first and reported in
// StartResult.Expired.
func (e *Engine) Start(d time.Duration) (StartResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.cfg.Now()
	var expired *Results
	if e.current != nil {
		if !e.expiredLocked(now) {
			return StartResult{}, ErrAlreadyActive
		}
		r := e.endLocked(now, true)
		expired = &r
	}
	if d <= 0 {
		d = e.cfg.DefaultDuration
	}

	letters := strings.ToUpper(e.cfg.Letters())
	s := &session{
		id:           e.cfg.NewID(),
		letters:      letters,
		startedAt:    now,
		duration:     d,
		validWords:   FindAllValidWords(e.dict, letters),
		participants: make(map[string]*Participant),
		claimedBy:    make(map[string]int),
	}
	e.current = s

	e.log.Info().
		Str("session", s.id).
		Str("letters", letters).
		Dur("duration", d).
		Int("formable", len(s.validWords)).
		Msg("word game started")

	return StartResult{
		SessionID: s.id,
		Letters:   letters,
		Duration:  d,
		Message: fmt.Sprintf("🎮 **WORD GAME STARTED!** 🎮\n\nForm words using these letters: **%s**\nTime limit: %d seconds\nType your words in chat to submit!",
			letters, int(d/time.Second)),
		Expired: expired,
	}, nil
}

// Submit records word for the player identified by identity.
//
// Rejections, in check order:
//   - ErrNoActiveSession: no round is running.
//   - ErrSessionEnded:    the round's time is up (it stays active until swept).
//   - ErrEmptyWord:       word is blank.
//   - ErrTooShort / ErrNotInDictionary / ErrCannotForm: see Validate.
//   - ErrAlreadySubmitted: this player already claimed the word.
//   - ErrAlreadyClaimed:   another player claimed it first.
func (e *Engine) Submit(identity, displayName, word string) (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.current
	if s == nil {
		return SubmitResult{}, ErrNoActiveSession
	}
	now := e.cfg.Now()
	if e.expiredLocked(now) {
		return SubmitResult{}, ErrSessionEnded
	}
	text := strings.TrimSpace(word)
	if text == "" {
		return SubmitResult{}, ErrEmptyWord
	}
	if displayName = strings.TrimSpace(displayName); displayName == "" {
		displayName = "Anonymous"
	}

	upper := strings.ToUpper(text)
	if err := Validate(e.dict, upper, s.letters); err != nil {
		var rej *Rejection
		errors.As(err, &rej)
		e.log.Debug().Str("session", s.id).Str("word", upper).Str("reason", string(rej.Reason)).Msg("word rejected")
		return SubmitResult{}, reject(rej, "❌ %q - %s", text, rej.Message)
	}
	if idx, ok := s.claimedBy[upper]; ok {
		prior := s.submissions[idx]
		if prior.Identity == identity {
			return SubmitResult{}, reject(ErrAlreadySubmitted, "❌ You already submitted %q", text)
		}
		return SubmitResult{}, reject(ErrAlreadyClaimed, "❌ %q has already been picked by %s", text, prior.DisplayName)
	}

	p, ok := s.participants[identity]
	if !ok {
		e.joinSeq++
		p = &Participant{Identity: identity, joinOrder: e.joinSeq}
		s.participants[identity] = p
	}
	p.DisplayName = displayName

	points := Points(upper)
	p.Score += points
	p.Words = append(p.Words, upper)
	s.claimedBy[upper] = len(s.submissions)
	s.submissions = append(s.submissions, Submission{
		Identity:    identity,
		DisplayName: displayName,
		Word:        upper,
		Points:      points,
		At:          now,
	})

	return SubmitResult{
		Word:    upper,
		Points:  points,
		Total:   p.Score,
		Message: fmt.Sprintf("✅ %q (+%d points) | Total: %d", text, points, p.Score),
	}, nil
}

// End finishes the running round. Returns ErrNoActiveSession when idle.
func (e *Engine) End() (Results, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return Results{}, reject(ErrNoActiveSession, "No active game to end")
	}
	return e.endLocked(e.cfg.Now(), false), nil
}

// CheckTimeout ends the running round if its time is up. ok is false when
// nothing happened (idle, or time remaining). Safe to call on any interval.
func (e *Engine) CheckTimeout() (res Results, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.cfg.Now()
	if e.current == nil || !e.expiredLocked(now) {
		return Results{}, false
	}
	return e.endLocked(now, true), true
}

// Status reports the engine state without side effects.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.current
	if s == nil {
		return Status{}
	}
	remaining := s.duration - e.cfg.Now().Sub(s.startedAt)
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Active:           true,
		SessionID:        s.id,
		Letters:          s.letters,
		Remaining:        remaining,
		Participants:     s.standings(),
		TotalSubmissions: len(s.submissions),
	}
}

// History returns the finished-session log, oldest first.
func (e *Engine) History() []HistoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

func (e *Engine) expiredLocked(now time.Time) bool {
	return e.current != nil && now.Sub(e.current.startedAt) >= e.current.duration
}

// endLocked promotes the current session into the scoreboard and history and
// returns to idle. Caller holds e.mu and guarantees e.current != nil.
func (e *Engine) endLocked(now time.Time, timedOut bool) Results {
	s := e.current
	standings := s.standings()

	for _, st := range standings {
		e.addScoreLocked(st.Identity, st.DisplayName, st.Score)
	}

	e.history = append(e.history, HistoryRecord{
		SessionID:        s.id,
		Letters:          s.letters,
		Participants:     standings,
		StartedAt:        s.startedAt,
		EndedAt:          now,
		TotalSubmissions: len(s.submissions),
	})
	e.current = nil

	e.log.Info().
		Str("session", s.id).
		Int("players", len(standings)).
		Int("submissions", len(s.submissions)).
		Bool("timed_out", timedOut).
		Msg("word game ended")

	return Results{
		SessionID:      s.id,
		Letters:        s.letters,
		Leaderboard:    standings,
		TotalWords:     len(s.submissions),
		ValidWords:     slices.Clone(s.validWords),
		ValidWordCount: len(s.validWords),
		StartedAt:      s.startedAt,
		EndedAt:        now,
		TimedOut:       timedOut,
	}
}

// addScoreLocked merges score into the identity's all-time record, keeping
// the latest display name.
func (e *Engine) addScoreLocked(identity, displayName string, score int) {
	rec, ok := e.scores[identity]
	if !ok {
		rec = &scoreRecord{}
		e.scores[identity] = rec
		e.scoreOrder = append(e.scoreOrder, identity)
	}
	rec.score += score
	rec.displayName = displayName
}

// standings ranks participants by score, highest first. Equal scores keep
// join order (whoever scored first in the round ranks first).
func (s *session) standings() []Standing {
	ps := lo.Values(s.participants)
	slices.SortFunc(ps, func(a, b *Participant) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.joinOrder, b.joinOrder)
	})
	return lo.Map(ps, func(p *Participant, _ int) Standing {
		return Standing{
			Identity:    p.Identity,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Words:       slices.Clone(p.Words),
		}
	})
}
