// internal/realtime/hub.go
//
// The chat room: every websocket client plus the word-game engine they share.
// Responsibilities:
//   - Register/unregister clients; broadcast presence on every change.
//   - Privileged game commands (start/end) gated to superadmins.
//   - Word submissions from websocket or REST callers, with the score update
//     broadcast to the whole room.
//   - Timeout sweeps: end expired rounds and announce them.
//   - Archive every finished round.
//
// REST handlers call the same methods, so both transports see identical
// broadcasts.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/officechat/wordbot/internal/auth"
	"github.com/officechat/wordbot/internal/game"
	"github.com/officechat/wordbot/internal/store"
)

var (
	ErrStartForbidden = errors.New("realtime: starting a game requires superadmin")
	ErrEndForbidden   = errors.New("realtime: ending a game requires superadmin")
)

// archiveTimeout bounds one archive write of a finished round.
const archiveTimeout = 5 * time.Second

// ForbiddenMessage returns the text shown to a player refused a privileged
// command, or "" when err is not a privilege error.
func ForbiddenMessage(err error) string {
	switch {
	case errors.Is(err, ErrStartForbidden):
		return "Only superadmin can start games"
	case errors.Is(err, ErrEndForbidden):
		return "Only superadmin can end games"
	default:
		return ""
	}
}

// Options tunes a Hub.
type Options struct {
	RPS           float64 // websocket commands per second per connection
	Burst         int
	AllowedOrigin string // empty accepts any Origin
	Logger        *zerolog.Logger
}

// Hub owns connected clients and drives the engine on their behalf.
type Hub struct {
	engine   *game.Engine
	archive  store.Archive
	opts     Options
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client // keyed by connection identity
}

// NewHub constructs a Hub. archive may be nil to skip archiving.
func NewHub(engine *game.Engine, archive store.Archive, opts Options) *Hub {
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	h := &Hub{
		engine:  engine,
		archive: archive,
		opts:    opts,
		log:     logger.With().Str("component", "realtime").Logger(),
		clients: make(map[string]*Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return h.opts.AllowedOrigin == "" || origin == "" || origin == h.opts.AllowedOrigin
}

// Engine exposes the shared engine for read-only queries.
func (h *Hub) Engine() *game.Engine { return h.engine }

// ServeWS upgrades r and runs a client for p until the connection closes.
// Each connection gets a fresh identity, so one user in two tabs plays as two
// participants that share a display name.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(h, conn, uuid.NewString(), p,
		rate.NewLimiter(rate.Limit(h.opts.RPS), h.opts.Burst))
	h.register(c)
	h.log.Info().Str("identity", c.identity).Str("user", p.Username).Msg("websocket connected")

	c.send(NewServerMessage(MsgConnected, ConnectedPayload{
		Identity:    c.identity,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		Status:      NewStatusPayload(h.engine.Status()),
	}))
	h.broadcastPresence()

	c.run()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.identity] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.identity]
	delete(h.clients, c.identity)
	h.mu.Unlock()
	if ok {
		h.log.Info().Str("identity", c.identity).Msg("websocket disconnected")
		h.broadcastPresence()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends one frame to every connected client.
func (h *Hub) Broadcast(t MessageType, payload any) {
	data, err := json.Marshal(NewServerMessage(t, payload))
	if err != nil {
		h.log.Error().Err(err).Str("type", string(t)).Msg("encode broadcast")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.sendRaw(data)
	}
}

func (h *Hub) broadcastPresence() {
	h.mu.RLock()
	names := make([]string, 0, len(h.clients))
	for _, c := range h.clients {
		names = append(names, c.principal.DisplayName)
	}
	h.mu.RUnlock()
	sort.Strings(names)
	h.Broadcast(MsgPresence, PresencePayload{Count: len(names), Online: names})
}

// Start begins a round on behalf of p and announces it. An expired round that
// Start had to finalize is announced first.
func (h *Hub) Start(ctx context.Context, p *auth.Principal, d time.Duration) (game.StartResult, error) {
	if !p.IsSuperadmin() {
		return game.StartResult{}, ErrStartForbidden
	}
	res, err := h.engine.Start(d)
	if err != nil {
		return game.StartResult{}, err
	}
	if res.Expired != nil {
		h.finish(ctx, *res.Expired)
	}
	h.Broadcast(MsgGameStarted, GameStartedPayload{
		SessionID:  res.SessionID,
		Letters:    res.Letters,
		DurationMs: res.Duration.Milliseconds(),
		Message:    res.Message,
	})
	return res, nil
}

// End finishes the running round on behalf of p.
func (h *Hub) End(ctx context.Context, p *auth.Principal) (game.Results, error) {
	if !p.IsSuperadmin() {
		return game.Results{}, ErrEndForbidden
	}
	res, err := h.engine.End()
	if err != nil {
		return game.Results{}, err
	}
	h.finish(ctx, res)
	return res, nil
}

// Submit records a word and, on success, broadcasts the score update.
func (h *Hub) Submit(ctx context.Context, identity, displayName, word string) (game.SubmitResult, error) {
	res, err := h.engine.Submit(identity, displayName, word)
	if err != nil {
		return game.SubmitResult{}, err
	}
	h.Broadcast(MsgGameScoreUpdate, ScoreUpdatePayload{
		DisplayName: displayName,
		Word:        res.Word,
		Points:      res.Points,
		TotalScore:  res.Total,
	})
	return res, nil
}

// Sweep ends the running round if its time is up. Reports whether it did.
func (h *Hub) Sweep(ctx context.Context) bool {
	res, ok := h.engine.CheckTimeout()
	if !ok {
		return false
	}
	h.finish(ctx, res)
	return true
}

// RunTimeoutSweep calls Sweep every interval until ctx is done.
func (h *Hub) RunTimeoutSweep(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Sweep(ctx)
		}
	}
}

// finish archives a finished round and announces it. The engine has already
// cleared the round, so the write ignores cancellation of ctx.
func (h *Hub) finish(ctx context.Context, res game.Results) {
	if h.archive != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		defer cancel()
		if err := h.archive.SaveSession(saveCtx, res); err != nil {
			h.log.Warn().Err(err).Str("session", res.SessionID).Msg("archive session")
		}
	}
	h.Broadcast(MsgGameEnded, res)
}
