package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/officechat/wordbot/internal/auth"
	"github.com/officechat/wordbot/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	maxChatLength = 1000
)

// Client is one websocket connection. Its identity is the participant key
// used for every submission it makes.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	identity  string
	principal *auth.Principal
	limiter   *rate.Limiter

	out    chan []byte
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, identity string, p *auth.Principal, lim *rate.Limiter) *Client {
	return &Client{
		hub:       h,
		conn:      conn,
		identity:  identity,
		principal: p,
		limiter:   lim,
		out:       make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// send encodes and queues one frame for this client.
func (c *Client) send(msg *ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Error().Err(err).Str("type", string(msg.Type)).Msg("encode message")
		return
	}
	c.sendRaw(data)
}

// sendRaw queues an encoded frame. Frames are dropped when the buffer is full
// or the client is closed.
func (c *Client) sendRaw(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- data:
	default:
		c.hub.log.Warn().Str("identity", c.identity).Msg("send buffer full, message dropped")
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.conn.Close()
	c.hub.unregister(c)
}

func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the websocket connection.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Str("identity", c.identity).Msg("websocket read error")
			}
			return
		}
		if !c.limiter.Allow() {
			c.sendError(ErrCodeRateLimited, "Slow down")
			continue
		}
		c.handleMessage(data)
	}
}

// writePump pumps queued frames to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case MsgStartGame:
		c.handleStartGame(ctx, msg.Payload)
	case MsgEndGame:
		if _, err := c.hub.End(ctx, c.principal); err != nil {
			c.sendGameError(err)
		}
	case MsgSubmitWord:
		c.handleSubmitWord(ctx, msg.Payload)
	case MsgGetStatus:
		c.send(NewServerMessage(MsgGameStatus, NewStatusPayload(c.hub.engine.Status())))
	case MsgGetLeaderboard:
		c.send(NewServerMessage(MsgGameLeaderboard, LeaderboardPayload{Entries: c.hub.engine.AllTimeLeaderboard()}))
	case MsgChat:
		c.handleChat(msg.Payload)
	case MsgPing:
		c.send(NewServerMessage(MsgPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

func (c *Client) handleStartGame(ctx context.Context, raw json.RawMessage) {
	var p StartGamePayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			c.sendError(ErrCodeInvalidMessage, "Invalid payload")
			return
		}
	}
	d, err := DurationFromMs(p.DurationMs)
	if err != nil {
		c.sendError(ErrCodeInvalidMessage, err.Error())
		return
	}
	if _, err := c.hub.Start(ctx, c.principal, d); err != nil {
		c.sendGameError(err)
	}
}

func (c *Client) handleSubmitWord(ctx context.Context, raw json.RawMessage) {
	var p SubmitWordPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	res, err := c.hub.Submit(ctx, c.identity, c.principal.DisplayName, p.Word)
	if err != nil {
		var rej *game.Rejection
		if !errors.As(err, &rej) {
			c.sendError(ErrCodeInternal, err.Error())
			return
		}
		c.send(NewServerMessage(MsgGameSubmission, SubmissionPayload{
			Success: false,
			Reason:  string(rej.Reason),
			Message: rej.Message,
		}))
		return
	}
	c.send(NewServerMessage(MsgGameSubmission, SubmissionPayload{
		Success:    true,
		Word:       res.Word,
		Points:     res.Points,
		TotalScore: res.Total,
		Message:    res.Message,
	}))
}

func (c *Client) handleChat(raw json.RawMessage) {
	var p ChatPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}
	text := strings.TrimSpace(p.Text)
	if text == "" || utf8.RuneCountInString(text) > maxChatLength {
		c.sendError(ErrCodeInvalidMessage, "Message must be 1–1000 characters")
		return
	}
	c.hub.Broadcast(MsgChat, ChatBroadcastPayload{
		ID:          uuid.NewString(),
		Identity:    c.identity,
		DisplayName: c.principal.DisplayName,
		Text:        text,
	})
}

// sendGameError maps a hub error onto a game_error frame.
func (c *Client) sendGameError(err error) {
	var rej *game.Rejection
	switch {
	case errors.As(err, &rej):
		c.sendError(string(rej.Reason), rej.Message)
	case ForbiddenMessage(err) != "":
		c.sendError(ErrCodeForbidden, ForbiddenMessage(err))
	default:
		c.sendError(ErrCodeInternal, err.Error())
	}
}

func (c *Client) sendError(code, message string) {
	c.send(NewServerMessage(MsgGameError, ErrorPayload{Code: code, Message: message}))
}
