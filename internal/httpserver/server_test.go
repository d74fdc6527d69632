package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/officechat/wordbot/assets"
	"github.com/officechat/wordbot/internal/auth"
	"github.com/officechat/wordbot/internal/game"
	"github.com/officechat/wordbot/internal/realtime"
	"github.com/officechat/wordbot/internal/store"
	"github.com/officechat/wordbot/internal/words"
)

type testEnv struct {
	srv        *httptest.Server
	adminToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := store.Open(fmt.Sprintf("file:http_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db, assets.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	authSvc := auth.NewService(db, "test-secret", 1)
	admin, err := authSvc.EnsureUser(context.Background(), "boss", "Boss", "4321", auth.RoleSuperadmin)
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	adminToken, _, err := authSvc.Sign(admin)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	engine := game.NewEngine(words.New([]string{"RATS", "STAR", "TEAR", "ZEBRA"}), game.Config{
		Letters: func() string { return "AEIOULMNSTR" },
	})
	archive := store.NewSQLArchive(db)
	hub := realtime.NewHub(engine, archive, realtime.Options{})
	s := New(Deps{Hub: hub, Auth: authSvc, Archive: archive})

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, adminToken: adminToken}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	var out map[string]any
	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err == nil {
		if json.Unmarshal(raw, &out) != nil {
			out = map[string]any{"_array": raw}
		}
	}
	return res.StatusCode, out
}

func (e *testEnv) signup(t *testing.T, username, passkey string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username, "passkey": passkey,
	})
	if status != http.StatusCreated {
		t.Fatalf("signup %s: %d %v", username, status, body)
	}
	return body["token"].(string)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	status, body := e.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || body["ok"] != true {
		t.Fatalf("health: %d %v", status, body)
	}
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)
	tok := e.signup(t, "alice", "1234")

	status, me := e.do(t, http.MethodGet, "/auth/me", tok, nil)
	if status != http.StatusOK || me["username"] != "alice" || me["role"] != "member" {
		t.Fatalf("me: %d %v", status, me)
	}

	if status, _ := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "ALICE", "passkey": "1111"}); status != http.StatusConflict {
		t.Fatalf("duplicate signup: %d", status)
	}
	if status, body := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "bob", "passkey": "12"}); status != http.StatusBadRequest || body["message"] != "Passkey must be exactly 4 digits" {
		t.Fatalf("bad passkey: %d %v", status, body)
	}

	if status, _ := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "passkey": "1234"}); status != http.StatusOK {
		t.Fatalf("login: %d", status)
	}
	if status, body := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "passkey": "9999"}); status != http.StatusUnauthorized || body["message"] != "Invalid username or passkey." {
		t.Fatalf("bad login: %d %v", status, body)
	}
	if status, _ := e.do(t, http.MethodGet, "/auth/me", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", status)
	}
}

func TestGameEndpoints(t *testing.T) {
	e := newTestEnv(t)
	alice := e.signup(t, "alice", "1234")

	if status, _ := e.do(t, http.MethodPost, "/game/words", "", map[string]string{"word": "rats"}); status != http.StatusUnauthorized {
		t.Fatalf("anonymous submit: %d", status)
	}
	if status, body := e.do(t, http.MethodPost, "/game/start", alice, nil); status != http.StatusForbidden || body["message"] != "Only superadmin can start games" {
		t.Fatalf("member start: %d %v", status, body)
	}
	if status, body := e.do(t, http.MethodPost, "/game/start", e.adminToken, map[string]int64{"durationMs": 9223372036855}); status != http.StatusBadRequest || body["error"] != "invalid_duration" {
		t.Fatalf("overflowing duration: %d %v", status, body)
	}
	if status, body := e.do(t, http.MethodPost, "/game/words", alice, map[string]string{"word": "rats"}); status != http.StatusConflict || body["error"] != "no_active_session" {
		t.Fatalf("idle submit: %d %v", status, body)
	}

	status, started := e.do(t, http.MethodPost, "/game/start", e.adminToken, map[string]int{"durationMs": 60000})
	if status != http.StatusCreated || started["letters"] != "AEIOULMNSTR" || started["durationMs"] != float64(60000) {
		t.Fatalf("start: %d %v", status, started)
	}
	if status, _ := e.do(t, http.MethodPost, "/game/start", e.adminToken, nil); status != http.StatusConflict {
		t.Fatalf("second start: %d", status)
	}

	status, sub := e.do(t, http.MethodPost, "/game/words", alice, map[string]string{"word": "rats"})
	if status != http.StatusOK || sub["points"] != float64(5) || sub["totalScore"] != float64(5) {
		t.Fatalf("submit: %d %v", status, sub)
	}
	if status, body := e.do(t, http.MethodPost, "/game/words", alice, map[string]string{"word": "RATS"}); status != http.StatusConflict || body["error"] != "already_submitted" {
		t.Fatalf("duplicate: %d %v", status, body)
	}
	if status, body := e.do(t, http.MethodPost, "/game/words", alice, map[string]string{"word": "zebra"}); status != http.StatusBadRequest || body["error"] != "cannot_form" {
		t.Fatalf("unformable: %d %v", status, body)
	}

	status, st := e.do(t, http.MethodGet, "/game/status", "", nil)
	if status != http.StatusOK || st["active"] != true || st["totalSubmissions"] != float64(1) {
		t.Fatalf("status: %d %v", status, st)
	}

	status, ended := e.do(t, http.MethodPost, "/game/end", e.adminToken, nil)
	if status != http.StatusOK || ended["totalWords"] != float64(1) {
		t.Fatalf("end: %d %v", status, ended)
	}
	if status, body := e.do(t, http.MethodPost, "/game/end", e.adminToken, nil); status != http.StatusConflict || body["message"] != "No active game to end" {
		t.Fatalf("second end: %d %v", status, body)
	}

	status, lb := e.do(t, http.MethodGet, "/game/leaderboard", "", nil)
	entries, _ := lb["entries"].([]any)
	if status != http.StatusOK || len(entries) != 1 {
		t.Fatalf("leaderboard: %d %v", status, lb)
	}

	status, hist := e.do(t, http.MethodGet, "/game/history?limit=5", "", nil)
	var records []game.HistoryRecord
	if raw, ok := hist["_array"].(json.RawMessage); ok {
		_ = json.Unmarshal(raw, &records)
	}
	if status != http.StatusOK || len(records) != 1 || records[0].Participants[0].DisplayName != "alice" {
		t.Fatalf("history: %d %v", status, hist)
	}

	today := time.Now().UTC().Format("2006-01-02")
	status, day := e.do(t, http.MethodGet, "/game/leaderboard/daily?date="+today, "", nil)
	top, _ := day["top"].([]any)
	if status != http.StatusOK || day["date"] != today || len(top) != 1 {
		t.Fatalf("daily: %d %v", status, day)
	}
}

func TestQueryValidation(t *testing.T) {
	e := newTestEnv(t)
	if status, _ := e.do(t, http.MethodGet, "/game/leaderboard/daily?date=soon", "", nil); status != http.StatusBadRequest {
		t.Fatalf("bad date: %d", status)
	}
	if status, _ := e.do(t, http.MethodGet, "/game/history?limit=-1", "", nil); status != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", status)
	}
}

func TestWebsocketAuth(t *testing.T) {
	e := newTestEnv(t)
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"

	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without token should fail")
	}
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", res)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+e.adminToken, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var f struct {
		Type    string                    `json:"type"`
		Payload realtime.ConnectedPayload `json:"payload"`
	}
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Type != string(realtime.MsgConnected) || f.Payload.DisplayName != "Boss" || f.Payload.Role != "superadmin" {
		t.Fatalf("connected = %+v", f)
	}
}
