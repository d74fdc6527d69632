package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/officechat/wordbot/assets"
	"github.com/officechat/wordbot/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := store.Open(fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db, assets.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, "test-secret", 1)
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	u, err := s.Signup(ctx, " alice ", "", "1234")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.Username != "alice" || u.DisplayName != "alice" || u.Role != RoleMember {
		t.Fatalf("user = %+v", u)
	}

	if _, err := s.Signup(ctx, "ALICE", "Other", "9999"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate signup: err = %v", err)
	}

	got, err := s.Login(ctx, "Alice", "1234")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Login: %+v, %v", got, err)
	}
	if _, err := s.Login(ctx, "alice", "0000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong passkey: err = %v", err)
	}
	if _, err := s.Login(ctx, "nobody", "1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: err = %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	s := newTestService(t)
	cases := []struct{ username, passkey string }{
		{"ab", "1234"},
		{"has space", "1234"},
		{strings.Repeat("x", 25), "1234"},
		{"valid_name", "123"},
		{"valid_name", "12345"},
		{"valid_name", "12a4"},
	}
	for _, c := range cases {
		_, err := s.Signup(context.Background(), c.username, "", c.passkey)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Signup(%q, %q) = %v, want ValidationError", c.username, c.passkey, err)
		}
	}
}

func TestEnsureUserPromotes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	admin, err := s.EnsureUser(ctx, "boss", "The Boss", "4321", RoleSuperadmin)
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if admin.Role != RoleSuperadmin || admin.DisplayName != "The Boss" {
		t.Fatalf("admin = %+v", admin)
	}
	again, err := s.EnsureUser(ctx, "boss", "ignored", "0000", RoleSuperadmin)
	if err != nil || again.ID != admin.ID {
		t.Fatalf("second EnsureUser: %+v, %v", again, err)
	}

	member, _ := s.Signup(ctx, "carol", "Carol", "1111")
	promoted, err := s.EnsureUser(ctx, "carol", "", "1111", RoleSuperadmin)
	if err != nil || promoted.ID != member.ID || promoted.Role != RoleSuperadmin {
		t.Fatalf("promote: %+v, %v", promoted, err)
	}
	stored, _ := s.FindByID(ctx, member.ID)
	if stored.Role != RoleSuperadmin {
		t.Fatalf("role not persisted: %+v", stored)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestService(t)
	u := &User{ID: "u-1", Username: "alice", DisplayName: "Alice A.", Role: RoleSuperadmin}

	tok, exp, err := s.Sign(u)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if d := time.Until(exp); d < 23*time.Hour || d > 25*time.Hour {
		t.Fatalf("expiry in %v", d)
	}
	p, err := s.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ID != "u-1" || p.DisplayName != "Alice A." || !p.IsSuperadmin() {
		t.Fatalf("principal = %+v", p)
	}

	other := NewService(nil, "another-secret", 1)
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret: err = %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := s.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: err = %v", err)
	}
}
