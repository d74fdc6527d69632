// internal/auth/auth.go
//
// Chat identity directory.
// Responsibilities:
//   - Users table access: create, look up by id or (case-insensitive) username.
//   - Passkey hashing with bcrypt; passkeys are exactly four digits.
//   - HS256 JWT signing and parsing (claims: id, username, name, role, exp, iat).
//   - Seeding the superadmin account at startup (EnsureUser).
//
// Only superadmins may start or end word games; everyone else is a member.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Role gates privileged game commands.
type Role string

const (
	RoleMember     Role = "member"
	RoleSuperadmin Role = "superadmin"
)

var (
	ErrUsernameTaken      = errors.New("auth: username taken")
	ErrInvalidCredentials = errors.New("auth: invalid username or passkey")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrNotFound           = errors.New("user not found")
)

// ValidationError carries a user-facing reason a signup was refused.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// User matches the users table shape.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	PasskeyHash string    `json:"-"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Principal is the authenticated caller, as recovered from a token.
type Principal struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// IsSuperadmin reports whether p may start and end games.
func (p *Principal) IsSuperadmin() bool { return p != nil && p.Role == RoleSuperadmin }

// Service owns user storage and token handling.
type Service struct {
	db     *sql.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns a Service over a migrated db. Tokens live expiresDays days.
func NewService(db *sql.DB, secret string, expiresDays int) *Service {
	return &Service{
		db:     db,
		secret: []byte(secret),
		ttl:    time.Duration(expiresDays) * 24 * time.Hour,
		now:    time.Now,
	}
}

// Signup validates input, checks uniqueness, hashes the passkey and inserts a
// member. An empty displayName falls back to the username.
func (s *Service) Signup(ctx context.Context, username, displayName, passkey string) (*User, error) {
	return s.create(ctx, username, displayName, passkey, RoleMember)
}

// Login checks username + passkey and returns the user.
func (s *Service) Login(ctx context.Context, username, passkey string) (*User, error) {
	u, err := s.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasskeyHash), []byte(passkey)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureUser creates username with role if it does not exist yet. An existing
// account keeps its passkey but is moved to role.
func (s *Service) EnsureUser(ctx context.Context, username, displayName, passkey string, role Role) (*User, error) {
	u, err := s.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if u.Role != role {
			if _, err := s.db.ExecContext(ctx, `UPDATE users SET role=? WHERE id=?`, string(role), u.ID); err != nil {
				return nil, fmt.Errorf("update role: %w", err)
			}
			u.Role = role
		}
		return u, nil
	case errors.Is(err, ErrNotFound):
		u, err := s.create(ctx, username, displayName, passkey, role)
		if err != nil {
			return nil, err
		}
		log.Info().Str("username", u.Username).Str("role", string(role)).Msg("seeded user")
		return u, nil
	default:
		return nil, err
	}
}

func (s *Service) create(ctx context.Context, username, displayName, passkey string, role Role) (*User, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, passkey); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}

	if _, err := s.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(passkey), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
		PasskeyHash: string(h),
		Role:        role,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO users (id, username, display_name, passkey_hash, role, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.DisplayName, u.PasskeyHash, string(u.Role), u.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// FindByUsername loads a user by case-insensitive username.
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, display_name, passkey_hash, role, created_at
        FROM users WHERE lower(username)=lower(?)`, username))
}

// FindByID loads a user by id.
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, display_name, passkey_hash, role, created_at
        FROM users WHERE id=?`, id))
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u       User
		role    string
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasskeyHash, &role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = Role(role)
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// Sign creates an HS256 token for u and returns it with its expiry.
func (s *Service) Sign(u *User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       u.ID,
		"username": u.Username,
		"name":     u.DisplayName,
		"role":     string(u.Role),
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// Parse verifies token and returns its principal.
func (s *Service) Parse(token string) (*Principal, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	if id == "" || username == "" {
		return nil, ErrInvalidToken
	}
	if name == "" {
		name = username
	}
	if role == "" {
		role = string(RoleMember)
	}
	return &Principal{ID: id, Username: username, DisplayName: name, Role: Role(role)}, nil
}

// PrincipalOf converts a stored user into a principal.
func PrincipalOf(u *User) *Principal {
	return &Principal{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces username and passkey rules.
func validateSignup(u, passkey string) error {
	if len(u) < 3 || len(u) > 24 {
		return &ValidationError{"Username must be 3–24 characters"}
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &ValidationError{"Username: letters, numbers, underscore only"}
		}
	}
	if len(passkey) != 4 {
		return &ValidationError{"Passkey must be exactly 4 digits"}
	}
	for _, r := range passkey {
		if r < '0' || r > '9' {
			return &ValidationError{"Passkey must be exactly 4 digits"}
		}
	}
	return nil
}
