// internal/config/config.go
//
// Process configuration, read from the environment (after godotenv has loaded
// any .env file). Every key has a default so the server runs with no setup.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration.
type Config struct {
	Port         string `env:"PORT"          envDefault:"5175"`
	Env          string `env:"ENV"           envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT"    envDefault:"json"`
	DatabaseDSN  string `env:"DATABASE_DSN"  envDefault:"file:officechat?mode=memory&cache=shared"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	WordsFile    string `env:"WORDS_FILE"`

	Auth       Auth       `envPrefix:"JWT_"`
	Game       Game       `envPrefix:"GAME_"`
	Superadmin Superadmin `envPrefix:"SUPERADMIN_"`
	RateLimit  RateLimit  `envPrefix:"RATE_LIMIT_"`

	// CookieName sits outside Auth because it has no JWT_ prefix.
	CookieName string `env:"COOKIE_NAME" envDefault:"officechat_token"`
}

// Auth configures token signing.
type Auth struct {
	Secret      string `env:"SECRET"       envDefault:"dev-secret-change-me"`
	ExpiresDays int    `env:"EXPIRES_DAYS" envDefault:"14"`
}

// Game configures the word-game engine and its sweep.
type Game struct {
	DefaultDuration time.Duration `env:"DEFAULT_DURATION"  envDefault:"120s"`
	TimeoutInterval time.Duration `env:"TIMEOUT_INTERVAL"  envDefault:"5s"`
	SeedDemoScores  bool          `env:"SEED_DEMO_SCORES"  envDefault:"false"`
}

// Superadmin is the account created at startup that may start and end games.
// An empty Username disables seeding.
type Superadmin struct {
	Username    string `env:"USERNAME"     envDefault:"superadmin"`
	Passkey     string `env:"PASSKEY"      envDefault:"0000"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Superadmin"`
}

// RateLimit bounds websocket commands per connection.
type RateLimit struct {
	RPS   float64 `env:"RPS"   envDefault:"5"`
	Burst int     `env:"BURST" envDefault:"10"`
}

// Production reports whether ENV is "production".
func (c Config) Production() bool { return c.Env == "production" }

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Production() && c.Auth.Secret == "dev-secret-change-me" {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.Auth.ExpiresDays <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_DAYS must be positive"))
	}
	if c.Game.TimeoutInterval <= 0 {
		errs = append(errs, errors.New("GAME_TIMEOUT_INTERVAL must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}
