// main.go
//
// Entry point for the office chat word-game server.
// Startup order:
//   1. Load .env (if present) and parse configuration.
//   2. Configure zerolog (level + json/console output).
//   3. Load the dictionary (WORDS_FILE or the embedded list).
//   4. Open SQLite and apply the embedded migrations.
//   5. Seed the superadmin account.
//   6. Build the engine (optionally with demo scores), hub and HTTP server.
//   7. Serve until SIGINT/SIGTERM, sweeping timed-out rounds in the background.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/officechat/wordbot/assets"
	"github.com/officechat/wordbot/internal/auth"
	"github.com/officechat/wordbot/internal/config"
	"github.com/officechat/wordbot/internal/game"
	"github.com/officechat/wordbot/internal/httpserver"
	"github.com/officechat/wordbot/internal/realtime"
	"github.com/officechat/wordbot/internal/store"
	"github.com/officechat/wordbot/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	if err := words.Init(cfg.WordsFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load dictionary")
	}
	dict := words.Default()
	log.Info().Int("words", dict.Len()).Msg("dictionary loaded")

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := store.Migrate(db, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authSvc := auth.NewService(db, cfg.Auth.Secret, cfg.Auth.ExpiresDays)
	if sa := cfg.Superadmin; sa.Username != "" {
		if _, err := authSvc.EnsureUser(ctx, sa.Username, sa.DisplayName, sa.Passkey, auth.RoleSuperadmin); err != nil {
			log.Fatal().Err(err).Msg("seed superadmin")
		}
	}

	logger := log.Logger
	engine := game.NewEngine(dict, game.Config{
		DefaultDuration: cfg.Game.DefaultDuration,
		Logger:          &logger,
	})
	if cfg.Game.SeedDemoScores {
		engine.Seed(game.DemoScores...)
	}

	archive := store.NewSQLArchive(db)
	hub := realtime.NewHub(engine, archive, realtime.Options{
		RPS:           cfg.RateLimit.RPS,
		Burst:         cfg.RateLimit.Burst,
		AllowedOrigin: cfg.ClientOrigin,
		Logger:        &logger,
	})
	srv := httpserver.New(httpserver.Deps{
		Hub:           hub,
		Auth:          authSvc,
		Archive:       archive,
		ClientOrigin:  cfg.ClientOrigin,
		CookieName:    cfg.CookieName,
		SecureCookies: cfg.Production(),
	})

	go srv.RunTimeoutSweep(ctx, cfg.Game.TimeoutInterval)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting wordbot")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
