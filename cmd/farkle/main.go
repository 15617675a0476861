// Package main runs the Farkle tavern table in the terminal.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/config"
	"github.com/cory-johannsen/farkle/internal/console"
	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/match"
	"github.com/cory-johannsen/farkle/internal/game/profile"
	"github.com/cory-johannsen/farkle/internal/game/session"
	"github.com/cory-johannsen/farkle/internal/lifecycle"
	"github.com/cory-johannsen/farkle/internal/observability"
	"github.com/cory-johannsen/farkle/internal/scripting"
	"github.com/cory-johannsen/farkle/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	player := flag.String("player", "", "player name; overrides game.player_name")
	seedPhrase := flag.String("seed-phrase", "", "make every roll reproducible; overrides game.seed_phrase")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *player != "" {
		cfg.Game.PlayerName = *player
	}
	if *seedPhrase != "" {
		cfg.Game.SeedPhrase = *seedPhrase
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := dice.NewCryptoSource()
	if cfg.Game.SeedPhrase != "" {
		src = dice.NewSeededSource(dice.SeedFromPhrase(cfg.Game.SeedPhrase))
		logger.Info("seeded dice", zap.String("seed_phrase", cfg.Game.SeedPhrase))
	}

	contentStart := time.Now()
	cat, err := catalog.LoadFile(cfg.Content.Dice)
	if err != nil {
		logger.Fatal("loading dice catalog", zap.Error(err))
	}
	roster, err := catalog.LoadChallengers(cfg.Content.Challengers, cat)
	if err != nil {
		logger.Fatal("loading challengers", zap.Error(err))
	}
	tunings := ai.DefaultTunings()
	if cfg.Content.Tuning != "" {
		if tunings, err = ai.LoadTunings(cfg.Content.Tuning); err != nil {
			logger.Fatal("loading ai tuning", zap.Error(err))
		}
	}
	logger.Info("content loaded",
		zap.Int("variants", len(cat.All())),
		zap.Int("challengers", len(roster.All())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	scripts := scripting.NewManager(src, logger)
	defer scripts.Close()
	policies, err := session.NewPolicies(tunings, roster, scripts, cfg.Content.Scripts, cfg.Content.InstructionLimit, src, logger)
	if err != nil {
		logger.Fatal("loading challenger policies", zap.Error(err))
	}

	store, pool := openStore(ctx, cfg, logger)

	difficulty, err := cfg.Game.ParsedDifficulty()
	if err != nil {
		logger.Fatal("parsing difficulty", zap.Error(err))
	}

	con := console.New(os.Stdout, logger)
	sess := session.New(session.Config{
		PlayerName:     cfg.Game.PlayerName,
		TargetScore:    cfg.Game.TargetScore,
		StartBalance:   cfg.Game.StartBalance,
		BailoutBalance: cfg.Game.BailoutBalance,
		Difficulty:     difficulty,
		ComputerDelay:  cfg.Game.ComputerDelay,
	}, session.Deps{
		Engine:   match.NewEngine(dice.NewLoggedRoller(src, cat, logger), logger),
		Policies: policies,
		Catalog:  cat,
		Roster:   roster,
		Store:    store,
		Source:   src,
		Logger:   logger,
		OnUpdate: con.Update,
	})

	p, err := sess.Open(ctx, profile.IDFor(cfg.Game.PlayerName))
	if err != nil {
		sess.Close()
		logger.Fatal("opening profile", zap.Error(err))
	}
	con.Attach(sess)

	logger.Info("table ready",
		zap.String("player", cfg.Game.PlayerName),
		zap.String("profile", p.ID.String()),
		zap.Duration("startup", time.Since(start)),
	)

	lc := lifecycle.New(logger)
	if pool != nil {
		lc.Add("database", &lifecycle.FuncService{
			StartFn: func(ctx context.Context) error {
				if cfg.Storage.HealthInterval == 0 {
					<-ctx.Done()
					return nil
				}
				timeout := cfg.Storage.ConnectTimeout
				if timeout == 0 {
					timeout = cfg.Storage.HealthInterval
				}
				return pool.Monitor(ctx, cfg.Storage.HealthInterval, timeout, logger)
			},
			StopFn: pool.Close,
		})
	}
	lc.Add("table", &lifecycle.FuncService{
		StartFn: func(ctx context.Context) error { return playUntilDone(ctx, con, os.Stdin) },
		StopFn:  sess.Close,
	})
	if err := lc.Run(ctx); err != nil {
		logger.Error("table stopped", zap.Error(err))
	}
	logger.Info("session ended", zap.Duration("uptime", time.Since(start)))
}

// playUntilDone runs the console until the player quits or ctx is done. The
// reader cannot be interrupted, so on cancellation it is left behind.
func playUntilDone(ctx context.Context, con *console.Console, in io.Reader) error {
	done := make(chan error, 1)
	go func() { done <- con.Run(ctx, in) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// openStore returns the configured profile store, and the pool behind it for
// the postgres backend. A postgres backend that cannot be reached within the
// connect timeout falls back to memory so the game stays playable.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (profile.Store, *postgres.Pool) {
	if cfg.Storage.Backend != config.BackendPostgres {
		return profile.NewMemoryStore(), nil
	}
	dbStart := time.Now()
	connectCtx, cancel := ctx, context.CancelFunc(func() {})
	if cfg.Storage.ConnectTimeout > 0 {
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Storage.ConnectTimeout)
	}
	defer cancel()
	pool, err := postgres.NewPool(connectCtx, cfg.Database)
	if err != nil {
		logger.Warn("database unavailable, profiles will not persist",
			zap.String("host", cfg.Database.Host),
			zap.Error(err),
		)
		return profile.NewMemoryStore(), nil
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	return postgres.NewProfileRepository(pool.DB()), pool
}
