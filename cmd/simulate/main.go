// Package main runs computer-versus-computer Farkle matches in bulk and
// prints win rates per difficulty pairing and challenger.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/config"
	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/observability"
	"github.com/cory-johannsen/farkle/internal/sim"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	matches := flag.Int("matches", 1000, "matches per pairing")
	workers := flag.Int("workers", 0, "concurrent matches; 0 = GOMAXPROCS")
	target := flag.Int("target", 0, "target score; 0 = game.target_score")
	seedPhrase := flag.String("seed-phrase", "", "seed phrase; empty = game.seed_phrase, then the current time")
	challengers := flag.Bool("challengers", false, "also pit each challenger against the medium tier")
	quiet := flag.Bool("quiet", false, "hide the progress bar")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cat, err := catalog.LoadFile(cfg.Content.Dice)
	if err != nil {
		logger.Fatal("loading dice catalog", zap.Error(err))
	}
	tunings := ai.DefaultTunings()
	if cfg.Content.Tuning != "" {
		if tunings, err = ai.LoadTunings(cfg.Content.Tuning); err != nil {
			logger.Fatal("loading ai tuning", zap.Error(err))
		}
	}

	matchups := tierMatchups()
	if *challengers {
		roster, err := catalog.LoadChallengers(cfg.Content.Challengers, cat)
		if err != nil {
			logger.Fatal("loading challengers", zap.Error(err))
		}
		matchups = append(matchups, challengerMatchups(roster)...)
	}

	phrase := *seedPhrase
	if phrase == "" {
		phrase = cfg.Game.SeedPhrase
	}
	if phrase == "" {
		phrase = start.Format(time.RFC3339Nano)
	}
	if *target <= 0 {
		*target = cfg.Game.TargetScore
	}
	simCfg := sim.Config{
		Matches:        *matches,
		TargetScore:    *target,
		Workers:        *workers,
		Seed:           dice.SeedFromPhrase(phrase),
		AlternateFirst: true,
	}
	logger.Info("simulation starting",
		zap.Int("matchups", len(matchups)),
		zap.Int("matches", *matches),
		zap.Int("target", *target),
		zap.String("seed_phrase", phrase),
	)

	bar := pb.StartNew(len(matchups) * *matches)
	if *quiet {
		bar.SetWriter(io.Discard)
	}
	runner := sim.NewRunner(tunings, cat, logger)
	outcomes, err := runner.Run(ctx, simCfg, matchups, func() { bar.Increment() })
	bar.Finish()
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	if err := sim.WriteTable(os.Stdout, sim.Summarize(matchups, outcomes)); err != nil {
		logger.Fatal("writing report", zap.Error(err))
	}
	logger.Info("simulation finished", zap.Duration("elapsed", time.Since(bar.StartTime())))
}

func normalLoadout() [dice.Count]dice.VariantID {
	var l [dice.Count]dice.VariantID
	for i := range l {
		l[i] = dice.Normal
	}
	return l
}

// tierMatchups pairs every difficulty tier with every other, NORMAL dice on
// both sides.
func tierMatchups() []sim.Matchup {
	var out []sim.Matchup
	for i, a := range ai.Difficulties {
		for _, b := range ai.Difficulties[i:] {
			out = append(out, sim.Matchup{Players: [2]sim.Entrant{
				{Name: a.String(), Difficulty: a, Loadout: normalLoadout()},
				{Name: b.String(), Difficulty: b, Loadout: normalLoadout()},
			}})
		}
	}
	return out
}

// challengerMatchups plays each challenger, with its own loadout and tier,
// against a medium computer on NORMAL dice.
func challengerMatchups(roster *catalog.Roster) []sim.Matchup {
	var out []sim.Matchup
	for _, ch := range roster.All() {
		out = append(out, sim.Matchup{Players: [2]sim.Entrant{
			{Name: strings.ToLower(ch.Name), Difficulty: ch.Difficulty, Loadout: ch.Loadout},
			{Name: ai.Medium.String(), Difficulty: ai.Medium, Loadout: normalLoadout()},
		}})
	}
	return out
}
