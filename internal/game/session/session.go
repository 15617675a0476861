// Package session orchestrates one player's table: profile persistence, the
// shop, wagers, the human's actions, paced computer turns and settlement.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/economy"
	"github.com/cory-johannsen/farkle/internal/game/match"
	"github.com/cory-johannsen/farkle/internal/game/profile"
	"github.com/cory-johannsen/farkle/internal/game/sequence"
)

// Seat indices within a match.
const (
	HumanSeat    = 0
	ComputerSeat = 1
)

var (
	// ErrNotOpen is returned before Open has loaded a profile.
	ErrNotOpen = errors.New("session not open")
	// ErrNoMatch is returned for match actions when no match is running.
	ErrNoMatch = errors.New("no match in progress")
	// ErrMatchInProgress is returned when starting a match while one runs.
	ErrMatchInProgress = errors.New("match already in progress")
	// ErrNotYourTurn is returned for human actions during the computer's turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrForfeitOther is returned when the human tries to forfeit on the
	// computer's behalf.
	ErrForfeitOther = errors.New("only the player may forfeit")
	// ErrUnknownChallenger is returned when selecting a challenger not in the roster.
	ErrUnknownChallenger = errors.New("unknown challenger")
)

// Config holds the table rules.
type Config struct {
	PlayerName     string
	TargetScore    int
	BailoutBalance int
	StartBalance   int
	// Difficulty is the tier of a newly created profile.
	Difficulty ai.Difficulty
	// ComputerDelay is the pause before each visible computer action.
	ComputerDelay time.Duration
}

// Deps are the collaborators of a Session. All fields are required except
// Roster and OnUpdate.
type Deps struct {
	Engine   *match.Engine
	Policies *ai.Registry
	Catalog  *catalog.Catalog
	Roster   *catalog.Roster
	Store    profile.Store
	Source   dice.Source
	Logger   *zap.Logger
	// OnUpdate is called, without the session lock held, after every state
	// change made by the computer.
	OnUpdate func(match.State)
}

// Result is the settlement of a finished match.
type Result struct {
	Won    bool
	Wager  int
	Payout int
	Reward dice.VariantID
}

// Session is one player's table. All methods are safe for concurrent use.
type Session struct {
	cfg  Config
	deps Deps
	shop *economy.Shop

	mu         sync.Mutex
	ctx        context.Context
	store      profile.Store
	profile    *profile.Profile
	state      match.State
	active     bool
	challenger *catalog.Challenger
	policy     *ai.Policy
	seq        *sequence.Sequence
	turn       *ai.Turn
	result     *Result

	lastTurn    match.State
	hasLastTurn bool
}

// New creates a Session.
//
// Precondition: every required Deps field is non-nil.
func New(cfg Config, deps Deps) *Session {
	if deps.Engine == nil || deps.Policies == nil || deps.Catalog == nil ||
		deps.Store == nil || deps.Source == nil || deps.Logger == nil {
		panic("session.New: engine, policies, catalog, store, source and logger must not be nil")
	}
	if cfg.PlayerName == "" {
		cfg.PlayerName = "You"
	}
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = match.DefaultTargetScore
	}
	if cfg.BailoutBalance <= 0 {
		cfg.BailoutBalance = profile.DefaultBalance
	}
	if cfg.StartBalance <= 0 {
		cfg.StartBalance = profile.DefaultBalance
	}
	return &Session{
		cfg:   cfg,
		deps:  deps,
		shop:  economy.NewShop(deps.Catalog, deps.Logger),
		store: deps.Store,
		ctx:   context.Background(),
	}
}

// Open loads the profile for id, creating a default one when none exists.
// When the store fails the session continues on an in-memory default.
//
// Postcondition: a profile is always loaded; the returned error is non-nil
// only when ctx is done.
func (s *Session) Open(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = context.WithoutCancel(ctx)

	p, err := s.store.Load(ctx, id)
	switch {
	case err == nil:
		s.deps.Logger.Info("profile loaded", zap.String("profile", id.String()), zap.Int("groschen", p.Groschen))
	case errors.Is(err, profile.ErrNotFound):
		p = s.defaultProfile(id)
		s.deps.Logger.Info("profile created", zap.String("profile", id.String()))
		s.saveLocked(ctx, p)
	default:
		s.deps.Logger.Warn("profile store unavailable, using in-memory profile",
			zap.String("profile", id.String()),
			zap.Error(err),
		)
		s.store = profile.NewMemoryStore()
		p = s.defaultProfile(id)
	}
	s.profile = p
	return p.Clone(), nil
}

func (s *Session) defaultProfile(id uuid.UUID) *profile.Profile {
	p := profile.Default(id, s.cfg.StartBalance)
	p.Settings.TargetScore = s.cfg.TargetScore
	p.Settings.Difficulty = s.cfg.Difficulty
	return p
}

func (s *Session) saveLocked(ctx context.Context, p *profile.Profile) {
	if err := s.store.Save(ctx, p); err != nil {
		s.deps.Logger.Warn("profile save failed",
			zap.String("profile", p.ID.String()),
			zap.Error(err),
		)
	}
}

// Profile returns a copy of the loaded profile.
func (s *Session) Profile() (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, ErrNotOpen
	}
	return s.profile.Clone(), nil
}

// Catalog returns the dice catalog.
func (s *Session) Catalog() *catalog.Catalog { return s.deps.Catalog }

// Challengers returns the roster, or nil when none is configured.
func (s *Session) Challengers() []catalog.Challenger {
	if s.deps.Roster == nil {
		return nil
	}
	return s.deps.Roster.All()
}

// mutate runs fn on the profile and saves it when fn succeeds.
func (s *Session) mutate(ctx context.Context, fn func(p *profile.Profile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return ErrNotOpen
	}
	if err := fn(s.profile); err != nil {
		return err
	}
	s.saveLocked(ctx, s.profile)
	return nil
}

// Buy purchases one die of variant id.
func (s *Session) Buy(ctx context.Context, id dice.VariantID) error {
	return s.mutate(ctx, func(p *profile.Profile) error {
		return s.shop.Buy(p, p, id)
	})
}

// Sell sells one die of variant id and returns the groschen credited.
func (s *Session) Sell(ctx context.Context, id dice.VariantID) (int, error) {
	var credited int
	err := s.mutate(ctx, func(p *profile.Profile) error {
		var err error
		credited, err = s.shop.Sell(p, p, id)
		return err
	})
	return credited, err
}

// Equip places variant id in loadout slot.
func (s *Session) Equip(ctx context.Context, slot int, id dice.VariantID) error {
	return s.mutate(ctx, func(p *profile.Profile) error {
		if _, err := s.deps.Catalog.Get(id); err != nil {
			return err
		}
		return p.Equip(slot, id)
	})
}

// Configure updates the profile's game settings. An empty challenger id
// plays the difficulty tier directly.
func (s *Session) Configure(ctx context.Context, settings profile.Settings) error {
	if settings.ChallengerID != "" {
		if s.deps.Roster == nil {
			return fmt.Errorf("%q: %w", settings.ChallengerID, ErrUnknownChallenger)
		}
		if _, ok := s.deps.Roster.ByID(settings.ChallengerID); !ok {
			return fmt.Errorf("%q: %w", settings.ChallengerID, ErrUnknownChallenger)
		}
	}
	return s.mutate(ctx, func(p *profile.Profile) error {
		p.Settings = settings
		return nil
	})
}

// OpenTable prepares the betting table and returns the balance available
// to wager. A broke player is bailed out to the configured balance.
func (s *Session) OpenTable(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return 0, ErrNotOpen
	}
	if s.profile.Groschen == 0 {
		s.profile.Credit(s.cfg.BailoutBalance)
		s.deps.Logger.Info("bailout granted",
			zap.String("profile", s.profile.ID.String()),
			zap.Int("groschen", s.profile.Groschen),
		)
		s.saveLocked(ctx, s.profile)
	}
	return s.profile.Groschen, nil
}
