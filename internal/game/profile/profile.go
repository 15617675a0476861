// Package profile defines the persistent player profile: groschen balance,
// owned dice, loadout and game settings.
package profile

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/economy"
)

// DefaultBalance is the groschen balance of a new profile.
const DefaultBalance = 50

var (
	// ErrNotFound is returned by Store.Load when no profile exists for an id.
	ErrNotFound = errors.New("profile not found")
	// ErrLoadoutNotOwned is returned when a loadout uses more dice of a
	// variant than the profile owns.
	ErrLoadoutNotOwned = errors.New("loadout uses unowned dice")
	// ErrLoadoutSlot is returned for a slot index outside [0, 6).
	ErrLoadoutSlot = errors.New("loadout slot out of range")
)

// Settings are the player's game preferences.
type Settings struct {
	TargetScore  int           `json:"target_score"`
	Difficulty   ai.Difficulty `json:"difficulty"`
	ChallengerID string        `json:"challenger_id,omitempty"`
}

// Profile is the persistent meta-progression of one player.
//
// Invariant: Groschen >= 0; every non-NORMAL variant in Loadout appears at
// most Owned[v] times.
type Profile struct {
	ID       uuid.UUID                  `json:"id"`
	Groschen int                        `json:"groschen"`
	Owned    map[dice.VariantID]int     `json:"owned"`
	Loadout  [dice.Count]dice.VariantID `json:"loadout"`
	Settings Settings                   `json:"settings"`
}

// IDFor derives a stable profile id from a player name, so a local player
// keeps their profile across runs without an account system.
func IDFor(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("farkle/profile/"+name))
}

// Default returns a fresh profile: balance groschen, one NORMAL die owned and
// an all-NORMAL loadout.
func Default(id uuid.UUID, balance int) *Profile {
	if balance < 0 {
		balance = 0
	}
	p := &Profile{
		ID:       id,
		Groschen: balance,
		Owned:    map[dice.VariantID]int{dice.Normal: 1},
		Settings: Settings{Difficulty: ai.Medium},
	}
	for i := range p.Loadout {
		p.Loadout[i] = dice.Normal
	}
	return p
}

// Balance implements economy.Wallet.
func (p *Profile) Balance() int { return p.Groschen }

// Debit implements economy.Wallet.
func (p *Profile) Debit(amount int) (int, error) {
	b, err := economy.Debit(p.Groschen, amount)
	if err != nil {
		return p.Groschen, err
	}
	p.Groschen = b
	return b, nil
}

// Credit implements economy.Wallet.
func (p *Profile) Credit(amount int) int {
	p.Groschen = economy.Credit(p.Groschen, amount)
	return p.Groschen
}

// OwnedCount implements economy.Inventory.
func (p *Profile) OwnedCount(id dice.VariantID) int { return p.Owned[id] }

// AddDie implements economy.Inventory.
func (p *Profile) AddDie(id dice.VariantID) {
	if p.Owned == nil {
		p.Owned = make(map[dice.VariantID]int)
	}
	p.Owned[id]++
}

// RemoveDie implements economy.Inventory. Loadout slots that would exceed
// the remaining count fall back to NORMAL, highest slot first.
func (p *Profile) RemoveDie(id dice.VariantID) error {
	if p.Owned[id] == 0 {
		return fmt.Errorf("%s: %w", id, economy.ErrNotOwned)
	}
	p.Owned[id]--
	if p.Owned[id] == 0 {
		delete(p.Owned, id)
	}
	if id == dice.Normal {
		return nil
	}
	excess := p.slotsUsing(id) - p.Owned[id]
	for i := dice.Count - 1; i >= 0 && excess > 0; i-- {
		if p.Loadout[i] == id {
			p.Loadout[i] = dice.Normal
			excess--
		}
	}
	return nil
}

func (p *Profile) slotsUsing(id dice.VariantID) int {
	n := 0
	for _, v := range p.Loadout {
		if v == id {
			n++
		}
	}
	return n
}

// SetLoadout replaces the loadout after checking ownership. NORMAL is always
// allowed.
//
// Postcondition: on error the loadout is unchanged.
func (p *Profile) SetLoadout(loadout [dice.Count]dice.VariantID) error {
	use := make(map[dice.VariantID]int)
	for _, id := range loadout {
		if id == dice.Normal {
			continue
		}
		use[id]++
	}
	for id, n := range use {
		if n > p.Owned[id] {
			return fmt.Errorf("%s x%d (own %d): %w", id, n, p.Owned[id], ErrLoadoutNotOwned)
		}
	}
	p.Loadout = loadout
	return nil
}

// Equip puts variant id into a single loadout slot.
func (p *Profile) Equip(slot int, id dice.VariantID) error {
	if slot < 0 || slot >= dice.Count {
		return fmt.Errorf("slot %d: %w", slot, ErrLoadoutSlot)
	}
	next := p.Loadout
	next[slot] = id
	return p.SetLoadout(next)
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Owned = maps.Clone(p.Owned)
	if c.Owned == nil {
		c.Owned = make(map[dice.VariantID]int)
	}
	return &c
}

// Store persists profiles as opaque records keyed by id.
type Store interface {
	// Load returns the profile for id or ErrNotFound.
	Load(ctx context.Context, id uuid.UUID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
