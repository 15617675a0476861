package economy

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
)

var (
	// ErrNotForSale is returned when buying a variant the shop does not sell.
	ErrNotForSale = errors.New("variant is not for sale")
	// ErrNotSellable is returned when selling a variant that cannot be sold.
	ErrNotSellable = errors.New("variant cannot be sold")
	// ErrOwnershipCap is returned when a purchase would exceed MaxOwned.
	ErrOwnershipCap = errors.New("ownership limit reached")
	// ErrNotOwned is returned when selling a variant with no owned copies.
	ErrNotOwned = errors.New("variant not owned")
)

// Inventory is a multiset of owned dice variants.
type Inventory interface {
	OwnedCount(id dice.VariantID) int
	// AddDie adds one die of variant id.
	AddDie(id dice.VariantID)
	// RemoveDie removes one die of variant id, or returns ErrNotOwned.
	RemoveDie(id dice.VariantID) error
}

// Shop buys and sells catalog variants.
type Shop struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewShop creates a Shop.
//
// Precondition: c and logger must be non-nil.
func NewShop(c *catalog.Catalog, logger *zap.Logger) *Shop {
	if c == nil || logger == nil {
		panic("economy.NewShop: catalog and logger must not be nil")
	}
	return &Shop{catalog: c, logger: logger}
}

// Stock returns the purchasable variants.
func (s *Shop) Stock() []dice.Variant {
	return s.catalog.Purchasable()
}

// Buy debits the variant's price from w and adds one die to inv.
//
// Postcondition: on any error neither w nor inv changes.
func (s *Shop) Buy(w Wallet, inv Inventory, id dice.VariantID) error {
	v, err := s.catalog.Get(id)
	if err != nil {
		return err
	}
	if !v.Purchasable {
		return fmt.Errorf("%s: %w", id, ErrNotForSale)
	}
	if inv.OwnedCount(id) >= v.MaxOwned {
		return fmt.Errorf("%s (%d): %w", id, v.MaxOwned, ErrOwnershipCap)
	}
	balance, err := w.Debit(v.Price)
	if err != nil {
		return fmt.Errorf("buying %s: %w", id, err)
	}
	inv.AddDie(id)
	s.logger.Info("die purchased",
		zap.String("variant", string(id)),
		zap.Int("price", v.Price),
		zap.Int("balance", balance),
	)
	return nil
}

// Sell removes one die from inv and credits its sell price to w, returning
// the amount credited.
//
// Postcondition: on any error neither w nor inv changes.
func (s *Shop) Sell(w Wallet, inv Inventory, id dice.VariantID) (int, error) {
	v, err := s.catalog.Get(id)
	if err != nil {
		return 0, err
	}
	if !v.Sellable {
		return 0, fmt.Errorf("%s: %w", id, ErrNotSellable)
	}
	if err := inv.RemoveDie(id); err != nil {
		return 0, err
	}
	balance := w.Credit(v.SellPrice)
	s.logger.Info("die sold",
		zap.String("variant", string(id)),
		zap.Int("price", v.SellPrice),
		zap.Int("balance", balance),
	)
	return v.SellPrice, nil
}
