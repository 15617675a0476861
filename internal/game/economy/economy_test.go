package economy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/economy"
)

type purse struct {
	balance int
	owned   map[dice.VariantID]int
}

func newPurse(balance int) *purse {
	return &purse{balance: balance, owned: make(map[dice.VariantID]int)}
}

func (p *purse) Balance() int { return p.balance }

func (p *purse) Debit(amount int) (int, error) {
	b, err := economy.Debit(p.balance, amount)
	p.balance = b
	return b, err
}

func (p *purse) Credit(amount int) int {
	p.balance = economy.Credit(p.balance, amount)
	return p.balance
}

func (p *purse) OwnedCount(id dice.VariantID) int { return p.owned[id] }

func (p *purse) AddDie(id dice.VariantID) { p.owned[id]++ }

func (p *purse) RemoveDie(id dice.VariantID) error {
	if p.owned[id] == 0 {
		return economy.ErrNotOwned
	}
	p.owned[id]--
	return nil
}

func shop(t *testing.T) *economy.Shop {
	t.Helper()
	c, err := catalog.Parse([]byte(`
variants:
  - id: GOLD
    price: 100
    sellable: true
    purchasable: true
    max_owned: 2
    weights: [1, 1, 1, 1, 1, 1]
  - id: CURSED
    price: 40
    purchasable: false
    sellable: false
    max_owned: 1
    weights: [1, 1, 1, 1, 1, 1]
`))
	require.NoError(t, err)
	return economy.NewShop(c, zap.NewNop())
}

func TestDebit(t *testing.T) {
	b, err := economy.Debit(100, 30)
	require.NoError(t, err)
	assert.Equal(t, 70, b)

	b, err = economy.Debit(20, 30)
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
	assert.Equal(t, 20, b)

	b, err = economy.Debit(20, -1)
	assert.ErrorIs(t, err, economy.ErrInvalidAmount)
	assert.Equal(t, 20, b)
}

func TestCredit_IgnoresNegative(t *testing.T) {
	assert.Equal(t, 15, economy.Credit(10, 5))
	assert.Equal(t, 10, economy.Credit(10, -5))
}

func TestFormatGroschen(t *testing.T) {
	assert.Equal(t, "0 groschen", economy.FormatGroschen(0))
	assert.Equal(t, "1,250 groschen", economy.FormatGroschen(1250))
	assert.Equal(t, "4,000", economy.FormatScore(4000))
}

func TestShop_BuyAndSell(t *testing.T) {
	s := shop(t)
	p := newPurse(250)

	require.NoError(t, s.Buy(p, p, "GOLD"))
	assert.Equal(t, 150, p.Balance())
	assert.Equal(t, 1, p.OwnedCount("GOLD"))

	credited, err := s.Sell(p, p, "GOLD")
	require.NoError(t, err)
	assert.Equal(t, 70, credited)
	assert.Equal(t, 220, p.Balance())
	assert.Equal(t, 0, p.OwnedCount("GOLD"))
}

func TestShop_BuyErrorsLeaveStateUnchanged(t *testing.T) {
	s := shop(t)

	poor := newPurse(50)
	assert.ErrorIs(t, s.Buy(poor, poor, "GOLD"), economy.ErrInsufficientFunds)
	assert.Equal(t, 50, poor.Balance())
	assert.Equal(t, 0, poor.OwnedCount("GOLD"))

	rich := newPurse(1000)
	assert.ErrorIs(t, s.Buy(rich, rich, "CURSED"), economy.ErrNotForSale)
	assert.ErrorIs(t, s.Buy(rich, rich, "PLATINUM"), catalog.ErrUnknownVariant)

	require.NoError(t, s.Buy(rich, rich, "GOLD"))
	require.NoError(t, s.Buy(rich, rich, "GOLD"))
	assert.ErrorIs(t, s.Buy(rich, rich, "GOLD"), economy.ErrOwnershipCap)
	assert.Equal(t, 800, rich.Balance())
	assert.Equal(t, 2, rich.OwnedCount("GOLD"))
}

func TestShop_SellErrors(t *testing.T) {
	s := shop(t)
	p := newPurse(0)
	p.owned["CURSED"] = 1

	_, err := s.Sell(p, p, "CURSED")
	assert.ErrorIs(t, err, economy.ErrNotSellable)
	_, err = s.Sell(p, p, "GOLD")
	assert.ErrorIs(t, err, economy.ErrNotOwned)
	_, err = s.Sell(p, p, dice.Normal)
	assert.ErrorIs(t, err, economy.ErrNotSellable)
	assert.Equal(t, 0, p.Balance())
}

func TestNewShop_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { economy.NewShop(nil, zap.NewNop()) })
}

// TestShop_BalanceNeverNegative drives random buy/sell sequences and checks
// the balance and ownership caps after every step.
func TestShop_BalanceNeverNegative(t *testing.T) {
	s := shop(t)
	ids := []dice.VariantID{dice.Normal, "GOLD", "CURSED", "NOPE"}
	rapid.Check(t, func(rt *rapid.T) {
		p := newPurse(rapid.IntRange(0, 500).Draw(rt, "balance"))
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(rt, "id")
			if rapid.Bool().Draw(rt, "buy") {
				_ = s.Buy(p, p, id)
			} else {
				_, _ = s.Sell(p, p, id)
			}
			if p.Balance() < 0 {
				rt.Fatalf("balance went negative: %d", p.Balance())
			}
			if p.OwnedCount("GOLD") > 2 {
				rt.Fatalf("GOLD cap exceeded: %d", p.OwnedCount("GOLD"))
			}
		}
	})
}
