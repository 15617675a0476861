// Package economy implements groschen balances and the dice shop.
package economy

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient groschen")
	// ErrInvalidAmount is returned for negative debits or credits.
	ErrInvalidAmount = errors.New("amount must not be negative")
)

// Wallet is a groschen balance that never goes negative.
type Wallet interface {
	Balance() int
	// Debit removes amount and returns the new balance. On
	// ErrInsufficientFunds the balance is unchanged.
	Debit(amount int) (int, error)
	// Credit adds amount and returns the new balance. Negative amounts are
	// ignored.
	Credit(amount int) int
}

// Debit returns balance - amount.
//
// Postcondition: on error the returned balance equals the input balance; the
// result is never negative.
func Debit(balance, amount int) (int, error) {
	if amount < 0 {
		return balance, fmt.Errorf("debit %d: %w", amount, ErrInvalidAmount)
	}
	if amount > balance {
		return balance, fmt.Errorf("debit %d from %d: %w", amount, balance, ErrInsufficientFunds)
	}
	return balance - amount, nil
}

// Credit returns balance + amount, ignoring negative amounts.
func Credit(balance, amount int) int {
	if amount < 0 {
		return balance
	}
	return balance + amount
}

var lang = language.English

// FormatGroschen renders n with thousands separators, e.g. "1,250 groschen".
func FormatGroschen(n int) string {
	return message.NewPrinter(lang).Sprintf("%d groschen", n)
}

// FormatScore renders a score with thousands separators.
func FormatScore(n int) string {
	return message.NewPrinter(lang).Sprintf("%d", n)
}
