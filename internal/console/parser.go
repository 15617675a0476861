package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/farkle/internal/game/dice"
)

// ErrBadDie is returned for a die or slot number outside 1..6.
var ErrBadDie = errors.New("die numbers run from 1 to 6")

// ParseResult holds the command word and arguments of one input line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
}

// Parse splits a line into a command and arguments.
//
// Postcondition: if line is blank, Command is empty.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}

// ParseDice converts one-based die numbers as typed by the player into
// zero-based positions. Numbers may be separate words or run together, so
// "1 3 5", "1,3,5" and "135" are equivalent.
func ParseDice(args []string) ([]int, error) {
	var out []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part == "" {
				continue
			}
			if len(part) > 1 && isDigits(part) {
				for _, r := range part {
					i, err := dieNumber(string(r))
					if err != nil {
						return nil, err
					}
					out = append(out, i)
				}
				continue
			}
			i, err := dieNumber(part)
			if err != nil {
				return nil, err
			}
			out = append(out, i)
		}
	}
	return out, nil
}

// ParseSlot converts a one-based loadout slot number.
func ParseSlot(s string) (int, error) {
	return dieNumber(s)
}

// ParseVariant normalizes a typed variant id to catalog form.
func ParseVariant(s string) dice.VariantID {
	return dice.VariantID(strings.ToUpper(strings.TrimSpace(s)))
}

// ParseAmount parses a non-negative groschen amount; thousands separators
// are accepted.
func ParseAmount(s string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a valid amount", s)
	}
	return n, nil
}

func dieNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > dice.Count {
		return 0, fmt.Errorf("%q: %w", s, ErrBadDie)
	}
	return n - 1, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
