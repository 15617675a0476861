// Package console implements the interactive terminal table: ANSI
// rendering of matches, the shop and the profile, and the command loop that
// drives a session.
package console

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ANSI escape codes for terminal styling.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	White  = "\033[37m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes all ANSI escape sequences from s.
//
// Postcondition: Returns s with all \033[...m sequences removed.
func StripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}

// Width returns the printable cell width of s, ignoring escape sequences
// and counting wide runes as two cells.
func Width(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}

// PadRight pads s with spaces to width cells. Styled or wide text is
// measured by its printable width; text already wider is returned as is.
func PadRight(s string, width int) string {
	if gap := width - Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// Truncate shortens plain text to at most width cells, marking the cut
// with an ellipsis.
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
