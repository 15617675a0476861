package sim

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Confidence is the level of the win-rate interval in a Summary.
const Confidence = 0.95

// CI is a closed interval.
type CI struct {
	Lo, Hi float64
}

// Summary aggregates the outcomes of one matchup. Rates are from the
// perspective of the matchup's first entrant.
type Summary struct {
	Matchup   Matchup
	Matches   int
	Wins      int
	WinRate   float64
	WinRateCI CI
	// TurnsMean, TurnsStdDev and TurnsMedian describe match length in turns.
	TurnsMean   float64
	TurnsStdDev float64
	TurnsMedian float64
	// BustRate is busts per match for each entrant.
	BustRate [2]float64
	// MarginMean is the mean final score difference, first minus second.
	MarginMean float64
}

// Summarize reduces raw outcomes to per-matchup statistics.
//
// Precondition: len(outcomes) == len(matchups).
func Summarize(matchups []Matchup, outcomes [][]Outcome) []Summary {
	out := make([]Summary, len(matchups))
	for i, m := range matchups {
		out[i] = summarize(m, outcomes[i])
	}
	return out
}

func summarize(m Matchup, outs []Outcome) Summary {
	s := Summary{Matchup: m, Matches: len(outs)}
	if len(outs) == 0 {
		return s
	}
	turns := make([]float64, len(outs))
	margins := make([]float64, len(outs))
	var busts [2]int
	for i, o := range outs {
		if o.Winner == 0 {
			s.Wins++
		}
		turns[i] = float64(o.Turns)
		margins[i] = float64(o.Scores[0] - o.Scores[1])
		busts[0] += o.Busts[0]
		busts[1] += o.Busts[1]
	}
	s.WinRate, s.WinRateCI = proportionCI(s.Wins, s.Matches, Confidence)
	s.TurnsMean, s.TurnsStdDev = stat.MeanStdDev(turns, nil)
	slices.Sort(turns)
	s.TurnsMedian = stat.Quantile(0.5, stat.Empirical, turns, nil)
	s.MarginMean = stat.Mean(margins, nil)
	for p := range busts {
		s.BustRate[p] = float64(busts[p]) / float64(s.Matches)
	}
	return s
}

// proportionCI returns the Clopper-Pearson exact interval for k successes
// out of n.
func proportionCI(k, n int, confidence float64) (float64, CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	ci := CI{Lo: 0, Hi: 1}
	if k > 0 {
		ci.Lo = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	}
	if k < n {
		ci.Hi = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	}
	return float64(k) / float64(n), ci
}

var columns = []string{"matchup", "n", "win %", "95% CI", "turns", "sd", "median", "busts/match", "margin"}

// WriteTable renders summaries as an aligned text table.
func WriteTable(w io.Writer, summaries []Summary) error {
	rows := [][]string{columns}
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Matchup.String(),
			fmt.Sprintf("%d", s.Matches),
			fmt.Sprintf("%.1f", s.WinRate*100),
			fmt.Sprintf("%.1f-%.1f", s.WinRateCI.Lo*100, s.WinRateCI.Hi*100),
			fmt.Sprintf("%.1f", s.TurnsMean),
			fmt.Sprintf("%.1f", s.TurnsStdDev),
			fmt.Sprintf("%.0f", s.TurnsMedian),
			fmt.Sprintf("%.2f / %.2f", s.BustRate[0], s.BustRate[1]),
			fmt.Sprintf("%+.0f", s.MarginMean),
		})
	}

	widths := make([]int, len(columns))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	var b strings.Builder
	for r, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(row)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		b.WriteString("\n")
		if r == 0 {
			total := 2 * (len(widths) - 1)
			for _, w := range widths {
				total += w
			}
			b.WriteString(strings.Repeat("-", total))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
