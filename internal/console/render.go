package console

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/economy"
	"github.com/cory-johannsen/farkle/internal/game/match"
	"github.com/cory-johannsen/farkle/internal/game/profile"
	"github.com/cory-johannsen/farkle/internal/game/session"
)

const nameWidth = 24

// RenderMatch formats a match snapshot: the scoreboard, the dice and a
// prompt for the phase.
func RenderMatch(st match.State) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(Colorf(Dim, "target %s  wager %s", economy.FormatScore(st.TargetScore), economy.FormatGroschen(st.Wager)))
	b.WriteString("\n")
	for i, p := range st.Players {
		marker := "  "
		if i == st.Active && !st.Over() {
			marker = Colorize(BrightYellow, "> ")
		}
		line := marker + PadRight(Truncate(p.Name, nameWidth), nameWidth) + " " + Colorize(Bold, economy.FormatScore(p.TotalScore))
		if p.TurnScore > 0 {
			line += Colorf(Green, " (+%s)", economy.FormatScore(p.TurnScore))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if st.RollCount > 0 || st.Dice[0].Face > 0 {
		b.WriteString(RenderDice(st.Dice))
		if sel := st.Selection(); len(st.Dice.Selected()) > 0 {
			if sel.Legal() {
				b.WriteString(Colorf(Green, "  selection: %s", sel))
			} else {
				b.WriteString(Colorize(Red, "  selection does not score"))
			}
			b.WriteString("\n")
		}
	}

	switch st.Outcome {
	case match.OutcomeBust:
		b.WriteString(Colorf(BrightRed, "%s: bust!", st.ActivePlayer().Name))
		b.WriteString("\n")
	case match.OutcomeBanked:
		b.WriteString(Colorf(Cyan, "%s: banked.", st.ActivePlayer().Name))
		b.WriteString("\n")
	case match.OutcomeWon, match.OutcomeForfeit:
		b.WriteString(Colorf(BrightGreen, "%s wins the match.", st.Players[st.Winner].Name))
		b.WriteString("\n")
	}

	if !st.ActivePlayer().Computer {
		switch st.Phase {
		case match.PhaseRolling:
			b.WriteString(Colorize(BrightCyan, "roll to throw the dice"))
			b.WriteString("\n")
		case match.PhaseSelecting:
			hint := "select dice (e.g. select 1 5), then commit or bank"
			if st.Committed {
				hint = "select more dice, roll the rest, or bank"
			}
			b.WriteString(Colorize(BrightCyan, hint))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderDice formats the six dice with their one-based numbers. Locked dice
// are dimmed and selected dice highlighted.
func RenderDice(set dice.Set) string {
	var faces, labels strings.Builder
	for i, d := range set {
		face := " - "
		if d.Face > 0 {
			face = fmt.Sprintf("[%d]", d.Face)
		}
		switch {
		case d.Locked:
			face = Colorize(Dim, face)
		case d.Selected:
			face = Colorize(Bold+BrightYellow, face)
		default:
			face = Colorize(BrightWhite, face)
		}
		faces.WriteString(" " + face)
		label := fmt.Sprintf(" %d", i+1)
		if d.Variant != "" && d.Variant != dice.Normal {
			label += "*"
		} else {
			label += " "
		}
		labels.WriteString(" " + label)
	}
	return faces.String() + "\n" + Colorize(Dim, labels.String()) + "\n"
}

// RenderProfile formats the balance, owned dice and loadout.
func RenderProfile(p *profile.Profile) string {
	var b strings.Builder
	b.WriteString(Colorf(BrightYellow, "Purse: %s", economy.FormatGroschen(p.Groschen)))
	b.WriteString("\n")
	b.WriteString("Loadout:")
	for i, id := range p.Loadout {
		fmt.Fprintf(&b, " %d:%s", i+1, id)
	}
	b.WriteString("\n")
	if len(p.Owned) > 0 {
		b.WriteString("Owned:")
		for _, id := range sortedOwned(p.Owned) {
			fmt.Fprintf(&b, " %s x%d", id, p.Owned[id])
		}
		b.WriteString("\n")
	}
	opponent := p.Settings.Difficulty.String()
	if p.Settings.ChallengerID != "" {
		opponent = "challenger " + p.Settings.ChallengerID
	}
	b.WriteString(Colorf(Dim, "Opponent: %s", opponent))
	b.WriteString("\n")
	return b.String()
}

// RenderShop formats the shop stock as a table with the player's holdings.
func RenderShop(stock []dice.Variant, p *profile.Profile) string {
	var b strings.Builder
	b.WriteString(Colorize(BrightYellow, "The dice merchant's wares"))
	b.WriteString("\n")
	b.WriteString(Colorize(Dim,
		PadRight("id", 14)+PadRight("name", 22)+PadRight("price", 10)+PadRight("sells", 8)+PadRight("owned", 8)+"odds 1-6 (%)"))
	b.WriteString("\n")
	for _, v := range stock {
		owned := fmt.Sprintf("%d/%d", p.OwnedCount(v.ID), v.MaxOwned)
		sells := "-"
		if v.Sellable {
			sells = economy.FormatScore(v.SellPrice)
		}
		b.WriteString(PadRight(Colorize(BrightWhite, string(v.ID)), 14))
		b.WriteString(PadRight(Truncate(v.Name, 21), 22))
		b.WriteString(PadRight(economy.FormatScore(v.Price), 10))
		b.WriteString(PadRight(sells, 8))
		b.WriteString(PadRight(owned, 8))
		for _, w := range v.Faces {
			fmt.Fprintf(&b, "%3.0f", w*100)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderChallengers lists the roster, marking the selected challenger.
func RenderChallengers(list []catalog.Challenger, selected string) string {
	if len(list) == 0 {
		return Colorize(Dim, "No challengers are waiting at the tavern.") + "\n"
	}
	var b strings.Builder
	for _, ch := range list {
		marker := "  "
		if ch.ID == selected {
			marker = Colorize(BrightYellow, "> ")
		}
		b.WriteString(marker)
		b.WriteString(PadRight(Colorize(BrightWhite, ch.ID), 14))
		b.WriteString(PadRight(Truncate(ch.Name, nameWidth), nameWidth+1))
		b.WriteString(PadRight(ch.Difficulty.String(), 8))
		b.WriteString("to " + economy.FormatScore(ch.TargetScore))
		b.WriteString("\n")
		if ch.Description != "" {
			b.WriteString(Colorize(Dim, "    "+ch.Description))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderCollection lists the dice sets in view with collection progress.
func RenderCollection(sets []catalog.Set, owned map[dice.VariantID]int) string {
	if len(sets) == 0 {
		return Colorize(Dim, "No dice sets unlocked yet. Keep collecting to find the hidden ones.") + "\n"
	}
	var b strings.Builder
	for _, s := range sets {
		got, total := s.Progress(owned)
		progress := fmt.Sprintf("%d/%d", got, total)
		if got == total {
			progress = Colorize(BrightGreen, progress+" complete")
		}
		b.WriteString("  ")
		b.WriteString(PadRight(Truncate(s.Name, nameWidth), nameWidth+1))
		b.WriteString(progress)
		b.WriteString("\n")
		if s.Description != "" {
			b.WriteString(Colorize(Dim, "    "+s.Description))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderCollectionSummary is the one-line collection count shown with the
// profile.
func RenderCollectionSummary(sets []catalog.Set, owned map[dice.VariantID]int) string {
	done := 0
	for _, s := range sets {
		if s.Complete(owned) {
			done++
		}
	}
	return fmt.Sprintf("Sets: %d of %d complete\n", done, len(sets))
}

// RenderResult formats a match settlement.
func RenderResult(r session.Result) string {
	var b strings.Builder
	if r.Won {
		b.WriteString(Colorf(BrightGreen, "You win %s!", economy.FormatGroschen(r.Payout)))
	} else {
		b.WriteString(Colorf(Red, "You lose your wager of %s.", economy.FormatGroschen(r.Wager)))
	}
	b.WriteString("\n")
	if r.Reward != "" {
		b.WriteString(Colorf(BrightYellow, "Your opponent leaves behind a %s die.", r.Reward))
		b.WriteString("\n")
	}
	return b.String()
}

func sortedOwned(owned map[dice.VariantID]int) []dice.VariantID {
	ids := make([]dice.VariantID, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
