package match

import "fmt"

// Action is a request to advance the match. The set of actions is closed.
type Action interface {
	fmt.Stringer
	action()
}

// PlaceWager records the wager and opens the first turn.
type PlaceWager struct{ Amount int }

// Roll rolls every unlocked die.
type Roll struct{}

// Toggle flips the selection of one unlocked die.
type Toggle struct{ Index int }

// Select replaces the current selection with exactly the given dice.
type Select struct{ Indices []int }

// Commit locks the selected dice and adds their score to the turn.
type Commit struct{}

// Bank commits any pending selection and banks the turn score.
type Bank struct{}

// PassTurn hands the dice to the other player after a bank or bust.
type PassTurn struct{}

// Forfeit ends the match in favour of the other player.
type Forfeit struct{ Player int }

func (PlaceWager) action() {}
func (Roll) action()       {}
func (Toggle) action()     {}
func (Select) action()     {}
func (Commit) action()     {}
func (Bank) action()       {}
func (PassTurn) action()   {}
func (Forfeit) action()    {}

func (a PlaceWager) String() string { return fmt.Sprintf("wager(%d)", a.Amount) }
func (Roll) String() string         { return "roll" }
func (a Toggle) String() string     { return fmt.Sprintf("toggle(%d)", a.Index) }
func (a Select) String() string     { return fmt.Sprintf("select(%v)", a.Indices) }
func (Commit) String() string       { return "commit" }
func (Bank) String() string         { return "bank" }
func (PassTurn) String() string     { return "pass" }
func (a Forfeit) String() string    { return fmt.Sprintf("forfeit(%d)", a.Player) }
