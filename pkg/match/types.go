// Package match keeps the record of a game and reads and writes saved games.
//
// A saved game is a line-oriented key = value file. Keys may appear in any
// order; lines starting with '#' or ';' are comments. The metadata keys
// describe the rules the file was written under and must match the running
// program for the file to load.
package match

import (
	"github.com/yourusername/tabula/pkg/dice"
	"github.com/yourusername/tabula/pkg/engine"
)

// Metadata describes the rule constants a saved game depends on.
type Metadata struct {
	Colours           []string
	DieSides          int
	Points            int
	CheckersPerColour int
}

// CurrentMetadata returns the metadata of the running rules.
func CurrentMetadata() Metadata {
	colours := make([]string, len(engine.Colours))
	for i, c := range engine.Colours {
		colours[i] = c.String()
	}
	return Metadata{
		Colours:           colours,
		DieSides:          dice.Sides,
		Points:            engine.NumPoints,
		CheckersPerColour: engine.CheckersPerColour,
	}
}

// Record is the saved state of a game plus its history.
type Record struct {
	Name     string
	Metadata Metadata
	Board    *engine.Board
	Current  engine.Colour
	Dice     []int                    // nil when the current player has not rolled
	Players  map[engine.Colour]string // player kind per colour; absent when unset
	Turns    int
	Winner   engine.Colour
	Actions  []Action
}

// ActionType is the kind of a history entry.
type ActionType int

const (
	ActionRoll    ActionType = iota // Dice roll
	ActionTurn                      // Accepted turn
	ActionForfeit                   // Illegal turn, game lost
	ActionPause                     // Player paused the game
)

var actionNames = [...]string{"roll", "turn", "forfeit", "pause"}

func (a ActionType) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Action is one history entry.
type Action struct {
	Type   ActionType
	Colour engine.Colour
	Dice   []int       // for ActionRoll
	Turn   engine.Turn // for ActionTurn
}

// NewRecord returns a record for a fresh game.
func NewRecord(name string) *Record {
	b := engine.NewBoard()
	b.SetName(name)
	return &Record{
		Name:     name,
		Metadata: CurrentMetadata(),
		Board:    b,
		Current:  engine.White,
		Players:  make(map[engine.Colour]string),
	}
}

// AddRoll records a roll.
func (r *Record) AddRoll(c engine.Colour, values []int) {
	r.Actions = append(r.Actions, Action{
		Type:   ActionRoll,
		Colour: c,
		Dice:   append([]int(nil), values...),
	})
}

// AddTurn records an accepted turn.
func (r *Record) AddTurn(c engine.Colour, t engine.Turn) {
	r.Actions = append(r.Actions, Action{Type: ActionTurn, Colour: c, Turn: t})
}

// AddForfeit records a turn that lost the game.
func (r *Record) AddForfeit(c engine.Colour) {
	r.Actions = append(r.Actions, Action{Type: ActionForfeit, Colour: c})
}

// AddPause records a pause.
func (r *Record) AddPause(c engine.Colour) {
	r.Actions = append(r.Actions, Action{Type: ActionPause, Colour: c})
}
