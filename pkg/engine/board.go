// Package engine implements the rules of a two-colour race game played on a
// 24-point track: board and location state, single-move legality, the dice
// usage analysis, turn validation and computer turn selection.
package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/yourusername/tabula/internal/positionid"
)

// Board geometry. Both colours enter from the start location, travel points
// 1 to 24 in increasing order and finish in the home location.
const (
	NumColours        = positionid.NumColours
	NumLocations      = positionid.NumLocations // start, bar, 24 points, home
	NumPoints         = 24
	CheckersPerColour = 15
	DieSides          = 6
	MaxMovesPerTurn   = 4

	StartIndex = 0
	BarIndex   = 1
	HomeIndex  = NumPoints + 2

	// HomePosition is the move destination used for any move that passes point 24.
	HomePosition = NumPoints + 1
)

// Board is the ordered set of locations of one game. The zero value is not
// usable; create boards with NewBoard. Copying a Board value copies its full
// state, which is what Clone relies on.
type Board struct {
	name      string
	locations [NumLocations]Location
}

// NewBoard returns a board with every checker of both colours at the start.
func NewBoard() *Board {
	b := emptyBoard()
	for _, c := range Colours {
		b.locations[StartIndex].counts[c.index()] = CheckersPerColour
	}
	return b
}

func emptyBoard() *Board {
	b := &Board{}
	b.locations[StartIndex] = NewLocation("Start", true)
	b.locations[BarIndex] = NewLocation("Bar", true)
	for n := 1; n <= NumPoints; n++ {
		b.locations[n+1] = NewLocation(strconv.Itoa(n), false)
	}
	b.locations[HomeIndex] = NewLocation("Home", true)
	return b
}

// NewBoardFromCounts builds a board holding exactly the given counts. The
// result is not checked; call IsValid before playing on it.
func NewBoardFromCounts(counts positionid.Counts) *Board {
	b := emptyBoard()
	for i := range b.locations {
		b.locations[i].counts = counts[i]
	}
	return b
}

// BoardFromPositionID decodes a position ID into a board.
func BoardFromPositionID(id string) (*Board, error) {
	counts, err := positionid.CountsFromPositionID(id)
	if err != nil {
		return nil, err
	}
	return NewBoardFromCounts(counts), nil
}

// Name returns the board's display name.
func (b *Board) Name() string { return b.name }

// SetName sets the board's display name.
func (b *Board) SetName(name string) { b.name = name }

// StartLocation returns the entry location.
func (b *Board) StartLocation() *Location { return &b.locations[StartIndex] }

// BarLocation returns the location holding knocked checkers.
func (b *Board) BarLocation() *Location { return &b.locations[BarIndex] }

// HomeLocation returns the finishing location.
func (b *Board) HomeLocation() *Location { return &b.locations[HomeIndex] }

// TrackLocation returns track point n (1 to 24).
func (b *Board) TrackLocation(n int) (*Location, error) {
	if n < 1 || n > NumPoints {
		return nil, fmt.Errorf("%w: point %d not in 1..%d", ErrNoSuchLocation, n, NumPoints)
	}
	return &b.locations[n+1], nil
}

// Locations returns a copy of every location in board order.
func (b *Board) Locations() []Location {
	out := make([]Location, NumLocations)
	copy(out, b.locations[:])
	return out
}

// resolve maps a move position to a location. Position 0 is the bar when
// colour has a knocked checker and the start otherwise; anything past the
// last point is home.
func (b *Board) resolve(c Colour, pos int) *Location {
	switch {
	case pos < 0:
		return nil
	case pos == 0:
		if b.locations[BarIndex].Count(c) > 0 {
			return &b.locations[BarIndex]
		}
		return &b.locations[StartIndex]
	case pos > NumPoints:
		return &b.locations[HomeIndex]
	}
	return &b.locations[pos+1]
}

// CanApply reports whether colour c may make move m.
func (b *Board) CanApply(c Colour, m Move) bool {
	if !c.Valid() || !m.Valid() {
		return false
	}
	src := b.resolve(c, m.Source())
	dst := b.resolve(c, m.Source()+m.Die())
	if src == nil || dst == nil {
		return false
	}
	return src.CanRemove(c) && dst.CanAdd(c)
}

// Apply makes move m for colour c. A knocked opposing checker goes to the bar.
// The board is unchanged when the move is illegal.
func (b *Board) Apply(c Colour, m Move) error {
	if !b.CanApply(c, m) {
		return fmt.Errorf("%w: %s for %s", ErrIllegalMove, m, c)
	}
	src := b.resolve(c, m.Source())
	dst := b.resolve(c, m.Source()+m.Die())

	if err := src.Remove(c); err != nil {
		return &InvariantError{Op: "apply " + m.String(), Err: err}
	}
	knocked, err := dst.Add(c)
	if err != nil {
		return &InvariantError{Op: "apply " + m.String(), Err: err}
	}
	if knocked != NoColour {
		if _, err := b.locations[BarIndex].Add(knocked); err != nil {
			return &InvariantError{Op: "knock " + m.String(), Err: err}
		}
	}
	return nil
}

// IsWinner reports whether every checker of colour c is home.
func (b *Board) IsWinner(c Colour) bool {
	return c.Valid() && b.locations[HomeIndex].Count(c) == CheckersPerColour
}

// Winner returns the first colour that has won, if any.
func (b *Board) Winner() (Colour, bool) {
	for _, c := range Colours {
		if b.IsWinner(c) {
			return c, true
		}
	}
	return NoColour, false
}

// IsValid reports whether every location obeys its occupancy rule and each
// colour has exactly CheckersPerColour checkers on the board.
func (b *Board) IsValid() bool {
	var totals [NumColours]int
	for i := range b.locations {
		loc := &b.locations[i]
		if !loc.IsValid() {
			return false
		}
		for _, c := range Colours {
			totals[c.index()] += loc.Count(c)
		}
	}
	for _, t := range totals {
		if t != CheckersPerColour {
			return false
		}
	}
	return true
}

// PossibleMoves returns every legal single move for colour c using any of
// the given dice values. Duplicate dice values are considered once and values
// outside 1..6 are ignored. The result is ordered by source then die value.
func (b *Board) PossibleMoves(c Colour, dice []int) []Move {
	if !c.Valid() || len(dice) == 0 {
		return nil
	}

	values := distinctDice(dice)
	if len(values) == 0 {
		return nil
	}

	var sources []int
	if b.locations[BarIndex].Count(c) > 0 {
		sources = []int{0}
	} else {
		if b.locations[StartIndex].Count(c) > 0 {
			sources = append(sources, 0)
		}
		for n := 1; n <= NumPoints; n++ {
			if b.locations[n+1].Count(c) > 0 {
				sources = append(sources, n)
			}
		}
	}

	var moves []Move
	for _, src := range sources {
		for _, d := range values {
			m := Move{source: uint8(src), die: uint8(d)}
			if b.CanApply(c, m) {
				moves = append(moves, m)
			}
		}
	}
	return moves
}

// distinctDice returns the sorted distinct in-range values of dice.
func distinctDice(dice []int) []int {
	var seen [DieSides + 1]bool
	var out []int
	for _, d := range dice {
		if d < 1 || d > DieSides || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	clone := *b
	return &clone
}

// Counts returns the per-location, per-colour checker counts.
func (b *Board) Counts() positionid.Counts {
	var counts positionid.Counts
	for i := range b.locations {
		counts[i] = b.locations[i].counts
	}
	return counts
}

// Key returns the compact key of the position.
func (b *Board) Key() positionid.Key {
	return positionid.MakeKey(b.Counts())
}

// PositionID returns the printable ID of the position.
func (b *Board) PositionID() string {
	return positionid.PositionID(b.Counts())
}

// Equal reports whether two boards hold the same counts.
func (b *Board) Equal(other *Board) bool {
	return b.Counts() == other.Counts()
}
