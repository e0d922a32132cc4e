package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Move relocates one checker from a source position by a die value.
// Position 0 is the start, or the bar when the moving colour has a knocked
// checker. Moves are immutable; build them with NewMove.
type Move struct {
	source uint8
	die    uint8
}

// NewMove returns the move from source (0 to 24) by die (1 to 6).
func NewMove(source, die int) (Move, error) {
	if source < 0 || source > NumPoints {
		return Move{}, fmt.Errorf("%w: source %d not in 0..%d", ErrNoSuchLocation, source, NumPoints)
	}
	if die < 1 || die > DieSides {
		return Move{}, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidDie, die, DieSides)
	}
	return Move{source: uint8(source), die: uint8(die)}, nil
}

// MustMove is like NewMove but panics on out-of-range fields. It is meant for
// fixed moves in tests and tables.
func MustMove(source, die int) Move {
	m, err := NewMove(source, die)
	if err != nil {
		panic(err)
	}
	return m
}

// Source returns the source position.
func (m Move) Source() int { return int(m.source) }

// Die returns the die value consumed.
func (m Move) Die() int { return int(m.die) }

// Valid reports whether the move was built with in-range fields. The zero
// Move is not valid.
func (m Move) Valid() bool {
	return m.source <= NumPoints && m.die >= 1 && m.die <= DieSides
}

// Destination returns the target position; HomePosition for anything past point 24.
func (m Move) Destination() int {
	d := m.Source() + m.Die()
	if d > NumPoints {
		return HomePosition
	}
	return d
}

// String returns the "source:die" form accepted by ParseMove.
func (m Move) String() string {
	return fmt.Sprintf("%d:%d", m.source, m.die)
}

// Notation returns the move as "from/to", e.g. "0/3" or "22/home".
func (m Move) Notation() string {
	to := strconv.Itoa(m.Destination())
	if m.Destination() == HomePosition {
		to = "home"
	}
	return fmt.Sprintf("%d/%s", m.source, to)
}

// ParseMove parses the "source:die" form.
func ParseMove(s string) (Move, error) {
	src, die, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Move{}, fmt.Errorf("move %q: want source:die", s)
	}
	source, err := strconv.Atoi(src)
	if err != nil {
		return Move{}, fmt.Errorf("move %q: bad source: %w", s, err)
	}
	value, err := strconv.Atoi(die)
	if err != nil {
		return Move{}, fmt.Errorf("move %q: bad die: %w", s, err)
	}
	return NewMove(source, value)
}

// Turn is an ordered batch of at most MaxMovesPerTurn moves.
type Turn struct {
	moves []Move
}

// NewTurn builds a turn from the given moves.
func NewTurn(moves ...Move) (Turn, error) {
	var t Turn
	for _, m := range moves {
		if err := t.Add(m); err != nil {
			return Turn{}, err
		}
	}
	return t, nil
}

// Add appends a move. Adding a fifth move fails.
func (t *Turn) Add(m Move) error {
	if !m.Valid() {
		return fmt.Errorf("%w: uninitialised move", ErrIllegalMove)
	}
	if len(t.moves) >= MaxMovesPerTurn {
		return ErrTurnFull
	}
	t.moves = append(t.moves, m)
	return nil
}

// Moves returns a copy of the turn's moves in order.
func (t Turn) Moves() []Move {
	out := make([]Move, len(t.moves))
	copy(out, t.moves)
	return out
}

// Len returns the number of moves.
func (t Turn) Len() int { return len(t.moves) }

// IsEmpty reports whether the turn has no moves (a forfeited roll).
func (t Turn) IsEmpty() bool { return len(t.moves) == 0 }

// diceUsed counts how many times each die value is consumed.
func (t Turn) diceUsed() map[int]int {
	used := make(map[int]int, len(t.moves))
	for _, m := range t.moves {
		used[m.Die()]++
	}
	return used
}

// String returns the moves in ParseTurn form, separated by spaces.
func (t Turn) String() string {
	parts := make([]string, len(t.moves))
	for i, m := range t.moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// Notation returns the moves in from/to form, separated by spaces.
func (t Turn) Notation() string {
	parts := make([]string, len(t.moves))
	for i, m := range t.moves {
		parts[i] = m.Notation()
	}
	return strings.Join(parts, " ")
}

// ParseTurn parses space or comma separated "source:die" moves.
// An empty string is the empty turn.
func ParseTurn(s string) (Turn, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	var t Turn
	for _, f := range fields {
		m, err := ParseMove(f)
		if err != nil {
			return Turn{}, err
		}
		if err := t.Add(m); err != nil {
			return Turn{}, err
		}
	}
	return t, nil
}
