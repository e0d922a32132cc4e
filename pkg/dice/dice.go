// Package dice rolls the two dice used each turn.
package dice

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Sides is the number of faces on each die.
const Sides = 6

var (
	// ErrNotRolled is returned when a value is read before the first roll.
	ErrNotRolled = errors.New("dice not rolled yet")
	// ErrInvalidValues is returned for a roll that could not have come from two dice.
	ErrInvalidValues = errors.New("invalid dice values")
)

// Source supplies uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Die is a single die. The zero value uses the global random source and has
// not been rolled.
type Die struct {
	src   Source
	value int
}

// NewDie returns a die drawing from src, or from the global source when src is nil.
func NewDie(src Source) *Die {
	return &Die{src: src}
}

// Roll rolls the die and returns the new value.
func (d *Die) Roll() int {
	src := d.src
	if src == nil {
		src = globalSource{}
	}
	d.value = src.IntN(Sides) + 1
	return d.value
}

// Value returns the last rolled value.
func (d *Die) Value() (int, error) {
	if d.value == 0 {
		return 0, ErrNotRolled
	}
	return d.value, nil
}

// Set forces the die to show v.
func (d *Die) Set(v int) error {
	if v < 1 || v > Sides {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidValues, v, Sides)
	}
	d.value = v
	return nil
}

// Clear returns the die to the unrolled state.
func (d *Die) Clear() { d.value = 0 }

// HasRolled reports whether the die shows a value.
func (d *Die) HasRolled() bool { return d.value != 0 }

// Dice is the pair rolled each turn. It is not safe for concurrent use;
// give every game its own Dice.
type Dice struct {
	pair [2]Die
}

// New returns dice drawing from src, or from the global source when src is nil.
func New(src Source) *Dice {
	d := &Dice{}
	d.pair[0].src = src
	d.pair[1].src = src
	return d
}

// NewSeeded returns dice with a reproducible sequence.
func NewSeeded(seed uint64) *Dice {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Roll rolls both dice and returns the values to play.
func (d *Dice) Roll() []int {
	d.pair[0].Roll()
	d.pair[1].Roll()
	values, _ := d.Values()
	return values
}

// Values returns the values to play: the two faces, or four copies of the
// face when both dice match.
func (d *Dice) Values() ([]int, error) {
	a, err := d.pair[0].Value()
	if err != nil {
		return nil, err
	}
	b, err := d.pair[1].Value()
	if err != nil {
		return nil, err
	}
	if a == b {
		return []int{a, a, a, a}, nil
	}
	return []int{a, b}, nil
}

// Set forces both faces.
func (d *Dice) Set(a, b int) error {
	if err := d.pair[0].Set(a); err != nil {
		return err
	}
	if err := d.pair[1].Set(b); err != nil {
		d.pair[0].Clear()
		return err
	}
	return nil
}

// Clear returns both dice to the unrolled state.
func (d *Dice) Clear() {
	d.pair[0].Clear()
	d.pair[1].Clear()
}

// HasRolled reports whether both dice show a value.
func (d *Dice) HasRolled() bool {
	return d.pair[0].HasRolled() && d.pair[1].HasRolled()
}

// ValidateValues checks that values is a possible roll: two different values
// or four equal values, each in 1..Sides.
func ValidateValues(values []int) error {
	for _, v := range values {
		if v < 1 || v > Sides {
			return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidValues, v, Sides)
		}
	}
	switch len(values) {
	case 2:
		if values[0] == values[1] {
			return fmt.Errorf("%w: a double is four values", ErrInvalidValues)
		}
	case 4:
		for _, v := range values[1:] {
			if v != values[0] {
				return fmt.Errorf("%w: four values must be equal", ErrInvalidValues)
			}
		}
	default:
		return fmt.Errorf("%w: got %d values, want 2 or 4", ErrInvalidValues, len(values))
	}
	return nil
}
