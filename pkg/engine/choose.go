package engine

import (
	"sort"

	"github.com/yourusername/tabula/internal/heuristic"
)

// Chooser selects a computer turn by scoring every maximal legal turn.
type Chooser struct {
	Weights heuristic.Weights
	Usage   UsageAnalyzer
}

// NewChooser returns a chooser with the default weights and no cache.
func NewChooser() *Chooser {
	return &Chooser{Weights: heuristic.DefaultWeights()}
}

// Candidate is a scored turn.
type Candidate struct {
	Turn  Turn
	Score float64
}

// ChooseTurn picks a turn for colour c with the default chooser.
func ChooseTurn(c Colour, b *Board, dice []int) (Turn, error) {
	return NewChooser().Choose(c, b, dice)
}

// Choose returns the highest scoring turn. Ties go to the turn found first.
// Invalid arguments, an invalid board, or a roll with no usable dice give
// the empty turn. The only error is an *InvariantError.
func (ch *Chooser) Choose(c Colour, b *Board, dice []int) (Turn, error) {
	candidates, err := ch.Rank(c, b, dice)
	if err != nil || len(candidates) == 0 {
		return Turn{}, err
	}
	return candidates[0].Turn, nil
}

// Rank returns every candidate turn ordered by score, best first. Equal
// scores keep enumeration order.
func (ch *Chooser) Rank(c Colour, b *Board, dice []int) ([]Candidate, error) {
	turns, required, err := ch.enumerate(c, b, dice)
	if err != nil || len(turns) == 0 {
		return nil, err
	}

	before := b.Counts()
	candidates := make([]Candidate, 0, len(turns))
	for _, t := range turns {
		after := b.Clone()
		applied := 0
		for _, m := range t.moves {
			if err := after.Apply(c, m); err != nil {
				return nil, &InvariantError{Op: "replay candidate " + t.String(), Err: err}
			}
			applied++
		}
		score := ch.Weights.Evaluate(heuristic.Input{
			Before:   before,
			After:    after.Counts(),
			Me:       c.index(),
			Applied:  applied,
			Required: required,
		})
		candidates = append(candidates, Candidate{Turn: t, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// EnumerateTurns returns every turn colour c can play with the dice that
// uses the maximum number of usable dice, plus any shorter turn that wins.
func (ch *Chooser) EnumerateTurns(c Colour, b *Board, dice []int) ([]Turn, error) {
	turns, _, err := ch.enumerate(c, b, dice)
	return turns, err
}

func (ch *Chooser) enumerate(c Colour, b *Board, dice []int) ([]Turn, int, error) {
	if b == nil || !c.Valid() || !b.IsValid() {
		return nil, 0, nil
	}
	if len(dice) != 2 && len(dice) != 4 {
		return nil, 0, nil
	}

	required, err := ch.Usage.MaxUsable(b, c, dice)
	if err != nil || required == 0 {
		return nil, required, err
	}

	var turns []Turn
	var walk func(board *Board, remaining []int, prefix []Move) error
	walk = func(board *Board, remaining []int, prefix []Move) error {
		if len(prefix) == required {
			turns = append(turns, Turn{moves: append([]Move(nil), prefix...)})
			return nil
		}
		for _, m := range board.PossibleMoves(c, remaining) {
			next := board.Clone()
			if err := next.Apply(c, m); err != nil {
				return &InvariantError{Op: "enumerate " + m.String(), Err: err}
			}
			line := append(prefix[:len(prefix):len(prefix)], m)
			if next.IsWinner(c) {
				turns = append(turns, Turn{moves: line})
				continue
			}

			rest := removeOne(remaining, m.Die())
			need := required - len(line)
			if need > 0 {
				usable, err := ch.Usage.MaxUsable(next, c, rest)
				if err != nil {
					return err
				}
				if usable < need {
					continue
				}
			}
			if err := walk(next, rest, line); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(b, dice, nil); err != nil {
		return nil, required, err
	}
	return turns, required, nil
}

// removeOne returns a copy of values without one instance of v.
func removeOne(values []int, v int) []int {
	out := make([]int, 0, len(values))
	removed := false
	for _, x := range values {
		if x == v && !removed {
			removed = true
			continue
		}
		out = append(out, x)
	}
	return out
}
