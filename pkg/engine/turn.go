package engine

import "fmt"

// TakeTurn validates and applies a whole turn for colour c with the rolled
// dice. Dice must be two different values or four equal values. Each move
// must consume a rolled value, and the turn must use as many dice as can
// legally be used unless it wins first; moves after a win are ignored.
//
// On any failure the board is restored and the error wraps ErrIllegalTurn,
// or ErrInvariant for an engine logic fault.
func (b *Board) TakeTurn(c Colour, turn Turn, dice []int) error {
	return UsageAnalyzer{}.TakeTurn(b, c, turn, dice)
}

// TakeTurn is Board.TakeTurn using the analyzer to count usable dice.
func (a UsageAnalyzer) TakeTurn(b *Board, c Colour, turn Turn, dice []int) error {
	if b == nil || !c.Valid() || dice == nil {
		return illegalTurn("colour, turn and dice are required")
	}

	snapshot := *b

	if err := checkDiceShape(dice); err != nil {
		return err
	}

	rolled := make(map[int]int, len(dice))
	for _, d := range dice {
		rolled[d]++
	}
	for value, used := range turn.diceUsed() {
		if used > rolled[value] {
			return illegalTurn("die %d used %d times but rolled %d times", value, used, rolled[value])
		}
	}

	required, err := a.MaxUsable(b, c, dice)
	if err != nil {
		return err
	}

	applied := 0
	won := false
	for i, m := range turn.moves {
		if err := b.Apply(c, m); err != nil {
			*b = snapshot
			return fmt.Errorf("%w: move %d (%s): %w", ErrIllegalTurn, i+1, m, err)
		}
		applied++
		if b.IsWinner(c) {
			won = true
			break
		}
	}

	if !won && applied < required {
		*b = snapshot
		return illegalTurn("not all usable dice were used (%d/%d)", applied, required)
	}
	return nil
}

// checkDiceShape accepts two different values or four equal values in 1..6.
func checkDiceShape(dice []int) error {
	for _, d := range dice {
		if d < 1 || d > DieSides {
			return illegalTurn("die value %d not in 1..%d", d, DieSides)
		}
	}
	switch len(dice) {
	case 4:
		if !sameValue(dice) {
			return illegalTurn("four dice values must all be equal")
		}
	case 2:
		if dice[0] == dice[1] {
			return illegalTurn("a double must be given as four values")
		}
	default:
		return illegalTurn("got %d dice values, want 2 or 4", len(dice))
	}
	return nil
}
