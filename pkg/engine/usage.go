package engine

import "github.com/yourusername/tabula/internal/positionid"

// UsageAnalyzer computes how many dice of a roll can be used.
//
// The zero value runs the exhaustive search without caching. Greedy selects
// the single-path walk for repeated values: it commits to the first legal
// move at every ply and may undercount, so it is only suitable where speed
// matters more than exactness.
type UsageAnalyzer struct {
	Greedy bool
	Cache  *UsageCache
}

// MaxUsableDice returns the largest number of the given dice values colour c
// can legally use, in some order, from board b. Accepted shapes are one value,
// two values, or three or four repeats of one value; anything else yields 0.
//
// It panics with an *InvariantError if the board rules contradict themselves.
func MaxUsableDice(b *Board, c Colour, dice []int) int {
	n, err := UsageAnalyzer{}.MaxUsable(b, c, dice)
	if err != nil {
		panic(err)
	}
	return n
}

// MaxUsable is MaxUsableDice with the analyzer's options. The only error it
// returns is an *InvariantError.
func (a UsageAnalyzer) MaxUsable(b *Board, c Colour, dice []int) (int, error) {
	if b == nil || !c.Valid() {
		return 0, nil
	}
	for _, d := range dice {
		if d < 1 || d > DieSides {
			return 0, nil
		}
	}

	var context uint32
	var key positionid.Key
	if a.Cache != nil {
		context = usageContext(c, a.Greedy, dice)
		key = b.Key()
		if n, ok := a.Cache.Lookup(key, context); ok {
			return n, nil
		}
	}

	var n int
	var err error
	switch len(dice) {
	case 1:
		if len(b.PossibleMoves(c, dice)) > 0 {
			n = 1
		}
	case 2:
		n, err = twoDice(b, c, dice[0], dice[1])
	case 3, 4:
		if !sameValue(dice) {
			return 0, nil
		}
		if a.Greedy {
			n, err = greedyRepeats(b, c, dice[0], len(dice))
		} else {
			n, err = exhaustiveRepeats(b, c, dice[0], len(dice))
		}
	}
	if err != nil {
		return 0, err
	}

	if a.Cache != nil {
		a.Cache.Add(key, context, n)
	}
	return n, nil
}

func sameValue(dice []int) bool {
	for _, d := range dice[1:] {
		if d != dice[0] {
			return false
		}
	}
	return true
}

// twoDice tries both orders. Every first move is tried before a die is ruled
// out in second position, since one first move can open a point another blocks.
func twoDice(b *Board, c Colour, first, second int) (int, error) {
	firstMoves := b.PossibleMoves(c, []int{first})
	secondMoves := b.PossibleMoves(c, []int{second})

	ok, err := canFollow(b, c, firstMoves, second)
	if err != nil || ok {
		return boolToTwo(ok), err
	}
	ok, err = canFollow(b, c, secondMoves, first)
	if err != nil || ok {
		return boolToTwo(ok), err
	}

	if len(firstMoves) > 0 || len(secondMoves) > 0 {
		return 1, nil
	}
	return 0, nil
}

func boolToTwo(ok bool) int {
	if ok {
		return 2
	}
	return 0
}

// canFollow reports whether any of moves leaves a legal move with die next.
func canFollow(b *Board, c Colour, moves []Move, next int) (bool, error) {
	for _, m := range moves {
		after := b.Clone()
		if err := after.Apply(c, m); err != nil {
			return false, &InvariantError{Op: "two dice search", Err: err}
		}
		if len(after.PossibleMoves(c, []int{next})) > 0 {
			return true, nil
		}
	}
	return false, nil
}

type repeatKey struct {
	key       positionid.Key
	remaining int
}

// exhaustiveRepeats returns the deepest chain of moves with the same die
// value, searching every choice at every ply. Results are memoised per
// position and remaining depth.
func exhaustiveRepeats(b *Board, c Colour, die, count int) (int, error) {
	memo := make(map[repeatKey]int)
	dice := []int{die}

	var reach func(board *Board, remaining int) (int, error)
	reach = func(board *Board, remaining int) (int, error) {
		if remaining == 0 {
			return 0, nil
		}
		k := repeatKey{key: board.Key(), remaining: remaining}
		if n, ok := memo[k]; ok {
			return n, nil
		}

		best := 0
		for _, m := range board.PossibleMoves(c, dice) {
			after := board.Clone()
			if err := after.Apply(c, m); err != nil {
				return 0, &InvariantError{Op: "repeated dice search", Err: err}
			}
			sub, err := reach(after, remaining-1)
			if err != nil {
				return 0, err
			}
			if sub+1 > best {
				best = sub + 1
			}
			if best == remaining {
				break
			}
		}
		memo[k] = best
		return best, nil
	}

	return reach(b, count)
}

// greedyRepeats applies the first legal move at each ply and counts how far
// it gets.
func greedyRepeats(b *Board, c Colour, die, count int) (int, error) {
	board := b.Clone()
	dice := []int{die}
	for used := 0; used < count; used++ {
		moves := board.PossibleMoves(c, dice)
		if len(moves) == 0 {
			return used, nil
		}
		if err := board.Apply(c, moves[0]); err != nil {
			return 0, &InvariantError{Op: "greedy dice walk", Err: err}
		}
	}
	return count, nil
}
