package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tabula/internal/positionid"
)

// placement maps a location index to {white, black} counts.
type placement map[int][2]uint8

// pt returns the location index of track point n.
func pt(n int) int { return n + 1 }

// boardWith builds a board holding exactly the given counts.
func boardWith(p placement) *Board {
	var c positionid.Counts
	for idx, v := range p {
		c[idx] = v
	}
	return NewBoardFromCounts(c)
}

// validBoardWith builds a board from p and sends every remaining checker home.
func validBoardWith(p placement) *Board {
	b := boardWith(p)
	for _, c := range Colours {
		total := 0
		for i := range b.locations {
			total += b.locations[i].Count(c)
		}
		b.locations[HomeIndex].counts[c.index()] += uint8(CheckersPerColour - total)
	}
	return b
}

// raceBoardWith builds a board from p, sends remaining white checkers home
// and leaves remaining black checkers on the start.
func raceBoardWith(p placement) *Board {
	b := boardWith(p)
	var totals [NumColours]int
	for i := range b.locations {
		for _, c := range Colours {
			totals[c.index()] += b.locations[i].Count(c)
		}
	}
	b.locations[HomeIndex].counts[White.index()] += uint8(CheckersPerColour - totals[White.index()])
	b.locations[StartIndex].counts[Black.index()] += uint8(CheckersPerColour - totals[Black.index()])
	return b
}

func TestNewBoard(t *testing.T) {
	b := NewBoard()
	assert.True(t, b.IsValid())
	for _, c := range Colours {
		assert.Equal(t, CheckersPerColour, b.StartLocation().Count(c))
		assert.Equal(t, 0, b.BarLocation().Count(c))
		assert.Equal(t, 0, b.HomeLocation().Count(c))
	}
	for n := 1; n <= NumPoints; n++ {
		loc, err := b.TrackLocation(n)
		require.NoError(t, err)
		assert.True(t, loc.IsEmpty())
		assert.False(t, loc.Mixed())
	}
	assert.True(t, b.StartLocation().Mixed())
	assert.True(t, b.BarLocation().Mixed())
	assert.True(t, b.HomeLocation().Mixed())
	_, won := b.Winner()
	assert.False(t, won)
}

func TestTrackLocationRange(t *testing.T) {
	b := NewBoard()
	for _, n := range []int{-1, 0, 25, 100} {
		_, err := b.TrackLocation(n)
		assert.ErrorIs(t, err, ErrNoSuchLocation, "point %d", n)
	}
	loc, err := b.TrackLocation(24)
	require.NoError(t, err)
	assert.Equal(t, "24", loc.Name())
}

func TestCanApplyFromStart(t *testing.T) {
	b := NewBoard()
	for d := 1; d <= DieSides; d++ {
		assert.True(t, b.CanApply(White, MustMove(0, d)))
	}
	assert.False(t, b.CanApply(White, MustMove(3, 1)), "no checker on point 3")
	assert.False(t, b.CanApply(NoColour, MustMove(0, 1)))
	assert.False(t, b.CanApply(White, Move{}))
}

func TestBarTakesPriority(t *testing.T) {
	b := boardWith(placement{StartIndex: {10, 15}, BarIndex: {1, 0}, pt(5): {4, 0}})

	moves := b.PossibleMoves(White, []int{2, 3})
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, 0, m.Source(), "only bar entries allowed")
	}

	require.NoError(t, b.Apply(White, MustMove(0, 2)))
	assert.Equal(t, 0, b.BarLocation().Count(White))
	assert.Equal(t, 10, b.StartLocation().Count(White), "start untouched while entering from bar")
	loc, _ := b.TrackLocation(2)
	assert.Equal(t, 1, loc.Count(White))
}

func TestApplyBlockedLeavesBoardUnchanged(t *testing.T) {
	b := boardWith(placement{pt(3): {1, 0}, pt(5): {0, 2}})
	before := b.Counts()

	assert.False(t, b.CanApply(White, MustMove(3, 2)))
	err := b.Apply(White, MustMove(3, 2))
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, before, b.Counts())
}

func TestApplyKnocksToBar(t *testing.T) {
	b := validBoardWith(placement{pt(3): {1, 0}, pt(5): {0, 1}})

	require.NoError(t, b.Apply(White, MustMove(3, 2)))
	dst, _ := b.TrackLocation(5)
	assert.Equal(t, 1, dst.Count(White))
	assert.Equal(t, 0, dst.Count(Black))
	assert.Equal(t, 1, b.BarLocation().Count(Black))
	assert.True(t, b.IsValid())
}

func TestApplyPastLastPointGoesHome(t *testing.T) {
	b := validBoardWith(placement{pt(22): {2, 0}})
	require.True(t, b.CanApply(White, MustMove(22, 3)))
	require.True(t, b.CanApply(White, MustMove(22, 6)))

	require.NoError(t, b.Apply(White, MustMove(22, 6)))
	assert.Equal(t, 14, b.HomeLocation().Count(White))
	assert.Equal(t, HomePosition, MustMove(22, 6).Destination())
}

func TestWinner(t *testing.T) {
	b := raceBoardWith(placement{pt(24): {1, 0}})
	require.True(t, b.IsValid())
	assert.False(t, b.IsWinner(White))
	assert.False(t, b.IsWinner(Black))
	_, ok := b.Winner()
	assert.False(t, ok)

	require.NoError(t, b.Apply(White, MustMove(24, 1)))
	assert.True(t, b.IsWinner(White))
	assert.False(t, b.IsWinner(Black))
	assert.False(t, b.IsWinner(NoColour))
	c, ok := b.Winner()
	assert.True(t, ok)
	assert.Equal(t, White, c)
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		board *Board
		want  bool
	}{
		{"new board", NewBoard(), true},
		{"missing checkers", boardWith(placement{StartIndex: {14, 15}}), false},
		{"too many checkers", boardWith(placement{StartIndex: {15, 15}, pt(1): {1, 0}}), false},
		{"mixed point", validBoardWith(placement{pt(7): {1, 1}}), false},
		{"shared bar", validBoardWith(placement{BarIndex: {2, 3}}), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.board.IsValid())
		})
	}
}

func TestPossibleMoves(t *testing.T) {
	b := boardWith(placement{StartIndex: {1, 13}, pt(2): {1, 0}, pt(4): {0, 2}, pt(20): {2, 0}})

	moves := b.PossibleMoves(White, []int{2, 2, 5})
	var got []string
	for _, m := range moves {
		got = append(got, m.String())
	}
	// 2:2 is blocked at 4; 20:5 bears off.
	assert.Equal(t, []string{"0:2", "0:5", "2:5", "20:2", "20:5"}, got)
}

func TestPossibleMovesDegrades(t *testing.T) {
	b := NewBoard()
	assert.Empty(t, b.PossibleMoves(NoColour, []int{1, 2}))
	assert.Empty(t, b.PossibleMoves(White, nil))
	assert.Empty(t, b.PossibleMoves(White, []int{7, -4}))
	assert.Len(t, b.PossibleMoves(White, []int{7, 3}), 1, "valid values still used")
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBoard()
	b.SetName("live")
	clone := b.Clone()

	require.NoError(t, clone.Apply(White, MustMove(0, 4)))
	assert.Equal(t, CheckersPerColour, b.StartLocation().Count(White))
	loc, _ := b.TrackLocation(4)
	assert.True(t, loc.IsEmpty())

	require.NoError(t, b.Apply(Black, MustMove(0, 6)))
	loc, _ = clone.TrackLocation(6)
	assert.True(t, loc.IsEmpty())
	assert.Equal(t, "live", clone.Name())
	assert.False(t, b.Equal(clone))
}

func TestDumpRoundTrip(t *testing.T) {
	b := validBoardWith(placement{StartIndex: {3, 0}, BarIndex: {0, 2}, pt(1): {2, 0}, pt(24): {0, 5}})
	b.SetName("saved game")

	dump := b.String()
	assert.True(t, strings.HasPrefix(dump, "Board: saved game\n"))
	assert.Contains(t, dump, "Home")

	parsed, err := ParseBoard(dump)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(b))
	assert.Equal(t, "saved game", parsed.Name())
}

func TestParseBoardErrors(t *testing.T) {
	dump := NewBoard().String()
	tests := map[string]string{
		"truncated":   strings.Join(strings.Split(dump, "\n")[:10], "\n"),
		"wrong order": strings.Replace(dump, "Bar", "Pub", 1),
		"bad count":   strings.Replace(dump, "15", "x5", 1),
		"extra row":   dump + "Home 0 0\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBoard(in)
			assert.Error(t, err)
		})
	}
}

func TestPositionIDRoundTrip(t *testing.T) {
	b := validBoardWith(placement{pt(9): {3, 0}, pt(10): {0, 1}})
	got, err := BoardFromPositionID(b.PositionID())
	require.NoError(t, err)
	assert.True(t, got.Equal(b))

	_, err = BoardFromPositionID("garbage")
	assert.Error(t, err)
}
