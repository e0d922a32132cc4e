package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxUsableDoubles(t *testing.T) {
	// One white checker on point 1 facing a black block that moves further away.
	tests := []struct {
		name  string
		block int
		want  int
	}{
		{"blocked at once", 2, 0},
		{"one step", 3, 1},
		{"two steps", 4, 2},
		{"three steps", 5, 3},
		{"all four", 6, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := validBoardWith(placement{pt(1): {1, 0}, pt(tc.block): {0, 2}})
			assert.Equal(t, tc.want, MaxUsableDice(b, White, []int{1, 1, 1, 1}))
		})
	}

	free := validBoardWith(placement{pt(1): {1, 0}})
	assert.Equal(t, 4, MaxUsableDice(free, White, []int{1, 1, 1, 1}))
	assert.Equal(t, 3, MaxUsableDice(free, White, []int{1, 1, 1}))
}

func TestMaxUsableTwoDice(t *testing.T) {
	tests := []struct {
		name  string
		board placement
		want  int
	}{
		{"stuck", placement{pt(1): {2, 0}, pt(2): {0, 2}, pt(3): {0, 2}}, 0},
		{"only the 1", placement{pt(1): {2, 0}, pt(3): {0, 2}, pt(4): {0, 2}}, 1},
		{"only the 2", placement{pt(1): {2, 0}, pt(2): {0, 2}, pt(4): {0, 2}}, 1},
		{"both from one point", placement{pt(1): {2, 0}, pt(4): {0, 4}}, 2},
		{"1 then 2", placement{pt(1): {1, 0}, pt(3): {0, 4}}, 2},
		{"2 then 1", placement{pt(1): {1, 0}, pt(2): {0, 4}}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := validBoardWith(tc.board)
			assert.Equal(t, tc.want, MaxUsableDice(b, White, []int{1, 2}))
			assert.Equal(t, tc.want, MaxUsableDice(b, White, []int{2, 1}))
		})
	}
}

func TestMaxUsableSecondColour(t *testing.T) {
	b := validBoardWith(placement{
		StartIndex: {0, 6},
		pt(2):      {1, 0},
		pt(3):      {3, 0},
		pt(4):      {4, 0},
		pt(5):      {0, 5},
		pt(6):      {0, 4},
		pt(7):      {1, 0},
		pt(8):      {4, 0},
		pt(9):      {2, 0},
	})
	assert.Equal(t, 2, MaxUsableDice(b, Black, []int{1, 3}))
}

func TestMaxUsableOrderIndependent(t *testing.T) {
	// The 5 is blocked first but playable after the 3.
	b := validBoardWith(placement{pt(10): {1, 0}, pt(15): {0, 2}})
	assert.Equal(t, 2, MaxUsableDice(b, White, []int{3, 5}))
	assert.Equal(t, 2, MaxUsableDice(b, White, []int{5, 3}))
}

func TestMaxUsableNearlyHome(t *testing.T) {
	// 14 white checkers home and the last one on 22: either die finishes.
	b := validBoardWith(placement{pt(22): {1, 0}})
	assert.Equal(t, 1, MaxUsableDice(b, White, []int{3, 5}))
}

func TestMaxUsableInvalidInput(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, 0, MaxUsableDice(nil, White, []int{1, 2}))
	assert.Equal(t, 0, MaxUsableDice(b, NoColour, []int{1, 2}))
	assert.Equal(t, 0, MaxUsableDice(b, White, nil))
	assert.Equal(t, 0, MaxUsableDice(b, White, []int{0, 2}))
	assert.Equal(t, 0, MaxUsableDice(b, White, []int{1, 2, 3}))
	assert.Equal(t, 0, MaxUsableDice(b, White, []int{1, 1, 1, 1, 1}))
	assert.Equal(t, 1, MaxUsableDice(b, White, []int{6}))
}

func TestGreedyMatchesExhaustive(t *testing.T) {
	boards := []*Board{
		NewBoard(),
		validBoardWith(placement{pt(1): {1, 0}, pt(21): {1, 0}, pt(5): {0, 2}}),
		validBoardWith(placement{BarIndex: {1, 0}, pt(3): {0, 2}, pt(9): {2, 0}}),
		validBoardWith(placement{pt(19): {3, 0}, pt(23): {0, 2}, StartIndex: {2, 4}}),
	}
	greedy := UsageAnalyzer{Greedy: true}
	exhaustive := UsageAnalyzer{}
	for i, b := range boards {
		for d := 1; d <= DieSides; d++ {
			dice := []int{d, d, d, d}
			want, err := exhaustive.MaxUsable(b, White, dice)
			require.NoError(t, err)
			got, err := greedy.MaxUsable(b, White, dice)
			require.NoError(t, err)
			assert.Equal(t, want, got, "board %d die %d", i, d)
		}
	}
}

func TestMaxUsableCached(t *testing.T) {
	cache := NewUsageCache(1024)
	a := UsageAnalyzer{Cache: cache}
	b := validBoardWith(placement{pt(10): {1, 0}, pt(15): {0, 2}})

	for i := 0; i < 3; i++ {
		n, err := a.MaxUsable(b, White, []int{5, 3})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
	lookups, hits, adds := cache.Stats()
	assert.Equal(t, uint64(3), lookups)
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), adds)

	// Dice order does not change the cache context.
	n, err := a.MaxUsable(b, White, []int{3, 5})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, hits, _ = cache.Stats()
	assert.Equal(t, uint64(3), hits)
}

func TestUsageCache(t *testing.T) {
	cache := NewUsageCache(4)
	key := NewBoard().Key()

	_, ok := cache.Lookup(key, 1)
	assert.False(t, ok)

	cache.Add(key, 1, 0)
	n, ok := cache.Lookup(key, 1)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = cache.Lookup(key, 2)
	assert.False(t, ok, "context is part of the key")

	cache.Flush()
	_, ok = cache.Lookup(key, 1)
	assert.False(t, ok)
	assert.Equal(t, 0.0, cache.HitRate())
}

func TestUsageContext(t *testing.T) {
	assert.Equal(t, usageContext(White, false, []int{2, 5}), usageContext(White, false, []int{5, 2}))
	assert.NotEqual(t, usageContext(White, false, []int{2, 5}), usageContext(Black, false, []int{2, 5}))
	assert.NotEqual(t, usageContext(White, false, []int{3, 3, 3, 3}), usageContext(White, true, []int{3, 3, 3, 3}))
	assert.NotEqual(t, usageContext(White, false, []int{3, 3, 3}), usageContext(White, false, []int{3, 3, 3, 3}))
}
