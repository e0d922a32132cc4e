package simulate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tabula/pkg/engine"
	"github.com/yourusername/tabula/pkg/game"
)

func contestants(t *testing.T, a, b string) (Contestant, Contestant) {
	t.Helper()
	ca, err := NewContestant(a, nil)
	require.NoError(t, err)
	cb, err := NewContestant(b, engine.NewUsageCache(1024))
	require.NoError(t, err)
	return ca, cb
}

func TestRunCountsEveryGame(t *testing.T) {
	a, b := contestants(t, game.KindRandom, game.KindRandom)

	var seen []Progress
	res, err := Run(context.Background(), Options{Games: 12, Workers: 3, Seed: 7, A: a, B: b}, func(p Progress) {
		seen = append(seen, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 12, res.Games)
	assert.Equal(t, 12, res.WinsA+res.WinsB+res.Errors)
	assert.Zero(t, res.Errors)
	assert.Positive(t, res.Turns)
	assert.Positive(t, res.MeanTurns)

	require.Len(t, seen, 12)
	for i, p := range seen {
		assert.Equal(t, i+1, p.Done)
		assert.Equal(t, 12, p.Total)
	}
	last := seen[len(seen)-1]
	assert.Equal(t, res.WinsA, last.WinsA)
	assert.Equal(t, res.WinsB, last.WinsB)
}

func TestRunIsDeterministicAcrossWorkers(t *testing.T) {
	a, b := contestants(t, game.KindComputer, game.KindRandom)

	one, err := Run(context.Background(), Options{Games: 8, Workers: 1, Seed: 42, A: a, B: b}, nil)
	require.NoError(t, err)
	many, err := Run(context.Background(), Options{Games: 8, Workers: 4, Seed: 42, A: a, B: b}, nil)
	require.NoError(t, err)

	assert.Equal(t, one.WinsA, many.WinsA)
	assert.Equal(t, one.WinsB, many.WinsB)
	assert.Equal(t, one.Turns, many.Turns)
}

func TestComputerBeatsRandom(t *testing.T) {
	if testing.Short() {
		t.Skip("plays a full batch")
	}
	a, b := contestants(t, game.KindComputer, game.KindRandom)

	res, err := Run(context.Background(), Options{Games: 40, Seed: 1, A: a, B: b}, nil)
	require.NoError(t, err)
	assert.Greater(t, res.WinsA, res.WinsB)
	assert.Positive(t, res.Sigma)
	assert.Greater(t, res.WinRateA(), 0.5)
}

func TestRunRejectsBadOptions(t *testing.T) {
	a, b := contestants(t, game.KindRandom, game.KindRandom)

	_, err := Run(context.Background(), Options{Games: 0, A: a, B: b}, nil)
	assert.Error(t, err)
	_, err = Run(context.Background(), Options{Games: 1, A: a}, nil)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	a, b := contestants(t, game.KindRandom, game.KindRandom)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Games: 4, Workers: 2, A: a, B: b}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewContestantKinds(t *testing.T) {
	for _, kind := range []string{game.KindComputer, game.KindRandom} {
		c, err := NewContestant(kind, nil)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, c.Name)
		assert.NotNil(t, c.New(1))
	}

	_, err := NewContestant(game.KindHuman, nil)
	assert.ErrorIs(t, err, game.ErrUnknownKind)
	_, err = NewContestant("oracle", nil)
	assert.ErrorIs(t, err, game.ErrUnknownKind)
}

func TestSigma(t *testing.T) {
	assert.Zero(t, sigma(0, 0))
	assert.Zero(t, sigma(50, 100))
	assert.InDelta(t, 2.0, sigma(60, 100), 1e-9)
	assert.InDelta(t, -2.0, sigma(40, 100), 1e-9)
}

func TestResultRates(t *testing.T) {
	var r Result
	assert.Zero(t, r.TurnsPerSecond())
	assert.Zero(t, r.WinRateA())

	r = Result{WinsA: 3, WinsB: 1, Turns: 100, Duration: 2e9}
	assert.InDelta(t, 0.75, r.WinRateA(), 1e-9)
	assert.InDelta(t, 50.0, r.TurnsPerSecond(), 1e-9)
}
