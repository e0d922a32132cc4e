// Package simulate plays batches of games between two players and reports
// how often each one wins.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/tabula/pkg/dice"
	"github.com/yourusername/tabula/pkg/engine"
	"github.com/yourusername/tabula/pkg/game"
	"github.com/yourusername/tabula/pkg/match"
)

// Contestant names a player and builds a fresh instance for each game.
type Contestant struct {
	Name string
	New  func(seed uint64) game.Player
}

// NewContestant returns a contestant for a player kind. Computer players
// share cache, which may be nil.
func NewContestant(kind string, cache *engine.UsageCache) (Contestant, error) {
	switch kind {
	case game.KindComputer:
		return Contestant{Name: kind, New: func(uint64) game.Player {
			ch := engine.NewChooser()
			ch.Usage.Cache = cache
			return game.NewComputerPlayer(ch)
		}}, nil
	case game.KindRandom:
		return Contestant{Name: kind, New: func(seed uint64) game.Player {
			return game.NewRandomPlayer(rand.New(rand.NewPCG(seed, ^seed)))
		}}, nil
	}
	return Contestant{}, fmt.Errorf("%w: %q cannot be simulated", game.ErrUnknownKind, kind)
}

// Options configures a run.
type Options struct {
	Games   int
	Workers int // defaults to runtime.NumCPU()
	Seed    uint64
	A, B    Contestant
	Logger  logrus.FieldLogger
	Cache   *engine.UsageCache // used to validate turns; may be nil
}

// Progress is reported after every finished game.
type Progress struct {
	Done   int
	Total  int
	WinsA  int
	WinsB  int
	Errors int
}

// Result summarises a run.
type Result struct {
	Games    int
	WinsA    int
	WinsB    int
	Errors   int
	Forfeits int
	Turns    int
	Duration time.Duration

	MeanTurns   float64
	StdDevTurns float64

	// Sigma is how many standard deviations A's win count lies from an even
	// split, treating each game as a fair coin.
	Sigma float64
}

// TurnsPerSecond returns the throughput of the run.
func (r Result) TurnsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Turns) / r.Duration.Seconds()
}

// WinRateA returns A's share of decided games.
func (r Result) WinRateA() float64 {
	decided := r.WinsA + r.WinsB
	if decided == 0 {
		return 0
	}
	return float64(r.WinsA) / float64(decided)
}

type gameResult struct {
	winnerA bool
	forfeit bool
	turns   int
	err     error
}

// Run plays opts.Games games. A plays White in even-numbered games and Black
// in odd ones; game i rolls dice seeded with opts.Seed+i. progress, when not
// nil, is called from a single goroutine after each game.
func Run(ctx context.Context, opts Options, progress func(Progress)) (Result, error) {
	if opts.Games <= 0 {
		return Result{}, errors.New("games must be greater than zero")
	}
	if opts.A.New == nil || opts.B.New == nil {
		return Result{}, errors.New("both contestants are required")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, opts.Games)
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan int)
	results := make(chan gameResult)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < opts.Games; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- i:
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, opts, log, jobs, results)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	var res Result
	var lengths []float64
	g.Go(func() error {
		for r := range results {
			res.Games++
			switch {
			case r.err != nil:
				res.Errors++
			case r.winnerA:
				res.WinsA++
			default:
				res.WinsB++
			}
			if r.forfeit {
				res.Forfeits++
			}
			res.Turns += r.turns
			lengths = append(lengths, float64(r.turns))
			if progress != nil {
				progress(Progress{Done: res.Games, Total: opts.Games, WinsA: res.WinsA, WinsB: res.WinsB, Errors: res.Errors})
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res.Duration = time.Since(start)
	if len(lengths) > 1 {
		res.MeanTurns, res.StdDevTurns = stat.MeanStdDev(lengths, nil)
	} else if len(lengths) == 1 {
		res.MeanTurns = lengths[0]
	}
	res.Sigma = sigma(res.WinsA, res.WinsA+res.WinsB)

	log.WithFields(logrus.Fields{
		"games":    res.Games,
		"a":        opts.A.Name,
		"b":        opts.B.Name,
		"wins_a":   res.WinsA,
		"wins_b":   res.WinsB,
		"errors":   res.Errors,
		"sigma":    res.Sigma,
		"duration": res.Duration,
	}).Info("simulation finished")
	return res, nil
}

// sigma scores wins against the binomial spread of n fair games.
func sigma(wins, n int) float64 {
	if n == 0 {
		return 0
	}
	return stat.StdScore(float64(wins), float64(n)/2, math.Sqrt(float64(n)/4))
}

func playGames(ctx context.Context, opts Options, log logrus.FieldLogger, jobs <-chan int, results chan<- gameResult) error {
	for i := range jobs {
		r, err := playGame(ctx, opts, log, i)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case results <- r:
		}
	}
	return nil
}

// playGame returns an error only when the run must stop.
func playGame(ctx context.Context, opts Options, log logrus.FieldLogger, i int) (gameResult, error) {
	seed := opts.Seed + uint64(i)
	g := game.New(
		game.WithDice(dice.NewSeeded(seed)),
		game.WithUsage(engine.UsageAnalyzer{Cache: opts.Cache}),
		game.WithLogger(log),
		game.WithName(fmt.Sprintf("sim-%d", i)),
	)

	aColour := engine.White
	if i%2 == 1 {
		aColour = engine.Black
	}
	if err := g.SetPlayer(aColour, opts.A.New(seed)); err != nil {
		return gameResult{}, err
	}
	if err := g.SetPlayer(aColour.Other(), opts.B.New(seed)); err != nil {
		return gameResult{}, err
	}

	winner, err := g.Play(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return gameResult{}, ctxErr
		}
		log.WithError(err).WithField("game", i).Warn("simulated game failed")
		return gameResult{turns: g.Turns(), err: err}, nil
	}

	r := gameResult{winnerA: winner == aColour, turns: g.Turns()}
	if h := g.History(); len(h) > 0 && h[len(h)-1].Type == match.ActionForfeit {
		r.forfeit = true
	}
	return r, nil
}
