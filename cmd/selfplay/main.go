// Command selfplay plays batches of games between two computer players and
// reports how far the result is from an even split.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/tabula/internal/config"
	"github.com/yourusername/tabula/pkg/engine"
	"github.com/yourusername/tabula/pkg/game"
	"github.com/yourusername/tabula/pkg/simulate"
	"github.com/yourusername/tabula/pkg/store"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		config.Exitf("Error: %v", err)
	}

	games := flag.Int("games", 1000, "Number of games to play")
	workers := flag.Int("workers", 0, "Number of worker goroutines (0 = auto)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Dice seed")
	playerA := flag.String("a", game.KindComputer, "Player A (computer or random)")
	playerB := flag.String("b", game.KindRandom, "Player B (computer or random)")
	dbPath := flag.String("db", os.Getenv("TABULA_DB_PATH"), "SQLite database to record the result in")
	list := flag.Int("list", 0, "List the last N recorded simulations and exit")
	verbose := flag.Bool("v", false, "Log every game")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if *dbPath != "" {
		var err error
		st, err = store.Open(ctx, *dbPath)
		if err != nil {
			config.Exitf("Error: %v", err)
		}
		defer st.Close()
	}

	if *list > 0 {
		if st == nil {
			config.Exitf("Error: -list needs -db")
		}
		listSimulations(ctx, st, *list)
		return
	}

	cache := engine.NewUsageCache(engine.DefaultCacheSize)
	a, err := simulate.NewContestant(*playerA, cache)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	b, err := simulate.NewContestant(*playerB, cache)
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	fmt.Printf("Playing %d games: %s (A) vs %s (B), seed %d\n", *games, a.Name, b.Name, *seed)

	step := max(1, *games/10)
	res, err := simulate.Run(ctx, simulate.Options{
		Games:   *games,
		Workers: *workers,
		Seed:    *seed,
		A:       a,
		B:       b,
		Logger:  log,
		Cache:   cache,
	}, func(p simulate.Progress) {
		if p.Done%step == 0 || p.Done == p.Total {
			fmt.Fprintf(os.Stderr, "  %d/%d games (A %d, B %d)\n", p.Done, p.Total, p.WinsA, p.WinsB)
		}
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	fmt.Println()
	fmt.Printf("Wins:      A %d, B %d (%.1f%% A)\n", res.WinsA, res.WinsB, res.WinRateA()*100)
	if res.Errors > 0 || res.Forfeits > 0 {
		fmt.Printf("Problems:  %d errors, %d forfeits\n", res.Errors, res.Forfeits)
	}
	fmt.Printf("Standard deviations from an even split: %+.2f\n", res.Sigma)
	fmt.Printf("Turns:     %d (%.1f ± %.1f per game)\n", res.Turns, res.MeanTurns, res.StdDevTurns)
	fmt.Printf("Time:      %.1fs (%.0f turns/s, cache hit rate %.1f%%)\n",
		res.Duration.Seconds(), res.TurnsPerSecond(), cache.HitRate()*100)

	if st != nil {
		rec, err := st.RecordSimulation(ctx, store.SimulationRecord{
			PlayerA:  a.Name,
			PlayerB:  b.Name,
			Games:    res.Games,
			WinsA:    res.WinsA,
			WinsB:    res.WinsB,
			Errors:   res.Errors,
			Turns:    res.Turns,
			Seed:     *seed,
			Duration: res.Duration,
		})
		if err != nil {
			config.Exitf("Error recording result: %v", err)
		}
		fmt.Printf("Recorded as %s\n", rec.ID)
	}
}

func listSimulations(ctx context.Context, st *store.Store, n int) {
	sims, err := st.ListSimulations(ctx, n)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	if len(sims) == 0 {
		fmt.Println("No recorded simulations")
		return
	}
	for _, s := range sims {
		fmt.Printf("%s  %s  %-8s vs %-8s  %5d games  A %5d  B %5d  seed %d\n",
			s.ID, s.CreatedAt.Format(time.DateTime), s.PlayerA, s.PlayerB, s.Games, s.WinsA, s.WinsB, s.Seed)
	}
}
