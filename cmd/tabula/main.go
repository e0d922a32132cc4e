// tabula - rules engine and computer player for a Tables race game
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/tabula/internal/config"
	"github.com/yourusername/tabula/pkg/dice"
	"github.com/yourusername/tabula/pkg/engine"
	"github.com/yourusername/tabula/pkg/game"
	"github.com/yourusername/tabula/pkg/match"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "moves":
		cmdMoves(args)
	case "usable":
		cmdUsable(args)
	case "turn":
		cmdTurn(args)
	case "choose":
		cmdChoose(args)
	case "play":
		cmdPlay(args)
	case "dump":
		cmdDump(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tabula - Tables race game engine

Usage: tabula <command> [options]

Commands:
  moves     List the possible single moves for a roll
  usable    Count how many dice of a roll can be used
  turn      Check and apply a turn
  choose    Show the computer's turn for a roll
  play      Play a game (computer, random or human players)
  dump      Print a position, or turn a board dump back into a position ID

Use "tabula <command> -h" for command-specific help.

Positions are position IDs as printed by "tabula dump"; an empty position
is the start of the game. Dice are written "3,5" or "3-5"; a double such as
"4,4" is played as four 4s. Turns are written in source:die form, e.g.
"0:3 0:5", where 0 is the start, or the bar when a checker is on it.`)
}

// positionFlags are the flags shared by the analysis commands.
type positionFlags struct {
	position *string
	colour   *string
	dice     *string
}

func addPositionFlags(fs *flag.FlagSet) positionFlags {
	return positionFlags{
		position: fs.String("p", "", "Position ID (empty for the start position)"),
		colour:   fs.String("c", "white", "Colour to play (white or black)"),
		dice:     fs.String("d", "", "Dice roll (e.g., 3,5 or 3-5)"),
	}
}

func (f positionFlags) parse(name string) (*engine.Board, engine.Colour, []int) {
	if *f.dice == "" {
		config.Exitf("Error: dice required\nUsage: tabula %s -d <roll> [-p <positionID>] [-c <colour>]", name)
	}
	b, err := parsePosition(*f.position)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	c, err := engine.ParseColour(*f.colour)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	values, err := parseDice(*f.dice)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	return b, c, values
}

func parsePosition(id string) (*engine.Board, error) {
	if id == "" {
		return engine.NewBoard(), nil
	}
	b, err := engine.BoardFromPositionID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid position ID: %w", err)
	}
	if !b.IsValid() {
		return nil, fmt.Errorf("invalid position ID: checker counts do not add up")
	}
	return b, nil
}

// parseDice reads one to four values separated by commas or dashes. Two equal
// values are a double and become four.
func parseDice(s string) ([]int, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '-' })
	if len(parts) == 0 || len(parts) > 4 {
		return nil, fmt.Errorf("dice should be in format '3,5' or '3-5'")
	}
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 1 || v > dice.Sides {
			return nil, fmt.Errorf("dice values must be 1-%d", dice.Sides)
		}
		values[i] = v
	}
	if len(values) == 2 && values[0] == values[1] {
		values = []int{values[0], values[0], values[0], values[0]}
	}
	return values, nil
}

func cmdMoves(args []string) {
	fs := flag.NewFlagSet("moves", flag.ExitOnError)
	pf := addPositionFlags(fs)
	fs.Parse(args)
	b, c, values := pf.parse("moves")

	moves := b.PossibleMoves(c, values)
	if len(moves) == 0 {
		fmt.Println("No possible moves")
		return
	}
	fmt.Printf("Possible moves for %s with %v:\n", c, values)
	for _, m := range moves {
		fmt.Printf("  %-6s %s\n", m, m.Notation())
	}
}

func cmdUsable(args []string) {
	fs := flag.NewFlagSet("usable", flag.ExitOnError)
	pf := addPositionFlags(fs)
	greedy := fs.Bool("greedy", false, "Use the greedy walk for repeated dice")
	fs.Parse(args)
	b, c, values := pf.parse("usable")

	n, err := engine.UsageAnalyzer{Greedy: *greedy}.MaxUsable(b, c, values)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	fmt.Printf("%s can use %d of %v\n", c, n, values)
}

func cmdTurn(args []string) {
	fs := flag.NewFlagSet("turn", flag.ExitOnError)
	pf := addPositionFlags(fs)
	turnFlag := fs.String("t", "", "Turn in source:die form (e.g., \"0:3 0:5\")")
	fs.Parse(args)
	b, c, values := pf.parse("turn")

	t, err := engine.ParseTurn(*turnFlag)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	if err := b.TakeTurn(c, t, values); err != nil {
		config.Exitf("Rejected: %v", err)
	}
	fmt.Printf("Accepted: %s\n", t.Notation())
	if b.IsWinner(c) {
		fmt.Printf("%s wins\n", c)
	}
	fmt.Printf("Position: %s\n", b.PositionID())
}

func cmdChoose(args []string) {
	fs := flag.NewFlagSet("choose", flag.ExitOnError)
	pf := addPositionFlags(fs)
	numTurns := fs.Int("n", 5, "Number of turns to show")
	fs.Parse(args)
	b, c, values := pf.parse("choose")

	ranked, err := engine.NewChooser().Rank(c, b, values)
	if err != nil {
		config.Exitf("Error analyzing turns: %v", err)
	}
	if len(ranked) == 0 {
		fmt.Println("No usable dice (turn passes)")
		return
	}

	fmt.Printf("Best turns for %s with %v (%d candidates):\n", c, values, len(ranked))
	for i, cand := range ranked[:min(*numTurns, len(ranked))] {
		fmt.Printf("  %d. %-24s %-16s score %.1f\n", i+1, cand.Turn.Notation(), cand.Turn, cand.Score)
	}
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	posFlag := fs.String("p", "", "Position ID (empty for the start position)")
	fromFile := fs.String("f", "", "Read a board dump from this file and print its position ID")
	fs.Parse(args)

	if *fromFile != "" {
		data, err := os.ReadFile(*fromFile)
		if err != nil {
			config.Exitf("Error: %v", err)
		}
		b, err := engine.ParseBoard(string(data))
		if err != nil {
			config.Exitf("Error: %v", err)
		}
		fmt.Println(b.PositionID())
		return
	}

	b, err := parsePosition(*posFlag)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	fmt.Print(b.String())
	fmt.Printf("Position: %s\n", b.PositionID())
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	white := fs.String("white", game.KindComputer, "White player (computer, random or human)")
	black := fs.String("black", game.KindComputer, "Black player (computer, random or human)")
	seed := fs.Uint64("seed", 0, "Dice seed (0 = random)")
	name := fs.String("name", "tabula", "Game name")
	load := fs.String("load", "", "Resume the game saved in this file")
	save := fs.String("save", "tabula.save", "File to save to when a player pauses")
	verbose := fs.Bool("v", false, "Log every turn")
	fs.Parse(args)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	d := dice.New(nil)
	if *seed != 0 {
		d = dice.NewSeeded(*seed)
	}
	g := game.New(game.WithDice(d), game.WithLogger(log), game.WithName(*name))

	if *load != "" {
		f, err := os.Open(*load)
		if err != nil {
			config.Exitf("Error: %v", err)
		}
		err = g.Load(f)
		f.Close()
		if err != nil {
			config.Exitf("Error loading %s: %v", *load, err)
		}
	} else {
		for c, kind := range map[engine.Colour]string{engine.White: *white, engine.Black: *black} {
			p, err := game.NewPlayer(kind)
			if err != nil {
				config.Exitf("Error: %v", err)
			}
			if err := g.SetPlayer(c, p); err != nil {
				config.Exitf("Error: %v", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	winner, err := g.Play(ctx)
	switch {
	case errors.Is(err, game.ErrPause):
		if err := saveGame(g, *save); err != nil {
			config.Exitf("Error saving: %v", err)
		}
		fmt.Printf("Game paused and saved to %s\n", *save)
		return
	case err != nil:
		config.Exitf("Error: %v", err)
	}

	if err := match.WriteTranscript(os.Stdout, g.Record()); err != nil {
		config.Exitf("Error: %v", err)
	}
	fmt.Printf("\n%s wins after %d turns\n", winner, g.Turns())
}

func saveGame(g *game.Game, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
