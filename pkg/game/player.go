package game

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/yourusername/tabula/pkg/dice"
	"github.com/yourusername/tabula/pkg/engine"
)

// Player chooses turns. It receives a copy of the board and of the dice, so
// it cannot change the game by editing them. Returning ErrPause pauses the
// game; an empty turn gives up the roll.
type Player interface {
	Turn(ctx context.Context, c engine.Colour, b *engine.Board, dice []int) (engine.Turn, error)
}

// Kinded is implemented by players that can be recreated from a saved game.
type Kinded interface {
	Kind() string
}

// Player kinds stored in saved games.
const (
	KindComputer = "computer"
	KindRandom   = "random"
	KindHuman    = "human"
)

// NewPlayer returns a fresh player of the given kind. Human players use the
// process's standard input and output.
func NewPlayer(kind string) (Player, error) {
	switch kind {
	case KindComputer:
		return NewComputerPlayer(nil), nil
	case KindRandom:
		return NewRandomPlayer(nil), nil
	case KindHuman:
		return NewConsolePlayer(os.Stdin, os.Stdout), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// FuncPlayer adapts a function to the Player interface.
type FuncPlayer func(ctx context.Context, c engine.Colour, b *engine.Board, dice []int) (engine.Turn, error)

// Turn calls f.
func (f FuncPlayer) Turn(ctx context.Context, c engine.Colour, b *engine.Board, dice []int) (engine.Turn, error) {
	return f(ctx, c, b, dice)
}

// ComputerPlayer plays the best scoring turn.
type ComputerPlayer struct {
	Chooser *engine.Chooser
}

// NewComputerPlayer returns a computer player using ch, or the default
// chooser when ch is nil.
func NewComputerPlayer(ch *engine.Chooser) *ComputerPlayer {
	if ch == nil {
		ch = engine.NewChooser()
	}
	return &ComputerPlayer{Chooser: ch}
}

// Kind implements Kinded.
func (p *ComputerPlayer) Kind() string { return KindComputer }

// Turn implements Player.
func (p *ComputerPlayer) Turn(ctx context.Context, c engine.Colour, b *engine.Board, dice []int) (engine.Turn, error) {
	if err := ctx.Err(); err != nil {
		return engine.Turn{}, err
	}
	return p.Chooser.Choose(c, b, dice)
}

// RandomPlayer plays a uniformly chosen legal turn. It is the baseline
// opponent for simulations.
type RandomPlayer struct {
	mu      sync.Mutex
	src     dice.Source
	chooser *engine.Chooser
}

// NewRandomPlayer returns a random player drawing from src, or from the
// global source when src is nil.
func NewRandomPlayer(src dice.Source) *RandomPlayer {
	return &RandomPlayer{src: src, chooser: engine.NewChooser()}
}

// Kind implements Kinded.
func (p *RandomPlayer) Kind() string { return KindRandom }

// Turn implements Player.
func (p *RandomPlayer) Turn(ctx context.Context, c engine.Colour, b *engine.Board, values []int) (engine.Turn, error) {
	if err := ctx.Err(); err != nil {
		return engine.Turn{}, err
	}
	turns, err := p.chooser.EnumerateTurns(c, b, values)
	if err != nil || len(turns) == 0 {
		return engine.Turn{}, err
	}

	if p.src == nil {
		return turns[rand.IntN(len(turns))], nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return turns[p.src.IntN(len(turns))], nil
}

// ConsolePlayer asks a person for turns on a text stream.
type ConsolePlayer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePlayer returns a player reading turns from in and prompting on out.
func NewConsolePlayer(in io.Reader, out io.Writer) *ConsolePlayer {
	return &ConsolePlayer{in: bufio.NewReader(in), out: out}
}

// Kind implements Kinded.
func (p *ConsolePlayer) Kind() string { return KindHuman }

// Turn prints the board and reads moves as "source:die" pairs. "pause" pauses
// the game and an empty line plays no moves. Unparsable lines are asked again.
func (p *ConsolePlayer) Turn(ctx context.Context, c engine.Colour, b *engine.Board, values []int) (engine.Turn, error) {
	fmt.Fprintln(p.out, b)
	fmt.Fprintf(p.out, "%s to play %v\n", c, values)
	if moves := b.PossibleMoves(c, values); len(moves) > 0 {
		hints := make([]string, len(moves))
		for i, m := range moves {
			hints[i] = m.String()
		}
		fmt.Fprintf(p.out, "legal first moves: %s\n", strings.Join(hints, " "))
	}

	for {
		if err := ctx.Err(); err != nil {
			return engine.Turn{}, err
		}
		fmt.Fprint(p.out, "turn> ")
		line, err := p.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return engine.Turn{}, fmt.Errorf("read turn: %w", err)
		}

		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "pause") {
			return engine.Turn{}, ErrPause
		}
		turn, perr := engine.ParseTurn(line)
		if perr == nil {
			return turn, nil
		}
		fmt.Fprintf(p.out, "could not read turn: %v\n", perr)
		if err != nil {
			return engine.Turn{}, fmt.Errorf("read turn: %w", err)
		}
	}
}
