// Package game runs a game between two players: it rolls the dice, asks the
// current player for a turn, applies it to the board and keeps the history.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/tabula/pkg/dice"
	"github.com/yourusername/tabula/pkg/engine"
	"github.com/yourusername/tabula/pkg/match"
)

var (
	// ErrPause is returned by a player to pause the game, and by Play when
	// the game was paused. The current dice are kept for the resumed turn.
	ErrPause = errors.New("game paused")
	// ErrPlayerNotDefined is returned by Play when a colour has no player.
	ErrPlayerNotDefined = errors.New("all players must be defined to play")
	// ErrUnknownKind is returned when a saved player kind is not known.
	ErrUnknownKind = errors.New("unknown player kind")
)

// Game is one game in progress. It is not safe for concurrent use.
type Game struct {
	rec     *match.Record
	players map[engine.Colour]Player
	dice    *dice.Dice
	usage   engine.UsageAnalyzer
	log     logrus.FieldLogger
}

// Option configures a Game.
type Option func(*Game)

// WithDice sets the dice. The default rolls from the global random source.
func WithDice(d *dice.Dice) Option {
	return func(g *Game) { g.dice = d }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Game) { g.log = l }
}

// WithUsage sets the analyzer used to validate turns.
func WithUsage(u engine.UsageAnalyzer) Option {
	return func(g *Game) { g.usage = u }
}

// WithName names the game and its board.
func WithName(name string) Option {
	return func(g *Game) {
		g.rec.Name = name
		g.rec.Board.SetName(name)
	}
}

// New returns a game at the starting position with White to play.
func New(opts ...Option) *Game {
	g := &Game{
		rec:     match.NewRecord(""),
		players: make(map[engine.Colour]Player),
		dice:    dice.New(nil),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetPlayer assigns the player for colour c. A nil player clears the colour.
func (g *Game) SetPlayer(c engine.Colour, p Player) error {
	if !c.Valid() {
		return engine.ErrInvalidColour
	}
	if p == nil {
		delete(g.players, c)
		return nil
	}
	g.players[c] = p
	return nil
}

// Player returns the player for colour c, or nil.
func (g *Game) Player(c engine.Colour) Player {
	return g.players[c]
}

// CurrentPlayer returns the colour to move. Once the game is over it is the
// colour that made the last turn.
func (g *Game) CurrentPlayer() engine.Colour {
	return g.rec.Current
}

// Name returns the game's name.
func (g *Game) Name() string {
	return g.rec.Name
}

// Board returns a copy of the board.
func (g *Game) Board() *engine.Board {
	return g.rec.Board.Clone()
}

// Dice returns the values rolled for the current turn, or nil when the next
// Play call will roll.
func (g *Game) Dice() []int {
	return slices.Clone(g.rec.Dice)
}

// Turns returns the number of completed turns.
func (g *Game) Turns() int {
	return g.rec.Turns
}

// Winner returns the winning colour once the game is over.
func (g *Game) Winner() (engine.Colour, bool) {
	return g.rec.Winner, g.rec.Winner.Valid()
}

// History returns the recorded actions.
func (g *Game) History() []match.Action {
	return slices.Clone(g.rec.Actions)
}

// Record returns the game's record with player kinds filled in. The board
// is a copy.
func (g *Game) Record() *match.Record {
	rec := *g.rec
	rec.Board = g.rec.Board.Clone()
	rec.Dice = slices.Clone(g.rec.Dice)
	rec.Actions = slices.Clone(g.rec.Actions)
	rec.Players = make(map[engine.Colour]string)
	for c, p := range g.players {
		if k, ok := p.(Kinded); ok {
			rec.Players[c] = k.Kind()
		}
	}
	return &rec
}

// Play runs turns until a colour wins, and returns it. A player whose turn
// is rejected forfeits the game to the opponent.
//
// If a player pauses, Play returns ErrPause; if ctx is done or a player
// fails, Play returns that error. In both cases the dice already rolled
// are kept and the next Play call resumes the same turn.
func (g *Game) Play(ctx context.Context) (engine.Colour, error) {
	for _, c := range engine.Colours {
		if g.players[c] == nil {
			return engine.NoColour, fmt.Errorf("%w: no player for %s", ErrPlayerNotDefined, c)
		}
	}
	if w, over := g.Winner(); over {
		return w, nil
	}
	if w, won := g.rec.Board.Winner(); won {
		g.rec.Winner = w
		return w, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return engine.NoColour, err
		}

		c := g.rec.Current
		log := g.log.WithFields(logrus.Fields{"game": g.rec.Name, "turn": g.rec.Turns + 1, "colour": c})

		if g.rec.Dice == nil {
			g.rec.Dice = g.dice.Roll()
			g.rec.AddRoll(c, g.rec.Dice)
		}
		values := g.rec.Dice

		turn, err := g.players[c].Turn(ctx, c, g.rec.Board.Clone(), slices.Clone(values))
		switch {
		case errors.Is(err, ErrPause):
			g.rec.AddPause(c)
			log.WithField("dice", values).Info("game paused")
			return engine.NoColour, ErrPause
		case err != nil:
			return engine.NoColour, fmt.Errorf("%s player: %w", c, err)
		}

		if err := g.usage.TakeTurn(g.rec.Board, c, turn, values); err != nil {
			if errors.Is(err, engine.ErrInvariant) {
				return engine.NoColour, err
			}
			g.rec.Dice = nil
			g.rec.Turns++
			g.rec.AddForfeit(c)
			g.rec.Winner = c.Other()
			log.WithError(err).WithFields(logrus.Fields{"dice": values, "moves": turn.String()}).
				Warn("illegal turn, game forfeited")
			return g.rec.Winner, nil
		}

		g.rec.Dice = nil
		g.rec.Turns++
		g.rec.AddTurn(c, turn)
		log.WithFields(logrus.Fields{"dice": values, "moves": turn.String()}).Debug("turn played")

		if g.rec.Board.IsWinner(c) {
			g.rec.Winner = c
			log.Info("game won")
			return c, nil
		}
		g.rec.Current = c.Other()
	}
}

// Save writes the game in the saved game format. Players that cannot be
// recreated are saved as unset.
func (g *Game) Save(w io.Writer) error {
	return match.Write(w, g.Record())
}

// Load replaces the game with a saved one. Players are recreated from their
// saved kinds; the game is unchanged if anything fails.
func (g *Game) Load(r io.Reader) error {
	rec, err := match.Parse(r)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	players := make(map[engine.Colour]Player)
	for c, kind := range rec.Players {
		p, err := NewPlayer(kind)
		if err != nil {
			return fmt.Errorf("load game: %s: %w", c, err)
		}
		players[c] = p
	}
	g.rec = rec
	g.players = players
	return nil
}
