package match

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/yourusername/tabula/internal/positionid"
	"github.com/yourusername/tabula/pkg/dice"
	"github.com/yourusername/tabula/pkg/engine"
)

// Example saved game:
//
//	# tabula saved game
//	meta.colours = White,Black
//	meta.die_sides = 6
//	meta.points = 24
//	meta.checkers = 15
//	board.name = kitchen table
//	board.Start = 13 15
//	board.Bar = 0 0
//	board.1 = 0 0
//	...
//	board.Home = 0 0
//	dice.values = 3 5
//	player.White = computer
//	player.Black = human
//	game.current = Black
//	game.turns = 1
//	history.1 = roll White 3 5
//	history.2 = turn White 0:3 0:5

var (
	// ErrSyntax is returned for a line that is not a comment or key = value.
	ErrSyntax = errors.New("malformed line")
	// ErrMissingKey is returned when a required key is absent.
	ErrMissingKey = errors.New("missing key")
	// ErrMetadata is returned when the file was written under different rules.
	ErrMetadata = errors.New("metadata does not match these rules")
	// ErrInvalidBoard is returned when the saved board breaks the board invariants.
	ErrInvalidBoard = errors.New("saved board is not valid")
)

var lineRE = regexp.MustCompile(`^([A-Za-z0-9_.]+)\s*=\s*(.*)$`)

// Write saves the record.
func Write(w io.Writer, rec *Record) error {
	if rec == nil || rec.Board == nil {
		return errors.New("write saved game: no board")
	}
	meta := rec.Metadata
	if len(meta.Colours) == 0 {
		meta = CurrentMetadata()
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# tabula saved game")
	fmt.Fprintf(bw, "meta.colours = %s\n", strings.Join(meta.Colours, ","))
	fmt.Fprintf(bw, "meta.die_sides = %d\n", meta.DieSides)
	fmt.Fprintf(bw, "meta.points = %d\n", meta.Points)
	fmt.Fprintf(bw, "meta.checkers = %d\n", meta.CheckersPerColour)

	fmt.Fprintf(bw, "board.name = %s\n", rec.Name)
	for _, loc := range rec.Board.Locations() {
		fmt.Fprintf(bw, "board.%s =", loc.Name())
		for _, c := range engine.Colours {
			fmt.Fprintf(bw, " %d", loc.Count(c))
		}
		bw.WriteByte('\n')
	}

	if rec.Dice != nil {
		fmt.Fprintf(bw, "dice.values = %s\n", joinInts(rec.Dice))
	}
	for _, c := range engine.Colours {
		if kind, ok := rec.Players[c]; ok {
			fmt.Fprintf(bw, "player.%s = %s\n", c, kind)
		}
	}

	fmt.Fprintf(bw, "game.current = %s\n", rec.Current)
	fmt.Fprintf(bw, "game.turns = %d\n", rec.Turns)
	if rec.Winner.Valid() {
		fmt.Fprintf(bw, "game.winner = %s\n", rec.Winner)
	}

	for i, a := range rec.Actions {
		fmt.Fprintf(bw, "history.%d = %s\n", i+1, formatAction(a))
	}
	return bw.Flush()
}

func formatAction(a Action) string {
	s := a.Type.String() + " " + a.Colour.String()
	switch a.Type {
	case ActionRoll:
		s += " " + joinInts(a.Dice)
	case ActionTurn:
		if !a.Turn.IsEmpty() {
			s += " " + a.Turn.String()
		}
	}
	return s
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

// Parse reads a saved game. The metadata must match CurrentMetadata, the
// board must be valid and saved dice must be a possible roll.
func Parse(r io.Reader) (*Record, error) {
	props := make(properties)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrSyntax, line)
		}
		props[m[1]] = strings.TrimSpace(m[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading saved game: %w", err)
	}

	meta, err := props.metadata()
	if err != nil {
		return nil, err
	}
	if !meta.Equal(CurrentMetadata()) {
		return nil, fmt.Errorf("%w: file has %+v", ErrMetadata, meta)
	}

	rec := &Record{
		Name:     props["board.name"],
		Metadata: meta,
		Players:  make(map[engine.Colour]string),
	}

	if rec.Board, err = props.board(); err != nil {
		return nil, err
	}
	rec.Board.SetName(rec.Name)

	if v := props["dice.values"]; v != "" {
		values, err := parseInts(v)
		if err != nil {
			return nil, fmt.Errorf("dice.values: %w", err)
		}
		if err := dice.ValidateValues(values); err != nil {
			return nil, fmt.Errorf("dice.values: %w", err)
		}
		rec.Dice = values
	}

	for _, c := range engine.Colours {
		if kind, ok := props["player."+c.String()]; ok && kind != "" {
			rec.Players[c] = kind
		}
	}

	current, err := props.str("game.current")
	if err != nil {
		return nil, err
	}
	if rec.Current, err = engine.ParseColour(current); err != nil {
		return nil, fmt.Errorf("game.current: %w", err)
	}
	if v, ok := props["game.turns"]; ok {
		if rec.Turns, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("game.turns: %w", err)
		}
	}
	if v := props["game.winner"]; v != "" {
		if rec.Winner, err = engine.ParseColour(v); err != nil {
			return nil, fmt.Errorf("game.winner: %w", err)
		}
	}

	for i := 1; ; i++ {
		key := "history." + strconv.Itoa(i)
		v, ok := props[key]
		if !ok {
			break
		}
		a, err := parseAction(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		rec.Actions = append(rec.Actions, a)
	}
	return rec, nil
}

// Equal reports whether two metadata sets describe the same rules.
func (m Metadata) Equal(other Metadata) bool {
	return slices.Equal(m.Colours, other.Colours) &&
		m.DieSides == other.DieSides &&
		m.Points == other.Points &&
		m.CheckersPerColour == other.CheckersPerColour
}

type properties map[string]string

func (p properties) str(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

func (p properties) integer(key string) (int, error) {
	v, err := p.str(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func (p properties) metadata() (Metadata, error) {
	var m Metadata
	colours, err := p.str("meta.colours")
	if err != nil {
		return m, err
	}
	for _, c := range strings.Split(colours, ",") {
		m.Colours = append(m.Colours, strings.TrimSpace(c))
	}
	if m.DieSides, err = p.integer("meta.die_sides"); err != nil {
		return m, err
	}
	if m.Points, err = p.integer("meta.points"); err != nil {
		return m, err
	}
	if m.CheckersPerColour, err = p.integer("meta.checkers"); err != nil {
		return m, err
	}
	return m, nil
}

func (p properties) board() (*engine.Board, error) {
	var counts positionid.Counts
	for i, loc := range engine.NewBoard().Locations() {
		key := "board." + loc.Name()
		v, err := p.str(key)
		if err != nil {
			return nil, err
		}
		values, err := parseInts(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if len(values) != engine.NumColours {
			return nil, fmt.Errorf("%s: want %d counts, got %d", key, engine.NumColours, len(values))
		}
		for j, n := range values {
			if n < 0 || n > engine.CheckersPerColour {
				return nil, fmt.Errorf("%s: count %d out of range", key, n)
			}
			counts[i][j] = uint8(n)
		}
	}

	b := engine.NewBoardFromCounts(counts)
	if !b.IsValid() {
		return nil, ErrInvalidBoard
	}
	return b, nil
}

func parseAction(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return Action{}, fmt.Errorf("%w: action %q", ErrSyntax, s)
	}
	idx := slices.Index(actionNames[:], fields[0])
	if idx < 0 {
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrSyntax, fields[0])
	}
	c, err := engine.ParseColour(fields[1])
	if err != nil {
		return Action{}, err
	}

	a := Action{Type: ActionType(idx), Colour: c}
	rest := strings.Join(fields[2:], " ")
	switch a.Type {
	case ActionRoll:
		if a.Dice, err = parseInts(rest); err != nil {
			return Action{}, err
		}
	case ActionTurn:
		if a.Turn, err = engine.ParseTurn(rest); err != nil {
			return Action{}, err
		}
	}
	return a, nil
}

func parseInts(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
