package engine

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

const dumpHeader = "Location"

// String returns the stable textual dump of the board: a name line, a
// heading, then one row per location in board order with its per-colour
// counts. ParseBoard reads it back.
func (b *Board) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Board: %s\n", b.name)
	fmt.Fprintf(&sb, "%-8s", dumpHeader)
	for _, c := range Colours {
		fmt.Fprintf(&sb, " %6s", c)
	}
	sb.WriteByte('\n')
	for i := range b.locations {
		loc := &b.locations[i]
		fmt.Fprintf(&sb, "%-8s", loc.Name())
		for _, c := range Colours {
			fmt.Fprintf(&sb, " %6d", loc.Count(c))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseBoard reads a board from the dump produced by String. Location rows
// must appear in board order. The board is not checked for validity.
func ParseBoard(dump string) (*Board, error) {
	b := emptyBoard()
	sc := bufio.NewScanner(strings.NewReader(dump))
	row := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if name, ok := strings.CutPrefix(line, "Board:"); ok {
			b.name = strings.TrimSpace(name)
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == dumpHeader {
			continue
		}
		if row >= NumLocations {
			return nil, fmt.Errorf("parse board: unexpected row %q", line)
		}
		loc := &b.locations[row]
		if !strings.EqualFold(fields[0], loc.Name()) {
			return nil, fmt.Errorf("parse board: row %d is %q, want %q", row+1, fields[0], loc.Name())
		}
		if len(fields) != 1+NumColours {
			return nil, fmt.Errorf("parse board: row %q: want %d counts", line, NumColours)
		}
		for i, c := range Colours {
			n, err := strconv.Atoi(fields[1+i])
			if err != nil || n < 0 || n > CheckersPerColour {
				return nil, fmt.Errorf("parse board: row %q: bad %s count %q", line, c, fields[1+i])
			}
			loc.counts[c.index()] = uint8(n)
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	if row != NumLocations {
		return nil, fmt.Errorf("parse board: got %d locations, want %d", row, NumLocations)
	}
	return b, nil
}
