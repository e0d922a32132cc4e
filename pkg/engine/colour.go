package engine

import (
	"fmt"
	"strings"
)

// Colour identifies one of the two sides. The zero value is NoColour,
// which stands for an absent or unset colour.
type Colour uint8

const (
	NoColour Colour = iota
	White
	Black
)

// Colours lists the playing colours in their fixed enumeration order.
var Colours = [NumColours]Colour{White, Black}

// Valid reports whether c is one of the two playing colours.
func (c Colour) Valid() bool {
	return c == White || c == Black
}

// Other returns the opponent. NoColour has no opponent.
func (c Colour) Other() Colour {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColour
}

// index maps a valid colour to 0 or 1.
func (c Colour) index() int {
	return int(c) - 1
}

func (c Colour) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	}
	return "None"
}

// ParseColour accepts a colour name in any case.
func ParseColour(s string) (Colour, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return NoColour, fmt.Errorf("%w: %q", ErrInvalidColour, s)
}
