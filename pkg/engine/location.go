package engine

import "fmt"

// Location is a single place on the board holding per-colour checker counts.
//
// An exclusive location (a track point) holds at most one colour at a time:
// adding a checker onto a lone opposing checker knocks it, and adding onto
// two or more opposing checkers is refused. Mixed locations (start, bar, home)
// hold both colours without interaction.
type Location struct {
	name   string
	mixed  bool
	counts [NumColours]uint8
}

// NewLocation returns an empty location.
func NewLocation(name string, mixed bool) Location {
	return Location{name: name, mixed: mixed}
}

// Name returns the location's stable name.
func (l *Location) Name() string {
	return l.name
}

// Mixed reports whether both colours may share the location.
func (l *Location) Mixed() bool {
	return l.mixed
}

// Count returns the number of checkers of colour c. Unknown colours have none.
func (l *Location) Count(c Colour) int {
	if !c.Valid() {
		return 0
	}
	return int(l.counts[c.index()])
}

// CanAdd reports whether a checker of colour c may be placed here.
func (l *Location) CanAdd(c Colour) bool {
	if !c.Valid() {
		return false
	}
	if l.mixed {
		return true
	}
	return l.Count(c.Other()) < 2
}

// Add places a checker of colour c. If a lone opposing checker was displaced
// its colour is returned so the caller can send it to the bar; otherwise
// NoColour is returned.
func (l *Location) Add(c Colour) (Colour, error) {
	if !c.Valid() {
		return NoColour, fmt.Errorf("add to %s: %w", l.name, ErrInvalidColour)
	}

	knocked := NoColour
	if !l.mixed {
		other := c.Other()
		switch n := l.Count(other); {
		case n >= 2:
			return NoColour, fmt.Errorf("%w: %s is held by %d %s checkers", ErrIllegalMove, l.name, n, other)
		case n == 1:
			l.counts[other.index()] = 0
			knocked = other
		}
	}

	l.counts[c.index()]++
	return knocked, nil
}

// CanRemove reports whether a checker of colour c is present.
func (l *Location) CanRemove(c Colour) bool {
	return l.Count(c) > 0
}

// Remove takes one checker of colour c away.
func (l *Location) Remove(c Colour) error {
	if !l.CanRemove(c) {
		return fmt.Errorf("%w: no %s checker at %s", ErrIllegalMove, c, l.name)
	}
	l.counts[c.index()]--
	return nil
}

// IsEmpty reports whether no checkers of any colour are present.
func (l *Location) IsEmpty() bool {
	for _, n := range l.counts {
		if n > 0 {
			return false
		}
	}
	return true
}

// IsValid reports whether the occupancy rule holds. Mixed locations are always valid.
func (l *Location) IsValid() bool {
	if l.mixed {
		return true
	}
	occupied := 0
	for _, n := range l.counts {
		if n > 0 {
			occupied++
		}
	}
	return occupied <= 1
}
