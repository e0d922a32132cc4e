package match

import (
	"fmt"
	"io"
	"strconv"

	"github.com/yourusername/tabula/pkg/engine"
)

// Transcript format, one numbered line per roll:
//
//	; [Game "kitchen table"]
//	; [White "computer"]
//	; [Black "random"]
//
//	  1) White 35: 0/3 0/5
//	  2) Black 66: 0/6 0/6 6/12 6/12
//	  3) White 21: cannot move
//
//	Winner: White

// WriteTranscript writes a human-readable move list of the record's history.
func WriteTranscript(w io.Writer, rec *Record) error {
	if rec.Name != "" {
		fmt.Fprintf(w, "; [Game %q]\n", rec.Name)
	}
	for _, c := range engine.Colours {
		if kind, ok := rec.Players[c]; ok {
			fmt.Fprintf(w, "; [%s %q]\n", c, kind)
		}
	}
	fmt.Fprintln(w)

	n := 0
	open := false
	for _, a := range rec.Actions {
		switch a.Type {
		case ActionRoll:
			n++
			open = true
			fmt.Fprintf(w, "%3d) %-5s %s: ", n, a.Colour, formatRoll(a.Dice))
			continue
		case ActionTurn:
			if !open {
				fmt.Fprintf(w, "     %-5s resumed: ", a.Colour)
			}
			if a.Turn.IsEmpty() {
				fmt.Fprintln(w, "cannot move")
			} else {
				fmt.Fprintln(w, a.Turn.Notation())
			}
		case ActionForfeit:
			if !open {
				fmt.Fprintf(w, "     %-5s ", a.Colour)
			}
			fmt.Fprintln(w, "illegal turn, forfeits")
		case ActionPause:
			if !open {
				fmt.Fprintf(w, "     %-5s ", a.Colour)
			}
			fmt.Fprintln(w, "paused")
		}
		open = false
	}

	if rec.Winner.Valid() {
		_, err := fmt.Fprintf(w, "\nWinner: %s\n", rec.Winner)
		return err
	}
	return nil
}

// formatRoll prints the two faces, so a double shows once as "66".
func formatRoll(values []int) string {
	switch len(values) {
	case 0:
		return "--"
	case 4:
		return strconv.Itoa(values[0]) + strconv.Itoa(values[0])
	}
	s := ""
	for _, v := range values {
		s += strconv.Itoa(v)
	}
	return s
}
