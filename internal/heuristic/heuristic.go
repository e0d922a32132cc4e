// Package heuristic scores board positions for computer turn selection.
//
// A position is reduced to a feature vector (knocks, exposure, stacks, ...)
// which is combined with a weight vector using gonum's vectorised dot product.
package heuristic

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/tabula/internal/positionid"
)

// Board layout shared with the rules engine.
const (
	startIndex = 0
	barIndex   = 1
	homeIndex  = positionid.NumLocations - 1
	numPoints  = positionid.NumLocations - 3
	dieSides   = 6
	checkers   = 15

	// LateKnockFrom is the first point where a knock counts as late, a tuned
	// boundary kept from the original computer player.
	LateKnockFrom = 9
	// EndZoneFrom is the first point of the last die-length of the track.
	EndZoneFrom = numPoints - dieSides
	// EntryZone is the number of points next to the start that count as blocking.
	EntryZone = dieSides

	// WinScore is the score of a winning position. It beats any feature total.
	WinScore = 10000.0
)

// Feature indexes into a feature vector.
const (
	Knocks = iota
	LateKnocks
	Exposure
	EndExposure
	BarThreat
	TwoStacks
	BigStacks
	EntryBlocks
	Homed
	UnusedDice
	NumFeatures
)

var featureNames = [NumFeatures]string{
	"knocks", "late_knocks", "exposure", "end_exposure", "bar_threat",
	"two_stacks", "big_stacks", "entry_blocks", "homed", "unused_dice",
}

// Features is a position's feature vector.
type Features [NumFeatures]float64

// Weights scales each feature. Positive weights reward, negative penalise.
type Weights [NumFeatures]float64

// DefaultWeights returns weights tuned by self-play.
func DefaultWeights() Weights {
	return Weights{
		Knocks:      13,
		LateKnocks:  15,
		Exposure:    -1,
		EndExposure: -2,
		BarThreat:   1,
		TwoStacks:   2,
		BigStacks:   3,
		EntryBlocks: 1,
		Homed:       4,
		UnusedDice:  -20,
	}
}

// String lists the weights as name=value pairs.
func (w Weights) String() string {
	parts := make([]string, NumFeatures)
	for i, v := range w {
		parts[i] = featureNames[i] + "=" + strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ParseWeights reads name=value pairs over DefaultWeights. Unnamed features
// keep their default.
func ParseWeights(s string) (Weights, error) {
	w := DefaultWeights()
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return w, fmt.Errorf("weight %q: want name=value", part)
		}
		idx := -1
		for i, n := range featureNames {
			if n == strings.TrimSpace(name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return w, fmt.Errorf("weight %q: unknown feature", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return w, fmt.Errorf("weight %q: %w", name, err)
		}
		w[idx] = v
	}
	return w, nil
}

// Input describes one candidate: the position before the turn, the position
// after it, the mover's colour index, and how many of the required moves
// the candidate applied.
type Input struct {
	Before   positionid.Counts
	After    positionid.Counts
	Me       int
	Applied  int
	Required int
}

func point(n int) int { return n + 1 }

// Extract computes the feature vector for a candidate.
func Extract(in Input) Features {
	var f Features
	me, opp := in.Me, 1-in.Me
	after := &in.After

	for n := 1; n <= numPoints; n++ {
		idx := point(n)

		if lost := int(in.Before[idx][opp]) - int(after[idx][opp]); lost > 0 {
			if n >= LateKnockFrom {
				f[LateKnocks] += float64(lost)
			} else {
				f[Knocks] += float64(lost)
			}
		}

		switch own := after[idx][me]; {
		case own == 1:
			knockers, fromBar := threats(after, n, opp)
			if n >= EndZoneFrom {
				f[EndExposure] += float64(knockers)
			} else {
				f[Exposure] += float64(knockers)
			}
			f[BarThreat] += float64(fromBar)
		case own == 2:
			f[TwoStacks]++
		case own > 2:
			f[BigStacks]++
		}
		if after[idx][me] >= 2 && n <= EntryZone {
			f[EntryBlocks]++
		}
	}

	f[Homed] = float64(int(after[homeIndex][me]) - int(in.Before[homeIndex][me]))
	if in.Required > in.Applied {
		f[UnusedDice] = float64(in.Required - in.Applied)
	}
	return f
}

// threats counts the opposing positions within one die of point n that
// could hit a lone checker there, and how many of those are bar re-entries.
func threats(c *positionid.Counts, n, opp int) (knockers, fromBar int) {
	for j := n - 1; j >= n-dieSides && j >= 0; j-- {
		switch {
		case j == 0 && c[barIndex][opp] > 0:
			knockers++
			fromBar++
		case j == 0 && c[startIndex][opp] > 0:
			knockers++
		case j > 0 && c[point(j)][opp] > 0:
			knockers++
		}
	}
	return knockers, fromBar
}

// Score combines features and weights.
func (w *Weights) Score(f *Features) float64 {
	return floats.Dot(w[:], f[:])
}

// Evaluate scores a candidate. A position where the mover has every checker
// home scores WinScore.
func (w *Weights) Evaluate(in Input) float64 {
	if in.After[homeIndex][in.Me] == checkers {
		return WinScore
	}
	f := Extract(in)
	return w.Score(&f)
}

// Names returns the feature names in vector order.
func Names() []string {
	return append([]string(nil), featureNames[:]...)
}
