// Package positionid implements compact keys and printable IDs for board positions.
//
// A position is the per-colour checker count of every location on the board.
// Counts never exceed 15, so each one fits in four bits: the binary Key packs
// all 54 counts into seven uint32 words and the position ID is the base64
// encoding of one byte per location (low nibble first colour, high nibble second).
package positionid

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// NumLocations is the number of locations on the board (entry, bar, 24 points, home).
	NumLocations = 27
	// NumColours is the number of colours playing.
	NumColours = 2
	// MaxCount is the largest count a single nibble can hold.
	MaxCount = 15
	// PositionIDLength is the length of a position ID string.
	PositionIDLength = 36
)

// ErrInvalidID is returned when a position ID cannot be decoded.
var ErrInvalidID = errors.New("invalid position ID")

var encoding = base64.RawURLEncoding

// Counts holds per-location, per-colour checker counts.
type Counts [NumLocations][NumColours]uint8

// Key is a compact binary representation of a position.
// Uses 7 uint32s to encode the position (4 bits per count).
type Key struct {
	Data [7]uint32
}

// MakeKey creates a compact key from a position.
func MakeKey(c Counts) Key {
	var key Key
	for loc := 0; loc < NumLocations; loc++ {
		for col := 0; col < NumColours; col++ {
			n := loc*NumColours + col
			key.Data[n/8] |= uint32(c[loc][col]&0x0f) << ((n % 8) * 4)
		}
	}
	return key
}

// CountsFromKey reconstructs a position from a key.
func CountsFromKey(key Key) Counts {
	var c Counts
	for loc := 0; loc < NumLocations; loc++ {
		for col := 0; col < NumColours; col++ {
			n := loc*NumColours + col
			c[loc][col] = uint8((key.Data[n/8] >> ((n % 8) * 4)) & 0x0f)
		}
	}
	return c
}

// EqualKeys returns true if two keys are identical.
func EqualKeys(a, b Key) bool {
	return a.Data == b.Data
}

// PositionID returns the printable ID for a position.
func PositionID(c Counts) string {
	var raw [NumLocations]byte
	for loc := 0; loc < NumLocations; loc++ {
		raw[loc] = c[loc][0]&0x0f | (c[loc][1]&0x0f)<<4
	}
	return encoding.EncodeToString(raw[:])
}

// CountsFromPositionID decodes a position ID.
func CountsFromPositionID(id string) (Counts, error) {
	var c Counts
	if len(id) != PositionIDLength {
		return c, fmt.Errorf("%w: length %d, want %d", ErrInvalidID, len(id), PositionIDLength)
	}
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	for loc := 0; loc < NumLocations; loc++ {
		c[loc][0] = raw[loc] & 0x0f
		c[loc][1] = raw[loc] >> 4
	}
	return c, nil
}

// Hash mixes a key and a context word into a 32-bit hash (MurmurHash3 mixing).
func Hash(key Key, context uint32) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	h := uint32(0)
	mix := func(k uint32) {
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}
	for _, k := range key.Data {
		mix(k)
	}
	mix(context)

	h ^= 32
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
