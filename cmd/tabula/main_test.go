package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tabula/pkg/engine"
)

func TestParseDice(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"3,5", []int{3, 5}},
		{"3-5", []int{3, 5}},
		{" 6 , 1 ", []int{6, 1}},
		{"4,4", []int{4, 4, 4, 4}},
		{"2", []int{2}},
		{"2,2,2", []int{2, 2, 2}},
	}
	for _, tc := range tests {
		got, err := parseDice(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "0,3", "7-1", "a,b", "1,1,1,1,1"} {
		_, err := parseDice(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePosition(t *testing.T) {
	b, err := parsePosition("")
	require.NoError(t, err)
	assert.True(t, b.Equal(engine.NewBoard()))

	b, err = parsePosition(engine.NewBoard().PositionID())
	require.NoError(t, err)
	assert.True(t, b.Equal(engine.NewBoard()))

	_, err = parsePosition("nonsense")
	assert.Error(t, err)
}
