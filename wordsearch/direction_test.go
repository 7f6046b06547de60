package wordsearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegimeDirections(t *testing.T) {
	assert.Equal(t, []Direction{Right, RightDown, Down}, LTR.Directions())
	assert.Equal(t, []Direction{Left, LeftDown, Down}, RTL.Directions())

	// Callers may consume the slice.
	dirs := LTR.Directions()
	dirs[0] = Left
	assert.Equal(t, Right, LTR.Directions()[0])
}

func TestParseRegime(t *testing.T) {
	for in, want := range map[string]Regime{"ltr": LTR, "RTL": RTL, " Ltr ": LTR} {
		got, err := ParseRegime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRegime("ttb")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDirectionSteps(t *testing.T) {
	start := Coord{Row: 2, Col: 2}
	assert.Equal(t, Coord{Row: 2, Col: 5}, start.Add(Right, 3))
	assert.Equal(t, Coord{Row: 3, Col: 3}, start.Add(RightDown, 1))
	assert.Equal(t, Coord{Row: 4, Col: 2}, start.Add(Down, 2))
	assert.Equal(t, Coord{Row: 2, Col: 1}, start.Add(Left, 1))
	assert.Equal(t, Coord{Row: 3, Col: 1}, start.Add(LeftDown, 1))
	assert.Equal(t, start, start.Add(LeftDown, 1).Add(LeftDown, -1))
}

func TestDirectionJSON(t *testing.T) {
	b, err := json.Marshal(Placement{Word: "AB", Direction: LeftDown})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"direction":"LD"`)

	var d Direction
	require.NoError(t, json.Unmarshal([]byte(`"RD"`), &d))
	assert.Equal(t, RightDown, d)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"UP"`), &d), ErrConfiguration)
}

func TestStats(t *testing.T) {
	s := make(Stats)
	s.Incr(Right)
	s.Incr(Right)
	s.Incr(LeftDown)

	assert.Equal(t, 2, s.Count(Right))
	assert.Equal(t, 0, s.Count(Down))
	assert.Equal(t, 3, s.Total())
	assert.Equal(t, []string{"placedLD", "placedR"}, s.Keys())
}
