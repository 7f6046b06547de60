package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRefs(t *testing.T) {
	refs, err := ParseRefs("Genesis 1:1-3, Exodus 1:2")
	require.NoError(t, err)
	assert.Equal(t, []Ref{
		{"Genesis", 1, 1}, {"Genesis", 1, 2}, {"Genesis", 1, 3}, {"Exodus", 1, 2},
	}, refs)

	refs, err = ParseRefs("Luke 1:2,5,7-8")
	require.NoError(t, err)
	assert.Equal(t, []Ref{{"Luke", 1, 2}, {"Luke", 1, 5}, {"Luke", 1, 7}, {"Luke", 1, 8}}, refs)

	refs, err = ParseRefs("1 Kings 2:3")
	require.NoError(t, err)
	assert.Equal(t, []Ref{{"1 Kings", 2, 3}}, refs)
	assert.Equal(t, "1 Kings 2:3", refs[0].String())
}

func TestParseRefsRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"Genesis",
		"3-4",
		"1:2",
		"Genesis x:1",
		"Genesis 1:0",
		"Genesis 1:5-2",
		"Genesis 1:a",
	} {
		_, err := ParseRefs(s)
		assert.ErrorIs(t, err, ErrBadReference, "input %q", s)
	}
}
