package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/shotcast/internal/errors"
)

func TestOf_Stable(t *testing.T) {
	data := []byte("func main() { fmt.Println(\"hi\") }")

	first, err := Of(data)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Of(data)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.False(t, first.IsZero())
}

func TestOf_DistinctInputs(t *testing.T) {
	inputs := [][]byte{
		[]byte("a"),
		[]byte("b"),
		[]byte("ab"),
		[]byte("ba"),
		[]byte("a "),
		{0x00},
		{0x00, 0x00},
		[]byte(strings.Repeat("x", 4096)),
		[]byte(strings.Repeat("x", 4097)),
	}
	seen := make(map[Fingerprint]int)
	for i, in := range inputs {
		fp, err := Of(in)
		require.NoError(t, err)
		if prev, ok := seen[fp]; ok {
			t.Fatalf("inputs %d and %d share fingerprint %s", prev, i, fp)
		}
		seen[fp] = i
	}
}

func TestOf_DoesNotAliasInput(t *testing.T) {
	data := []byte("mutable")
	before, err := Of(data)
	require.NoError(t, err)
	data[0] = 'M'
	after, err := Of(data)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestOf_RejectsEmpty(t *testing.T) {
	_, err := Of(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCapture))

	_, err = Of([]byte{})
	require.Error(t, err)
}

func TestParse_RoundTrip(t *testing.T) {
	fp, err := Of([]byte("hello"))
	require.NoError(t, err)

	s := fp.String()
	assert.Len(t, s, 64)
	assert.Equal(t, s[:12], fp.Short())

	parsed, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)

	var viaText Fingerprint
	require.NoError(t, viaText.UnmarshalText([]byte(s)))
	assert.Equal(t, fp, viaText)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("zz")
	require.Error(t, err)

	_, err = Parse("abcd")
	require.Error(t, err)
}
