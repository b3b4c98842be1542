package sourceapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"chrome", "Google Chrome"},
		{"  Google Chrome  ", "Google Chrome"},
		{"Safari.app", "Safari"},
		{"iTerm2", "iTerm"},
		{"Code.exe", "Visual Studio Code"},
		{"Some Editor", "Some Editor"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestDetector_CachesAndBounds(t *testing.T) {
	names := []string{"chrome", "slack", "word", "chrome"}
	i := 0
	d := newDetector(func() string {
		n := names[i%len(names)]
		i++
		return n
	}, 2)

	assert.Equal(t, "Google Chrome", d.Current())
	assert.Equal(t, "Slack", d.Current())
	assert.Equal(t, "Microsoft Word", d.Current())
	assert.Equal(t, "Google Chrome", d.Current())
	assert.LessOrEqual(t, d.Len(), 2)
}

func TestDetector_Empty(t *testing.T) {
	d := newDetector(func() string { return "" }, 0)
	assert.Equal(t, "", d.Current())
	assert.Equal(t, 0, d.Len())
}
