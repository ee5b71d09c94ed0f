package slug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Next(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]bool)
	counts := make(map[rune]int)

	for i := 0; i < 2000; i++ {
		s, err := g.Next()
		require.NoError(t, err)
		require.True(t, Valid(s), "unexpected slug %q", s)
		seen[s] = true
		for _, r := range s {
			counts[r]++
		}
	}

	assert.Greater(t, len(seen), 1990)
	// every symbol should show up in 12000 draws
	for _, r := range Alphabet {
		assert.Positive(t, counts[r], "symbol %q never drawn", r)
	}
}

func TestGenerator_ExhaustedRandomness(t *testing.T) {
	g := NewGeneratorFrom(bytes.NewReader(nil))
	_, err := g.Next()
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"abc123", true},
		{"000000", true},
		{"ABC123", false},
		{"abc12", false},
		{"abc1234", false},
		{"abc-12", false},
		{"", false},
		{strings.Repeat("z", 6), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.in), tt.in)
	}
}
