// Package slug produces short random identifiers for landing pages.
package slug

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
)

const (
	// Alphabet is the set slugs are drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// Length is the number of symbols in a slug.
	Length = 6
)

var pattern = regexp.MustCompile(`^[a-z0-9]{6}$`)

// Valid reports whether s has the shape of a generated slug.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Generator produces candidate slugs. Candidates are not checked for
// uniqueness.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorFrom(rand.Reader)
}

// NewGeneratorFrom uses r as the randomness source.
func NewGeneratorFrom(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Next returns a fresh candidate.
func (g *Generator) Next() (string, error) {
	symbols := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(g.rand, symbols)
		if err != nil {
			return "", fmt.Errorf("failed to read randomness: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}
