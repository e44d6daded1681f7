// Package rhythm chooses note-duration tokens from a small set of fixed
// pattern families, scaled by a variation amount, and converts duration
// tokens to seconds.
package rhythm

import (
	"math/rand"
	"regexp"
	"strconv"
)

// Duration tokens follow <denom><n|t|h><optional dot>: "4n" is a quarter
// note, "8t" an eighth triplet, "2h" two half notes tied, and a trailing
// dot extends the value by half.
var durationRegex = regexp.MustCompile(`^(\d+)([nth])(\.)?$`)

// defaultBeats is used for any token the grammar does not recognize.
const defaultBeats = 0.5

var (
	steadyPattern     = []string{"4n", "4n", "8n", "8n"}
	syncopatedPattern = []string{"8n", "16n", "8n.", "16n", "8n"}
	swungPattern      = []string{"8n.", "16n", "8n.", "16n"}
	mixedPattern      = []string{"4n", "8n", "8n", "16n", "16n", "8n."}
	tripletPattern    = []string{"8t", "8t", "8t", "4n"}
)

// Generator hands out one duration token per call. A single cyclic index is
// shared across all families, so switching families mid-sequence changes the
// apparent starting offset; that drift is kept as stylistic variation.
type Generator struct {
	index int
	rng   *rand.Rand
}

// NewGenerator builds a Generator drawing randomness from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Next picks a pattern family for the given variation amount in [0, 1] and
// returns the next token from it.
func (g *Generator) Next(variation float64) string {
	family := g.pickFamily(variation)
	token := family[g.index%len(family)]
	g.index++
	return token
}

func (g *Generator) pickFamily(variation float64) []string {
	switch {
	case variation < 0.2:
		return steadyPattern
	case variation < 0.5:
		if g.rng.Float64() < 0.7 {
			return steadyPattern
		}
		return syncopatedPattern
	case variation < 0.8:
		switch g.rng.Intn(3) {
		case 0:
			return syncopatedPattern
		case 1:
			return swungPattern
		default:
			return mixedPattern
		}
	default:
		switch g.rng.Intn(4) {
		case 0:
			return syncopatedPattern
		case 1:
			return swungPattern
		case 2:
			return mixedPattern
		default:
			return tripletPattern
		}
	}
}

// Reset zeroes the shared token index.
func (g *Generator) Reset() {
	g.index = 0
}

// Beats returns the length of a duration token in beats. Unrecognized
// tokens fall back to half a beat.
func Beats(token string) float64 {
	m := durationRegex.FindStringSubmatch(token)
	if m == nil {
		return defaultBeats
	}
	denom, err := strconv.Atoi(m[1])
	if err != nil || denom == 0 {
		return defaultBeats
	}
	var beats float64
	switch m[2] {
	case "n":
		beats = 4 / float64(denom)
	case "t":
		beats = 4 / float64(denom) * 2 / 3
	case "h":
		beats = float64(denom) * 2
	}
	if m[3] == "." {
		beats *= 1.5
	}
	return beats
}

// ParseDuration converts a duration token to seconds given the length of
// one beat in seconds.
func ParseDuration(token string, beatSeconds float64) float64 {
	return Beats(token) * beatSeconds
}
