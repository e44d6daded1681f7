package rhythm

import (
	"math"
	"math/rand"
	"testing"
)

func TestParseDuration(t *testing.T) {
	const beat = 0.5
	cases := []struct {
		token string
		want  float64
	}{
		{"4n", 0.5},
		{"8n", 0.25},
		{"8n.", 0.375},
		{"16n", 0.125},
		{"8t", 0.25 * 2 / 3},
		{"2h", 2.0},
		{"bogus", 0.25}, // default half beat
		{"", 0.25},
		{"0n", 0.25},
	}
	for _, tc := range cases {
		got := ParseDuration(tc.token, beat)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseDuration(%q, %v) = %v, want %v", tc.token, beat, got, tc.want)
		}
	}
}

func TestLowVariationAlwaysSteady(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	for i := 0; i < 8; i++ {
		token := g.Next(0)
		want := steadyPattern[i%len(steadyPattern)]
		if token != want {
			t.Fatalf("token %d = %q, want %q", i, token, want)
		}
	}
}

func TestSharedIndexAdvancesAcrossFamilies(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	g.Next(0)
	g.Next(0.95)
	// Third token lands at index 2 of whichever family was chosen.
	if g.index != 2 {
		t.Fatalf("shared index = %d, want 2", g.index)
	}
}

func TestHighVariationDrawsFromAllFamilies(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(7)))
	known := map[string]bool{}
	for _, fam := range [][]string{steadyPattern, syncopatedPattern, swungPattern, mixedPattern, tripletPattern} {
		for _, tok := range fam {
			known[tok] = true
		}
	}
	for i := 0; i < 100; i++ {
		token := g.Next(0.95)
		if !known[token] {
			t.Fatalf("unknown token %q", token)
		}
	}
}

func TestResetZeroesIndex(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	g.Next(0)
	g.Next(0)
	g.Reset()
	if g.index != 0 {
		t.Fatalf("index after reset = %d, want 0", g.index)
	}
	if tok := g.Next(0); tok != steadyPattern[0] {
		t.Fatalf("first token after reset = %q, want %q", tok, steadyPattern[0])
	}
}
