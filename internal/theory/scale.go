package theory

import "fmt"

var modeIntervals = map[string][]int{
	"major":      {0, 2, 4, 5, 7, 9, 11},
	"minor":      {0, 2, 3, 5, 7, 8, 10},
	"dorian":     {0, 2, 3, 5, 7, 9, 10},
	"mixolydian": {0, 2, 4, 5, 7, 9, 10},
	"lydian":     {0, 2, 4, 6, 7, 9, 11},
}

// DefaultProgression is a I-V-vi-IV loop expressed as zero-based scale
// degrees, one per bar.
var DefaultProgression = []int{0, 4, 5, 3}

// Provider resolves scales, per-bar chord tones, and frequencies for one
// key/mode. It satisfies the pitch-provider contract the melody generator
// consumes.
type Provider struct {
	key         string
	mode        string
	keyClass    int
	intervals   []int
	progression []int
}

// NewProvider builds a Provider for a key token such as "C" or "F#" and a
// mode name. An empty progression falls back to DefaultProgression.
func NewProvider(key, mode string, progression []int) (*Provider, error) {
	if key == "" {
		key = "C"
	}
	if mode == "" {
		mode = "major"
	}
	intervals, ok := modeIntervals[mode]
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	// Reuse the pitch grammar by anchoring the key at octave 0.
	class, err := MIDI(key + "0")
	if err != nil {
		return nil, fmt.Errorf("invalid key %q", key)
	}
	if len(progression) == 0 {
		progression = DefaultProgression
	}
	for _, d := range progression {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("progression degree %d out of range", d)
		}
	}
	return &Provider{
		key:         key,
		mode:        mode,
		keyClass:    class % 12,
		intervals:   intervals,
		progression: progression,
	}, nil
}

// Key returns the provider's key token.
func (p *Provider) Key() string { return p.key }

// Mode returns the provider's mode name.
func (p *Provider) Mode() string { return p.mode }

// Bars returns the number of bars in the chord progression loop.
func (p *Provider) Bars() int { return len(p.progression) }

// degreeOffset returns the semitone offset from the key root for a scale
// degree, carrying octaves for degrees past the seventh.
func (p *Provider) degreeOffset(degree int) int {
	return p.intervals[degree%7] + 12*(degree/7)
}

// Scale returns the ordered two-octave pitch sequence starting at the key
// root in the given octave.
func (p *Provider) Scale(octave int) []string {
	root := (octave+1)*12 + p.keyClass
	out := make([]string, 0, 14)
	for degree := 0; degree < 14; degree++ {
		out = append(out, FromMIDI(root+p.degreeOffset(degree)))
	}
	return out
}

// ChordTones returns the two-octave triad for the progression degree active
// at barIndex, ordered ascending. The progression wraps cyclically.
func (p *Provider) ChordTones(barIndex, octave int) []string {
	if barIndex < 0 {
		barIndex = 0
	}
	degree := p.progression[barIndex%len(p.progression)]
	root := (octave+1)*12 + p.keyClass
	out := make([]string, 0, 6)
	for oct := 0; oct < 2; oct++ {
		for _, d := range []int{degree, degree + 2, degree + 4} {
			out = append(out, FromMIDI(root+p.degreeOffset(d)+12*oct))
		}
	}
	return out
}

// Frequency converts a pitch token to Hz.
func (p *Provider) Frequency(pitch string) (float64, error) {
	return Frequency(pitch)
}

// Transpose shifts a pitch token by n semitones.
func (p *Provider) Transpose(pitch string, n int) (string, error) {
	return Transpose(pitch, n)
}

// SemitoneDistance returns the absolute semitone distance between tokens.
func (p *Provider) SemitoneDistance(a, b string) (int, error) {
	return SemitoneDistance(a, b)
}
