// Package theory provides pitch tokens, scales, and chord-progression
// lookup for the melody generator. Pitches are opaque string tokens of the
// form <letter A-G><optional # or b><octave>, e.g. "C4" or "F#3".
package theory

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// FallbackPitch is emitted when no usable pitch can be derived from the
// current scale or chord-tone set.
const FallbackPitch = "C4"

var pitchRegex = regexp.MustCompile(`^([A-G])(#|b)?(-?\d+)$`)

var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Sharp spellings for each pitch class, used when rendering a MIDI number
// back into a token.
var classNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// Valid reports whether p conforms to the pitch-token grammar.
func Valid(p string) bool {
	return pitchRegex.MatchString(p)
}

// MIDI converts a pitch token to its MIDI note number (C4 = 60).
func MIDI(p string) (int, error) {
	m := pitchRegex.FindStringSubmatch(p)
	if m == nil {
		return 0, fmt.Errorf("malformed pitch %q", p)
	}
	offset := letterOffsets[m[1][0]]
	switch m[2] {
	case "#":
		offset++
	case "b":
		offset--
	}
	octave, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, fmt.Errorf("malformed pitch octave %q", p)
	}
	return (octave+1)*12 + offset, nil
}

// FromMIDI renders a MIDI note number as a pitch token using sharp spellings.
func FromMIDI(midi int) string {
	class := midi % 12
	if class < 0 {
		class += 12
	}
	octave := midi/12 - 1
	if midi < 0 && midi%12 != 0 {
		octave--
	}
	return fmt.Sprintf("%s%d", classNames[class], octave)
}

// Frequency converts a pitch token to Hz (equal temperament, A4 = 440).
func Frequency(p string) (float64, error) {
	midi, err := MIDI(p)
	if err != nil {
		return 0, err
	}
	return 440 * math.Pow(2, float64(midi-69)/12), nil
}

// Transpose shifts a pitch token by n semitones.
func Transpose(p string, n int) (string, error) {
	midi, err := MIDI(p)
	if err != nil {
		return "", err
	}
	return FromMIDI(midi + n), nil
}

// SemitoneDistance returns the absolute distance between two pitch tokens.
func SemitoneDistance(a, b string) (int, error) {
	ma, err := MIDI(a)
	if err != nil {
		return 0, err
	}
	mb, err := MIDI(b)
	if err != nil {
		return 0, err
	}
	d := ma - mb
	if d < 0 {
		d = -d
	}
	return d, nil
}
