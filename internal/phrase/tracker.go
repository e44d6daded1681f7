// Package phrase tracks position within a repeating phrase of decision
// steps and flags the structural points the melody generator cares about.
package phrase

const (
	DefaultLength      = 16
	DefaultBeatsPerBar = 4
)

// Tracker is a cyclic counter over a fixed number of decision steps. The
// zero value is unusable; use NewTracker.
type Tracker struct {
	counter     int
	length      int
	beatsPerBar int
}

// NewTracker builds a Tracker of the given phrase length in decision steps.
// Non-positive arguments fall back to the defaults.
func NewTracker(length, beatsPerBar int) *Tracker {
	if length <= 0 {
		length = DefaultLength
	}
	if beatsPerBar <= 0 {
		beatsPerBar = DefaultBeatsPerBar
	}
	return &Tracker{length: length, beatsPerBar: beatsPerBar}
}

// Advance moves the tracker one decision step, wrapping at the phrase end.
func (t *Tracker) Advance() {
	t.counter = (t.counter + 1) % t.length
}

// Step returns the current step counter in [0, length).
func (t *Tracker) Step() int { return t.counter }

// Length returns the phrase length in decision steps.
func (t *Tracker) Length() int { return t.length }

// Position returns the fraction of the phrase elapsed, in [0, 1).
func (t *Tracker) Position() float64 {
	return float64(t.counter) / float64(t.length)
}

// AtStructuralPoint reports whether the current step begins a two-bar-scale
// structural unit.
func (t *Tracker) AtStructuralPoint() bool {
	return t.counter%(t.beatsPerBar*2) == 0
}

// ShouldResolve is true only on the final step of the phrase.
func (t *Tracker) ShouldResolve() bool {
	return t.counter == t.length-1
}

// Rising reports the contour bias: rising in the first half of the phrase,
// falling in the second.
func (t *Tracker) Rising() bool {
	return t.Position() < 0.5
}

// Reset returns the tracker to the start of the phrase.
func (t *Tracker) Reset() {
	t.counter = 0
}
