package melody

import (
	"math/rand"

	"github.com/jinryan/music-room/internal/motif"
	"github.com/jinryan/music-room/internal/theory"
)

// stepContext carries everything one note decision needs.
type stepContext struct {
	scale      []string
	chordTones []string
	strong     bool
	resolve    bool // final step of the phrase
	complexity float64
	params     Params
}

type directionState struct {
	sign  int // +1 rising, -1 falling
	steps int // consecutive steps in the current direction
}

type tierStrategy struct {
	upper float64
	pick  func(ctx *stepContext) string
}

// selector is the stateful pitch-decision engine. Complexity tiers are an
// ordered table of (upperBound, strategy) pairs evaluated ascending.
type selector struct {
	tuning   Tuning
	provider PitchProvider
	motifs   *motif.Memory
	rng      *rand.Rand
	tiers    []tierStrategy

	lastNote        string
	dir             directionState
	needsResolution bool
}

func newSelector(t Tuning, provider PitchProvider, motifs *motif.Memory, rng *rand.Rand) *selector {
	s := &selector{
		tuning:   t,
		provider: provider,
		motifs:   motifs,
		rng:      rng,
		dir:      directionState{sign: 1},
	}
	s.tiers = []tierStrategy{
		{t.TierThresholds[0], s.pickNearest},
		{t.TierThresholds[1], s.pickStepwise},
		{t.TierThresholds[2], s.pickDirectional},
		{t.TierThresholds[3], s.pickMotivic},
		{1.0, s.pickChromatic},
	}
	return s
}

func (s *selector) reset() {
	s.lastNote = ""
	s.dir = directionState{sign: 1}
	s.needsResolution = false
}

// next returns the pitch choice for one decision step. The result still
// passes through range clamping and token validation before being emitted.
func (s *selector) next(ctx *stepContext) string {
	if len(ctx.chordTones) == 0 {
		if s.lastNote != "" {
			return s.lastNote
		}
		return theory.FallbackPitch
	}
	if s.lastNote == "" {
		return s.startingNote(ctx)
	}
	// A pending dissonance resolves on the first strong beat after it.
	if s.needsResolution && ctx.strong {
		s.needsResolution = false
		return s.nearestChordTone(s.lastNote, ctx.chordTones)
	}
	if ctx.resolve && s.rng.Float64() < ctx.params.PhraseAwareness {
		return s.nearestChordTone(s.lastNote, ctx.chordTones)
	}
	for _, tier := range s.tiers {
		if ctx.complexity <= tier.upper {
			return tier.pick(ctx)
		}
	}
	return s.pickChromatic(ctx)
}

// startingNote prefers the chord root, falling back to a configured
// interval above it.
func (s *selector) startingNote(ctx *stepContext) string {
	if s.rng.Float64() < s.tuning.RootPreference {
		return ctx.chordTones[0]
	}
	idx := s.tuning.PreferredInterval
	if idx >= len(ctx.chordTones) {
		idx = len(ctx.chordTones) - 1
	}
	return ctx.chordTones[idx]
}

// pickNearest always lands on the chord tone closest to the last note.
func (s *selector) pickNearest(ctx *stepContext) string {
	return s.nearestChordTone(s.lastNote, ctx.chordTones)
}

// pickStepwise keeps chord tones on strong beats and walks one scale step
// toward the nearest chord tone on weak beats.
func (s *selector) pickStepwise(ctx *stepContext) string {
	if ctx.strong {
		return s.nearestChordTone(s.lastNote, ctx.chordTones)
	}
	return s.stepTowardChord(ctx)
}

// pickDirectional honors the current melodic direction: a directional chord
// tone on strong beats, a one-step approach on weak beats.
func (s *selector) pickDirectional(ctx *stepContext) string {
	if ctx.strong {
		return s.directionalChordTone(ctx)
	}
	return s.approachStep(ctx)
}

// pickMotivic consults motif memory first, then behaves directionally.
func (s *selector) pickMotivic(ctx *stepContext) string {
	if pitch, ok := s.recallMotif(ctx); ok {
		return pitch
	}
	return s.pickDirectional(ctx)
}

// pickChromatic may place a chromatic neighbor of the last note on weak
// beats, leaving a dissonance to be resolved on the next strong beat.
func (s *selector) pickChromatic(ctx *stepContext) string {
	if pitch, ok := s.recallMotif(ctx); ok {
		return pitch
	}
	if !ctx.strong && s.rng.Float64() < ctx.params.DissonanceTolerance {
		if neighbor, err := s.provider.Transpose(s.lastNote, s.dir.sign); err == nil {
			s.needsResolution = true
			return neighbor
		}
	}
	return s.pickDirectional(ctx)
}

// recallMotif asks motif memory for a varied recall and uses its first
// note. A recalled pitch that has left the scale snaps to the nearest
// chord tone.
func (s *selector) recallMotif(ctx *stepContext) (string, bool) {
	if !s.motifs.ShouldRecall(ctx.complexity) {
		return "", false
	}
	recalled := s.motifs.RecallVaried()
	if len(recalled) == 0 {
		return "", false
	}
	pitch := recalled[0]
	if _, ok := scaleIndex(ctx.scale, pitch); !ok {
		pitch = s.nearestChordTone(pitch, ctx.chordTones)
	}
	return pitch, true
}

// nearestChordTone picks the chord tone with the smallest absolute semitone
// distance from the reference pitch.
func (s *selector) nearestChordTone(from string, chordTones []string) string {
	if len(chordTones) == 0 {
		return theory.FallbackPitch
	}
	if from == "" {
		return chordTones[0]
	}
	best := chordTones[0]
	bestDist := -1
	for _, ct := range chordTones {
		d, err := s.provider.SemitoneDistance(ct, from)
		if err != nil {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = ct, d
		}
	}
	return best
}

// directionalChordTone prefers a chord tone within a small interval in the
// current direction, falling back to the nearest one.
func (s *selector) directionalChordTone(ctx *stepContext) string {
	lastIdx := s.nearestScaleIndex(ctx.scale, s.lastNote)
	best := ""
	bestDist := -1
	for _, ct := range ctx.chordTones {
		idx, ok := scaleIndex(ctx.scale, ct)
		if !ok || sign(idx-lastIdx) != s.dir.sign {
			continue
		}
		d, err := s.provider.SemitoneDistance(ct, s.lastNote)
		if err != nil || d > s.tuning.DirectionalInterval {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = ct, d
		}
	}
	if best == "" {
		return s.nearestChordTone(s.lastNote, ctx.chordTones)
	}
	return best
}

// stepTowardChord moves one scale step toward the nearest chord tone.
func (s *selector) stepTowardChord(ctx *stepContext) string {
	target := s.nearestChordTone(s.lastNote, ctx.chordTones)
	lastIdx := s.nearestScaleIndex(ctx.scale, s.lastNote)
	targetIdx := s.nearestScaleIndex(ctx.scale, target)
	switch {
	case targetIdx > lastIdx:
		return ctx.scale[lastIdx+1]
	case targetIdx < lastIdx:
		return ctx.scale[lastIdx-1]
	default:
		// Already on a chord tone; a passing tone keeps the line moving.
		next := lastIdx + s.dir.sign
		if s.rng.Float64() < ctx.params.PassingTone && next >= 0 && next < len(ctx.scale) {
			return ctx.scale[next]
		}
		return target
	}
}

// approachStep moves one scale step in the current direction, reversing at
// the edges of the scale range.
func (s *selector) approachStep(ctx *stepContext) string {
	lastIdx := s.nearestScaleIndex(ctx.scale, s.lastNote)
	next := lastIdx + s.dir.sign
	if next < 0 || next >= len(ctx.scale) {
		s.dir.sign = -s.dir.sign
		s.dir.steps = 1
		next = lastIdx + s.dir.sign
		if next < 0 || next >= len(ctx.scale) {
			return s.lastNote
		}
	}
	return ctx.scale[next]
}

// committed records the emitted pitch and updates the direction state:
// continuing in the current direction lengthens the arc, changing course
// flips it, and arcs past the complexity-scaled bound may flip at random.
func (s *selector) committed(pitch string, scale []string, complexity float64) {
	prev := s.lastNote
	s.lastNote = pitch
	if prev == "" {
		return
	}
	delta := s.nearestScaleIndex(scale, pitch) - s.nearestScaleIndex(scale, prev)
	if delta != 0 {
		if sign(delta) == s.dir.sign {
			s.dir.steps++
		} else {
			s.dir.sign = -s.dir.sign
			s.dir.steps = 1
		}
	}
	maxSteps := s.tuning.DirectionBaseSteps + int(complexity*s.tuning.DirectionScaling)
	if s.dir.steps >= maxSteps && s.rng.Float64() < s.tuning.DirectionFlipProb {
		s.dir.sign = -s.dir.sign
		s.dir.steps = 0
	}
}

// clampRange transposes a pitch by an octave when it leaves the melodic
// range bounds.
func (s *selector) clampRange(pitch string) string {
	m, err := theory.MIDI(pitch)
	if err != nil {
		return pitch
	}
	low, errLow := theory.MIDI(s.tuning.RangeLow)
	high, errHigh := theory.MIDI(s.tuning.RangeHigh)
	if errLow != nil || errHigh != nil {
		return pitch
	}
	if m < low {
		if up, err := s.provider.Transpose(pitch, 12); err == nil {
			return up
		}
	} else if m > high {
		if down, err := s.provider.Transpose(pitch, -12); err == nil {
			return down
		}
	}
	return pitch
}

// scaleIndex finds an exact pitch match in the scale.
func scaleIndex(scale []string, pitch string) (int, bool) {
	for i, p := range scale {
		if p == pitch {
			return i, true
		}
	}
	return 0, false
}

// nearestScaleIndex finds the exact match when present, otherwise the scale
// member closest by absolute semitone distance.
func (s *selector) nearestScaleIndex(scale []string, pitch string) int {
	if idx, ok := scaleIndex(scale, pitch); ok {
		return idx
	}
	best := 0
	bestDist := -1
	for i, p := range scale {
		d, err := s.provider.SemitoneDistance(p, pitch)
		if err != nil {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}
