package melody

// Tuning holds the static constants of the note-selection engine. All
// fields are overridable at construction; zero values fall back to the
// defaults via Normalize.
type Tuning struct {
	// TierThresholds are the ascending upper bounds of the first four
	// complexity tiers; the fifth tier covers everything above the last.
	TierThresholds [4]float64

	// Scaling maxima for the complexity-derived parameters.
	PassingToneMax    float64
	RhythmicVarMax    float64
	PhraseAwareMax    float64
	DissonanceMax     float64
	RestMax           float64
	RestReduction     float64 // fraction of RestMax removed at full complexity
	StrongBeatRestMul float64 // rest-probability multiplier on strong beats

	// Melodic range bounds, inclusive.
	RangeLow  string
	RangeHigh string

	// Direction-change bounds: an arc may run BaseSteps plus a
	// complexity-scaled allowance before a flip is considered.
	DirectionBaseSteps int
	DirectionScaling   float64
	DirectionFlipProb  float64

	// Maximum interval, in semitones, preferred when choosing a chord tone
	// in the current direction.
	DirectionalInterval int

	// Starting-note rule.
	RootPreference    float64
	PreferredInterval int

	// Motif recall.
	MotifRecallProb float64
	MotifCapacity   int

	// Phrase shape.
	PhraseLength int
	BeatsPerBar  int
}

// DefaultTuning returns the stock tuning.
func DefaultTuning() Tuning {
	return Tuning{
		TierThresholds:      [4]float64{0.1, 0.3, 0.5, 0.7},
		PassingToneMax:      0.6,
		RhythmicVarMax:      1.0,
		PhraseAwareMax:      0.9,
		DissonanceMax:       0.3,
		RestMax:             0.4,
		RestReduction:       0.75,
		StrongBeatRestMul:   0.5,
		RangeLow:            "C3",
		RangeHigh:           "C6",
		DirectionBaseSteps:  3,
		DirectionScaling:    4,
		DirectionFlipProb:   0.6,
		DirectionalInterval: 5,
		RootPreference:      0.7,
		PreferredInterval:   2,
		MotifRecallProb:     0.3,
		MotifCapacity:       3,
		PhraseLength:        16,
		BeatsPerBar:         4,
	}
}

// Normalize fills zero-valued fields from the defaults so partially
// specified tunings behave sensibly.
func (t Tuning) Normalize() Tuning {
	def := DefaultTuning()
	if t.TierThresholds == ([4]float64{}) {
		t.TierThresholds = def.TierThresholds
	}
	if t.PassingToneMax == 0 {
		t.PassingToneMax = def.PassingToneMax
	}
	if t.RhythmicVarMax == 0 {
		t.RhythmicVarMax = def.RhythmicVarMax
	}
	if t.PhraseAwareMax == 0 {
		t.PhraseAwareMax = def.PhraseAwareMax
	}
	if t.DissonanceMax == 0 {
		t.DissonanceMax = def.DissonanceMax
	}
	if t.RestMax == 0 {
		t.RestMax = def.RestMax
	}
	if t.RestReduction == 0 {
		t.RestReduction = def.RestReduction
	}
	if t.StrongBeatRestMul == 0 {
		t.StrongBeatRestMul = def.StrongBeatRestMul
	}
	if t.RangeLow == "" {
		t.RangeLow = def.RangeLow
	}
	if t.RangeHigh == "" {
		t.RangeHigh = def.RangeHigh
	}
	if t.DirectionBaseSteps == 0 {
		t.DirectionBaseSteps = def.DirectionBaseSteps
	}
	if t.DirectionScaling == 0 {
		t.DirectionScaling = def.DirectionScaling
	}
	if t.DirectionFlipProb == 0 {
		t.DirectionFlipProb = def.DirectionFlipProb
	}
	if t.DirectionalInterval == 0 {
		t.DirectionalInterval = def.DirectionalInterval
	}
	if t.RootPreference == 0 {
		t.RootPreference = def.RootPreference
	}
	if t.PreferredInterval == 0 {
		t.PreferredInterval = def.PreferredInterval
	}
	if t.MotifRecallProb == 0 {
		t.MotifRecallProb = def.MotifRecallProb
	}
	if t.MotifCapacity == 0 {
		t.MotifCapacity = def.MotifCapacity
	}
	if t.PhraseLength == 0 {
		t.PhraseLength = def.PhraseLength
	}
	if t.BeatsPerBar == 0 {
		t.BeatsPerBar = def.BeatsPerBar
	}
	return t
}

// Params are the five scalars recomputed whenever complexity changes. All
// values stay within [0, 1].
type Params struct {
	PassingTone         float64
	RhythmicVariation   float64
	PhraseAwareness     float64
	DissonanceTolerance float64
	Rest                float64
}

// deriveParams applies the fixed linear scalings for a clamped complexity.
// Rest probability is the one parameter that falls as complexity rises.
func deriveParams(complexity float64, t Tuning) Params {
	return Params{
		PassingTone:         clamp01(complexity * t.PassingToneMax),
		RhythmicVariation:   clamp01(complexity * t.RhythmicVarMax),
		PhraseAwareness:     clamp01(complexity * t.PhraseAwareMax),
		DissonanceTolerance: clamp01(complexity * t.DissonanceMax),
		Rest:                clamp01(t.RestMax * (1 - t.RestReduction*complexity)),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
