package musicroom

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jinryan/music-room/internal/melody"
)

// MelodyConfig is the YAML-facing surface of the note-selection tuning.
type MelodyConfig struct {
	// TierThresholds are the ascending upper bounds of the first four
	// complexity tiers.
	TierThresholds []float64 `yaml:"tier_thresholds"`

	PassingToneMax       float64 `yaml:"passing_tone_max"`
	RhythmicVariationMax float64 `yaml:"rhythmic_variation_max"`
	PhraseAwarenessMax   float64 `yaml:"phrase_awareness_max"`
	DissonanceMax        float64 `yaml:"dissonance_max"`
	RestMax              float64 `yaml:"rest_max"`
	RestReduction        float64 `yaml:"rest_reduction"`
	StrongBeatRestMul    float64 `yaml:"strong_beat_rest_mul"`

	RangeLow  string `yaml:"range_low"`
	RangeHigh string `yaml:"range_high"`

	DirectionBaseSteps  int     `yaml:"direction_base_steps"`
	DirectionScaling    float64 `yaml:"direction_scaling"`
	DirectionFlipProb   float64 `yaml:"direction_flip_prob"`
	DirectionalInterval int     `yaml:"directional_interval"`

	RootPreference    float64 `yaml:"root_preference"`
	PreferredInterval int     `yaml:"preferred_interval"`

	MotifRecallProb float64 `yaml:"motif_recall_prob"`
	MotifCapacity   int     `yaml:"motif_capacity"`

	PhraseLength int `yaml:"phrase_length"`
	BeatsPerBar  int `yaml:"beats_per_bar"`
}

func defaultMelodyConfig() MelodyConfig {
	t := melody.DefaultTuning()
	return MelodyConfig{
		TierThresholds:       t.TierThresholds[:],
		PassingToneMax:       t.PassingToneMax,
		RhythmicVariationMax: t.RhythmicVarMax,
		PhraseAwarenessMax:   t.PhraseAwareMax,
		DissonanceMax:        t.DissonanceMax,
		RestMax:              t.RestMax,
		RestReduction:        t.RestReduction,
		StrongBeatRestMul:    t.StrongBeatRestMul,
		RangeLow:             t.RangeLow,
		RangeHigh:            t.RangeHigh,
		DirectionBaseSteps:   t.DirectionBaseSteps,
		DirectionScaling:     t.DirectionScaling,
		DirectionFlipProb:    t.DirectionFlipProb,
		DirectionalInterval:  t.DirectionalInterval,
		RootPreference:       t.RootPreference,
		PreferredInterval:    t.PreferredInterval,
		MotifRecallProb:      t.MotifRecallProb,
		MotifCapacity:        t.MotifCapacity,
		PhraseLength:         t.PhraseLength,
		BeatsPerBar:          t.BeatsPerBar,
	}
}

func (m MelodyConfig) tuning() melody.Tuning {
	t := melody.Tuning{
		PassingToneMax:      m.PassingToneMax,
		RhythmicVarMax:      m.RhythmicVariationMax,
		PhraseAwareMax:      m.PhraseAwarenessMax,
		DissonanceMax:       m.DissonanceMax,
		RestMax:             m.RestMax,
		RestReduction:       m.RestReduction,
		StrongBeatRestMul:   m.StrongBeatRestMul,
		RangeLow:            m.RangeLow,
		RangeHigh:           m.RangeHigh,
		DirectionBaseSteps:  m.DirectionBaseSteps,
		DirectionScaling:    m.DirectionScaling,
		DirectionFlipProb:   m.DirectionFlipProb,
		DirectionalInterval: m.DirectionalInterval,
		RootPreference:      m.RootPreference,
		PreferredInterval:   m.PreferredInterval,
		MotifRecallProb:     m.MotifRecallProb,
		MotifCapacity:       m.MotifCapacity,
		PhraseLength:        m.PhraseLength,
		BeatsPerBar:         m.BeatsPerBar,
	}
	if len(m.TierThresholds) == 4 {
		copy(t.TierThresholds[:], m.TierThresholds)
	}
	return t.Normalize()
}

// Config is the full construction surface of an Engine. All fields are
// YAML-loadable; zero values fall back to the defaults except Complexity,
// which is meaningful at zero.
type Config struct {
	SampleRate     int          `yaml:"sample_rate"`
	BPM            float64      `yaml:"bpm"`
	Key            string       `yaml:"key"`
	Mode           string       `yaml:"mode"`
	Octave         int          `yaml:"octave"`
	Progression    []int        `yaml:"progression"` // one-based degrees, e.g. [1,5,6,4]
	Complexity     float64      `yaml:"complexity"`
	OverlapSeconds float64      `yaml:"overlap_seconds"`
	LookaheadLoops int          `yaml:"lookahead_loops"`
	Gain           float64      `yaml:"gain"`
	Melody         MelodyConfig `yaml:"melody"`
}

// DefaultConfig returns the stock engine configuration: C major at 120 BPM
// over a I-V-vi-IV loop.
func DefaultConfig() Config {
	return Config{
		SampleRate:     48000,
		BPM:            120,
		Key:            "C",
		Mode:           "major",
		Octave:         4,
		Progression:    []int{1, 5, 6, 4},
		Complexity:     0.3,
		OverlapSeconds: 0.05,
		LookaheadLoops: 3,
		Gain:           0.35,
		Melody:         defaultMelodyConfig(),
	}
}

// LoadConfig reads a YAML file over the defaults, so a partial file only
// overrides what it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.normalize(), nil
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.BPM <= 0 {
		c.BPM = def.BPM
	}
	if c.Key == "" {
		c.Key = def.Key
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.Octave <= 0 {
		c.Octave = def.Octave
	}
	if len(c.Progression) == 0 {
		c.Progression = def.Progression
	}
	if c.OverlapSeconds <= 0 {
		c.OverlapSeconds = def.OverlapSeconds
	}
	if c.LookaheadLoops <= 0 {
		c.LookaheadLoops = def.LookaheadLoops
	}
	if c.Gain <= 0 {
		c.Gain = def.Gain
	}
	return c
}

func (c Config) beatSeconds() float64 {
	return 60 / c.BPM
}

// progressionDegrees converts the one-based YAML progression to the
// zero-based degrees the theory provider expects.
func (c Config) progressionDegrees() []int {
	out := make([]int, 0, len(c.Progression))
	for _, d := range c.Progression {
		out = append(out, d-1)
	}
	return out
}

func (c Config) generatorConfig() melody.GeneratorConfig {
	return melody.GeneratorConfig{
		Tuning:            c.Melody.tuning(),
		Octave:            c.Octave,
		BeatSeconds:       c.beatSeconds(),
		OverlapSeconds:    c.OverlapSeconds,
		LoopBars:          len(c.Progression),
		LookaheadLoops:    c.LookaheadLoops,
		InitialComplexity: c.Complexity,
	}
}
