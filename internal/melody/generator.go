// Package melody implements the complexity-driven melody generator: a
// stateful note selector, phrase tracking, rhythmic pattern selection, and
// short-term motif memory, orchestrated into one scheduling decision per
// tick. Directives are handed to a synthesis collaborator through the Sink
// interface; the generator never blocks on it.
package melody

import (
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jinryan/music-room/internal/motif"
	"github.com/jinryan/music-room/internal/phrase"
	"github.com/jinryan/music-room/internal/rhythm"
	"github.com/jinryan/music-room/internal/theory"
)

// PitchProvider supplies scales, per-bar chord tones, and pitch-token
// conversions. The repo's implementation lives in internal/theory.
type PitchProvider interface {
	Scale(octave int) []string
	ChordTones(barIndex, octave int) []string
	Frequency(pitch string) (float64, error)
	Transpose(pitch string, n int) (string, error)
	SemitoneDistance(a, b string) (int, error)
}

// Directive is one note instruction for the synthesis collaborator.
type Directive struct {
	FrequencyHz     float64
	StartTime       float64
	DurationSeconds float64
	OverlapSeconds  float64
}

// Sink receives directives. Play must not block; voice allocation and
// legato handling are the sink's concern.
type Sink interface {
	Play(Directive)
}

// ticksPerBar is the number of eighth-note decision ticks in one bar.
const ticksPerBar = 8

// historyCap bounds the recent-note history fed to motif memory.
const historyCap = 8

// beatPosition is derived from the absolute tick index.
type beatPosition struct {
	bar      int
	pos      int // 0-7 within the bar
	strong   bool
	downbeat bool
}

func beatPositionFor(tick int) beatPosition {
	pos := tick % ticksPerBar
	return beatPosition{
		bar:      tick / ticksPerBar,
		pos:      pos,
		strong:   pos == 0 || pos == 4,
		downbeat: pos%2 == 0,
	}
}

// GeneratorConfig is the static construction surface of a Generator.
type GeneratorConfig struct {
	Tuning            Tuning
	Octave            int
	BeatSeconds       float64
	OverlapSeconds    float64
	LoopBars          int // bars in one loop of the chord progression
	LookaheadLoops    int // loop repetitions pre-scheduled by Start
	InitialComplexity float64
}

// DefaultGeneratorConfig returns the stock configuration: 120 BPM, octave
// 4, a four-bar loop with three pre-scheduled repetitions.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Tuning:            DefaultTuning(),
		Octave:            4,
		BeatSeconds:       0.5,
		OverlapSeconds:    0.05,
		LoopBars:          4,
		LookaheadLoops:    3,
		InitialComplexity: 0.3,
	}
}

func (c GeneratorConfig) normalize() GeneratorConfig {
	def := DefaultGeneratorConfig()
	c.Tuning = c.Tuning.Normalize()
	if c.Octave <= 0 {
		c.Octave = def.Octave
	}
	if c.BeatSeconds <= 0 {
		c.BeatSeconds = def.BeatSeconds
	}
	if c.OverlapSeconds <= 0 {
		c.OverlapSeconds = def.OverlapSeconds
	}
	if c.LoopBars <= 0 {
		c.LoopBars = def.LoopBars
	}
	if c.LookaheadLoops <= 0 {
		c.LookaheadLoops = def.LookaheadLoops
	}
	return c
}

// Generator drives one melody voice. All state is owned by the instance;
// independent instances share nothing and need no synchronization. All
// mutation happens synchronously inside ScheduleTick, SetComplexity,
// Start, and Stop.
type Generator struct {
	cfg      GeneratorConfig
	tuning   Tuning
	provider PitchProvider
	sink     Sink
	rng      *rand.Rand

	sel    *selector
	phrase *phrase.Tracker
	rhythm *rhythm.Generator
	motifs *motif.Memory
	scale  []string

	complexity      float64
	params          Params
	restOverride    float64
	hasRestOverride bool

	scheduled map[int]struct{}
	history   []string
}

// NewGenerator wires a Generator against a pitch provider and a directive
// sink. A nil rng gets a time-seeded source; tests inject a fixed seed.
func NewGenerator(cfg GeneratorConfig, provider PitchProvider, sink Sink, rng *rand.Rand) *Generator {
	cfg = cfg.normalize()
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	scale := provider.Scale(cfg.Octave)
	g := &Generator{
		cfg:       cfg,
		tuning:    cfg.Tuning,
		provider:  provider,
		sink:      sink,
		rng:       rng,
		phrase:    phrase.NewTracker(cfg.Tuning.PhraseLength, cfg.Tuning.BeatsPerBar),
		rhythm:    rhythm.NewGenerator(rng),
		scale:     scale,
		scheduled: make(map[int]struct{}),
	}
	g.motifs = motif.NewMemory(cfg.Tuning.MotifCapacity, cfg.Tuning.MotifRecallProb, rng, g.diatonicStep)
	g.sel = newSelector(cfg.Tuning, provider, g.motifs, rng)
	g.SetComplexity(cfg.InitialComplexity)
	return g
}

// diatonicStep shifts a pitch by whole scale steps; pitches outside the
// scale come back unchanged.
func (g *Generator) diatonicStep(pitch string, steps int) string {
	idx, ok := scaleIndex(g.scale, pitch)
	if !ok {
		return pitch
	}
	idx += steps
	if idx < 0 {
		idx = 0
	}
	if idx >= len(g.scale) {
		idx = len(g.scale) - 1
	}
	return g.scale[idx]
}

// SetComplexity clamps the value to [0, 1] and recomputes the derived
// parameters. Calling it twice with the same value is a no-op.
func (g *Generator) SetComplexity(v float64) {
	g.complexity = clamp01(v)
	g.params = deriveParams(g.complexity, g.tuning)
}

// Complexity returns the current clamped complexity.
func (g *Generator) Complexity() float64 { return g.complexity }

// Params returns the current complexity-derived parameters.
func (g *Generator) Params() Params { return g.params }

// SetRestProbability overrides the complexity-derived rest probability.
// A negative value removes the override.
func (g *Generator) SetRestProbability(v float64) {
	if v < 0 {
		g.hasRestOverride = false
		return
	}
	g.restOverride = clamp01(v)
	g.hasRestOverride = true
}

// TickSeconds is the wall-clock length of one decision tick (an eighth
// note).
func (g *Generator) TickSeconds() float64 { return g.cfg.BeatSeconds / 2 }

// LookaheadTicks is the number of ticks Start pre-schedules.
func (g *Generator) LookaheadTicks() int {
	return g.cfg.LookaheadLoops * g.cfg.LoopBars * ticksPerBar
}

// Start resets every sub-component and pre-schedules a lookahead window of
// ticks at precomputed times so the synthesis collaborator never starves.
// Calling Start while already running re-arms cleanly.
func (g *Generator) Start(at float64) {
	g.reset()
	step := g.TickSeconds()
	for i := 0; i < g.LookaheadTicks(); i++ {
		g.ScheduleTick(i, at+float64(i)*step)
	}
}

// Stop resets all state. Silencing in-flight sound is the synthesis
// collaborator's responsibility.
func (g *Generator) Stop() {
	g.reset()
}

func (g *Generator) reset() {
	g.scheduled = make(map[int]struct{})
	g.sel.reset()
	g.phrase.Reset()
	g.rhythm.Reset()
	g.motifs.Clear()
	g.history = nil
}

// ScheduleTick makes one decision for the given tick. For a fixed tick
// index only the first call has effect; repeats are no-ops even with a
// different time, so overlapping lookahead windows cannot double-emit.
func (g *Generator) ScheduleTick(tick int, at float64) {
	if tick < 0 {
		return
	}
	if _, done := g.scheduled[tick]; done {
		return
	}
	g.scheduled[tick] = struct{}{}

	pos := beatPositionFor(tick)
	if g.shouldRest(pos.strong) {
		g.phrase.Advance()
		return
	}

	chordTones := g.provider.ChordTones(pos.bar, g.cfg.Octave)
	// At structural points the phrase contour may steer the direction.
	if g.phrase.AtStructuralPoint() && g.rng.Float64() < g.params.PhraseAwareness {
		if g.phrase.Rising() {
			g.sel.dir.sign = 1
		} else {
			g.sel.dir.sign = -1
		}
	}
	ctx := &stepContext{
		scale:      g.scale,
		chordTones: chordTones,
		strong:     pos.strong,
		resolve:    g.phrase.ShouldResolve(),
		complexity: g.complexity,
		params:     g.params,
	}
	pitch := g.sel.clampRange(g.sel.next(ctx))
	if !theory.Valid(pitch) {
		log.WithFields(log.Fields{
			"function": "Generator.ScheduleTick",
			"pitch":    pitch,
			"tick":     tick,
		}).Warn("malformed pitch, falling back to chord root")
		if len(chordTones) > 0 {
			pitch = chordTones[0]
		} else {
			pitch = theory.FallbackPitch
		}
	}

	freq, err := g.provider.Frequency(pitch)
	if err != nil {
		log.WithFields(log.Fields{
			"function": "Generator.ScheduleTick",
			"pitch":    pitch,
			"tick":     tick,
		}).Warn(err.Error())
		g.phrase.Advance()
		return
	}

	token := g.rhythm.Next(g.params.RhythmicVariation)
	g.sink.Play(Directive{
		FrequencyHz:     freq,
		StartTime:       at,
		DurationSeconds: rhythm.ParseDuration(token, g.cfg.BeatSeconds),
		OverlapSeconds:  g.cfg.OverlapSeconds,
	})

	g.sel.committed(pitch, g.scale, g.complexity)
	g.history = append(g.history, pitch)
	if len(g.history) > historyCap {
		g.history = g.history[len(g.history)-historyCap:]
	}
	g.motifs.Record(g.history)
	g.phrase.Advance()
}

// shouldRest draws the rest-or-note decision; strong beats rest less.
func (g *Generator) shouldRest(strong bool) bool {
	p := g.params.Rest
	if g.hasRestOverride {
		p = g.restOverride
	}
	if strong {
		p *= g.tuning.StrongBeatRestMul
	}
	return g.rng.Float64() < p
}
