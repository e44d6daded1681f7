// Package musicroom generates a looping background-music melody whose note
// choice and rhythm scale continuously with a complexity parameter. The
// Engine ties the melody generator to a small synthesis backend and the
// system audio output; complexity can be changed live while it plays.
package musicroom

import (
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	intaudio "github.com/jinryan/music-room/internal/audio"
	"github.com/jinryan/music-room/internal/melody"
	"github.com/jinryan/music-room/internal/synth"
	"github.com/jinryan/music-room/internal/theory"
)

// schedulePollInterval is how often the scheduling goroutine tops up the
// lookahead window.
const schedulePollInterval = 50 * time.Millisecond

// startLatency delays the first tick slightly past the stream clock so the
// first notes are not already in the past when playback begins.
const startLatency = 0.1

type EngineOption func(*engineOptions)

type engineOptions struct {
	seed    int64
	hasSeed bool
	noAudio bool
}

// WithSeed fixes the random source, making generated output reproducible.
func WithSeed(seed int64) EngineOption {
	return func(o *engineOptions) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithoutAudio skips opening the system audio device. Used for headless
// operation and tests; the synthesis backend still renders on demand.
func WithoutAudio() EngineOption {
	return func(o *engineOptions) {
		o.noAudio = true
	}
}

// synthSink adapts the synthesis backend to the generator's directive
// interface.
type synthSink struct {
	engine *synth.Engine
}

func (s synthSink) Play(d melody.Directive) {
	s.engine.Play(d.FrequencyHz, d.StartTime, d.DurationSeconds, d.OverlapSeconds)
}

// Engine is the public playback facade. The melody core is single-threaded;
// the facade mutex serializes the scheduling goroutine against callers.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	provider *theory.Provider
	synth    *synth.Engine
	gen      *melody.Generator
	out      *intaudio.Player
	noAudio  bool

	baseTime float64
	nextTick int
	stopCh   chan struct{}
	running  bool
}

// NewEngine validates cfg and wires the generator, synthesis backend, and
// (unless disabled) the system audio output.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.normalize()

	provider, err := theory.NewProvider(cfg.Key, cfg.Mode, cfg.progressionDegrees())
	if err != nil {
		return nil, err
	}

	params := synth.DefaultParams()
	params.MasterGain = cfg.Gain
	syn := synth.New(cfg.SampleRate, params)

	var rng *rand.Rand
	if o.hasSeed {
		rng = rand.New(rand.NewSource(o.seed))
	}
	gen := melody.NewGenerator(cfg.generatorConfig(), provider, synthSink{syn}, rng)

	e := &Engine{
		cfg:      cfg,
		provider: provider,
		synth:    syn,
		gen:      gen,
		noAudio:  o.noAudio,
	}
	if !o.noAudio {
		out, err := intaudio.NewPlayer(cfg.SampleRate, syn)
		if err != nil {
			return nil, err
		}
		e.out = out
	}
	return e, nil
}

// Start begins (or cleanly re-arms) playback: the generator pre-schedules
// its lookahead window and a goroutine keeps scheduling ticks ahead of the
// stream clock.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.stopLocked()
	}
	e.baseTime = e.synth.Time() + startLatency
	e.gen.Start(e.baseTime)
	e.nextTick = e.gen.LookaheadTicks()
	e.stopCh = make(chan struct{})
	e.running = true
	if e.out != nil {
		e.out.Play()
	}
	go e.scheduleLoop(e.stopCh)
	log.WithFields(log.Fields{
		"function": "Engine.Start",
		"key":      e.provider.Key(),
		"mode":     e.provider.Mode(),
		"bpm":      e.cfg.BPM,
	}).Info("playback started")
}

// Stop halts scheduling, silences the synthesis backend, and resets the
// generator. Stopping an already stopped engine is a no-op re-arm.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.stopCh != nil {
		close(e.stopCh)
		e.stopCh = nil
	}
	e.gen.Stop()
	e.synth.Silence()
	if e.out != nil {
		e.out.Pause()
	}
	e.running = false
}

// Close stops playback and releases the audio device.
func (e *Engine) Close() error {
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out != nil {
		err := e.out.Stop()
		e.out = nil
		return err
	}
	return nil
}

// SetComplexity adjusts melodic and rhythmic sophistication, clamped to
// [0, 1]. Safe to call while playing.
func (e *Engine) SetComplexity(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen.SetComplexity(v)
}

// Complexity returns the current clamped complexity.
func (e *Engine) Complexity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen.Complexity()
}

// SetRestProbability overrides the complexity-derived rest probability; a
// negative value restores the derived behavior.
func (e *Engine) SetRestProbability(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen.SetRestProbability(v)
}

// scheduleLoop keeps the generator one lookahead window ahead of the
// synthesis clock until stopped.
func (e *Engine) scheduleLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(schedulePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.topUp()
		}
	}
}

func (e *Engine) topUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	step := e.gen.TickSeconds()
	horizon := e.synth.Time() + float64(e.gen.LookaheadTicks())*step
	for e.baseTime+float64(e.nextTick)*step < horizon {
		e.gen.ScheduleTick(e.nextTick, e.baseTime+float64(e.nextTick)*step)
		e.nextTick++
	}
}
