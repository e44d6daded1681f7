// Package synth renders melody directives to stereo float32 frames. It is
// the synthesis collaborator of the melody generator: it owns voice
// allocation and legato overlap, and runs off its own sample clock.
package synth

import (
	"math"
	"sync"
)

const twoPi = math.Pi * 2

type Params struct {
	Polyphony  int
	AttackSec  float64
	ReleaseSec float64
	MasterGain float64
	Harmonic   float64 // level of the second partial, 0-1
}

func DefaultParams() Params {
	return Params{
		Polyphony:  12,
		AttackSec:  0.01,
		ReleaseSec: 0.15,
		MasterGain: 0.35,
		Harmonic:   0.25,
	}
}

type voice struct {
	active     bool
	freq       float64
	phase      float64
	startFrame int64
	endFrame   int64 // sounding end including overlap; release follows
}

// Engine is a small polyphonic sine engine with an attack/release envelope.
// Play may be called from a scheduling goroutine while Process runs on the
// audio thread.
type Engine struct {
	mu         sync.Mutex
	sampleRate float64
	params     Params
	voices     []voice
	clock      int64 // frames rendered so far
	gain       float64
}

func New(sampleRate int, params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = DefaultParams().Polyphony
	}
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Polyphony),
		gain:       params.MasterGain,
	}
}

// Time returns the engine's sample clock in seconds.
func (e *Engine) Time() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.clock) / e.sampleRate
}

// Play schedules one note. Directives whose sounding window already passed
// are dropped; when all voices are busy the oldest one is stolen.
func (e *Engine) Play(freqHz, startSec, durSec, overlapSec float64) {
	if freqHz <= 0 || durSec <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	start := int64(startSec * e.sampleRate)
	end := start + int64((durSec+overlapSec)*e.sampleRate)
	if end <= e.clock {
		return
	}
	slot := -1
	var oldest int64 = math.MaxInt64
	for i := range e.voices {
		if !e.voices[i].active {
			slot = i
			break
		}
		if e.voices[i].startFrame < oldest {
			oldest = e.voices[i].startFrame
			slot = i
		}
	}
	e.voices[slot] = voice{
		active:     true,
		freq:       freqHz,
		startFrame: start,
		endFrame:   end,
	}
}

// Process fills dst with interleaved stereo frames and advances the clock.
func (e *Engine) Process(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	attackFrames := e.params.AttackSec * e.sampleRate
	releaseFrames := e.params.ReleaseSec * e.sampleRate
	if releaseFrames < 1 {
		releaseFrames = 1
	}
	for f := 0; f+1 < len(dst); f += 2 {
		frame := e.clock
		var sum float64
		for i := range e.voices {
			v := &e.voices[i]
			if !v.active || frame < v.startFrame {
				continue
			}
			if frame >= v.endFrame+int64(releaseFrames) {
				v.active = false
				continue
			}
			env := 1.0
			if attackFrames > 0 {
				if a := float64(frame-v.startFrame) / attackFrames; a < 1 {
					env = a
				}
			}
			if frame >= v.endFrame {
				env *= 1 - float64(frame-v.endFrame)/releaseFrames
			}
			sum += env * (math.Sin(v.phase) + e.params.Harmonic*math.Sin(2*v.phase))
			v.phase += twoPi * v.freq / e.sampleRate
			if v.phase > twoPi {
				v.phase -= twoPi
			}
		}
		s := float32(sum * e.gain)
		dst[f] = s
		dst[f+1] = s
		e.clock++
	}
}

// SetMasterGain adjusts output level.
func (e *Engine) SetMasterGain(g float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if g < 0 {
		g = 0
	}
	e.gain = g
}

// ActiveVoiceCount returns the number of voices still sounding.
func (e *Engine) ActiveVoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// Silence drops every active voice immediately.
func (e *Engine) Silence() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.voices {
		e.voices[i].active = false
	}
}
