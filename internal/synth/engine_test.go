package synth

import (
	"math"
	"testing"
)

func energy(buf []float32) float64 {
	var e float64
	for _, s := range buf {
		e += math.Abs(float64(s))
	}
	return e
}

func TestPlayRendersEnergy(t *testing.T) {
	e := New(48000, DefaultParams())
	e.Play(440, 0, 0.25, 0.05)
	buf := make([]float32, 48000/2*2)
	e.Process(buf)
	if energy(buf) == 0 {
		t.Fatal("expected non-zero audio energy")
	}
}

func TestVoiceEndsAfterRelease(t *testing.T) {
	e := New(48000, DefaultParams())
	e.Play(440, 0, 0.1, 0)
	buf := make([]float32, 48000*2)
	e.Process(buf) // one second: well past duration + release
	if n := e.ActiveVoiceCount(); n != 0 {
		t.Fatalf("active voices after release = %d, want 0", n)
	}
}

func TestPastDirectiveDropped(t *testing.T) {
	e := New(48000, DefaultParams())
	buf := make([]float32, 48000*2)
	e.Process(buf) // clock now at 1s
	e.Play(440, 0, 0.1, 0)
	if n := e.ActiveVoiceCount(); n != 0 {
		t.Fatalf("past directive allocated %d voices", n)
	}
}

func TestOldestVoiceStolenAtPolyphonyLimit(t *testing.T) {
	params := DefaultParams()
	params.Polyphony = 2
	e := New(48000, params)
	e.Play(220, 0, 10, 0)
	e.Play(330, 1, 10, 0)
	e.Play(440, 2, 10, 0) // steals the 220 Hz voice
	if n := e.ActiveVoiceCount(); n != 2 {
		t.Fatalf("active voices = %d, want 2", n)
	}
}

func TestSilenceDropsAllVoices(t *testing.T) {
	e := New(48000, DefaultParams())
	e.Play(440, 0, 10, 0)
	e.Play(550, 0, 10, 0)
	e.Silence()
	if n := e.ActiveVoiceCount(); n != 0 {
		t.Fatalf("active voices after silence = %d, want 0", n)
	}
	buf := make([]float32, 4800*2)
	e.Process(buf)
	if energy(buf) != 0 {
		t.Fatal("silenced engine still rendering")
	}
}

func TestClockAdvancesWithProcess(t *testing.T) {
	e := New(48000, DefaultParams())
	buf := make([]float32, 4800*2)
	e.Process(buf)
	if got := e.Time(); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("clock = %f, want 0.1", got)
	}
}

func TestMasterGainScalesOutput(t *testing.T) {
	e := New(48000, DefaultParams())
	e.Play(440, 0, 0.5, 0)
	loud := make([]float32, 4800*2)
	e.Process(loud)

	e2 := New(48000, DefaultParams())
	e2.SetMasterGain(0.01)
	e2.Play(440, 0, 0.5, 0)
	quiet := make([]float32, 4800*2)
	e2.Process(quiet)

	if energy(quiet) >= energy(loud) {
		t.Fatal("lower gain should render less energy")
	}
}
