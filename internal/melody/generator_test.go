package melody

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/jinryan/music-room/internal/theory"
)

type captureSink struct {
	directives []Directive
}

func (s *captureSink) Play(d Directive) {
	s.directives = append(s.directives, d)
}

func newTestGenerator(t *testing.T, complexity float64, seed int64) (*Generator, *captureSink, *theory.Provider) {
	t.Helper()
	provider, err := theory.NewProvider("C", "major", nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultGeneratorConfig()
	cfg.InitialComplexity = complexity
	sink := &captureSink{}
	gen := NewGenerator(cfg, provider, sink, rand.New(rand.NewSource(seed)))
	return gen, sink, provider
}

func freqsOf(t *testing.T, provider *theory.Provider, pitches []string) []float64 {
	t.Helper()
	out := make([]float64, 0, len(pitches))
	for _, p := range pitches {
		f, err := provider.Frequency(p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, f)
	}
	return out
}

func containsFreq(freqs []float64, f float64) bool {
	for _, x := range freqs {
		if math.Abs(x-f) < 1e-6 {
			return true
		}
	}
	return false
}

func TestSetComplexityIdempotentAndClamped(t *testing.T) {
	gen, _, _ := newTestGenerator(t, 0.3, 1)
	gen.SetComplexity(0.42)
	first := gen.Params()
	gen.SetComplexity(0.42)
	if gen.Params() != first {
		t.Fatalf("repeated SetComplexity changed params: %+v vs %+v", first, gen.Params())
	}
	gen.SetComplexity(-1)
	if gen.Complexity() != 0 {
		t.Fatalf("complexity = %v, want 0", gen.Complexity())
	}
	gen.SetComplexity(2)
	if gen.Complexity() != 1 {
		t.Fatalf("complexity = %v, want 1", gen.Complexity())
	}
	p := gen.Params()
	for name, v := range map[string]float64{
		"passing":    p.PassingTone,
		"variation":  p.RhythmicVariation,
		"phrase":     p.PhraseAwareness,
		"dissonance": p.DissonanceTolerance,
		"rest":       p.Rest,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s parameter %v outside [0,1]", name, v)
		}
	}
}

func TestDuplicateTickSuppressed(t *testing.T) {
	gen, sink, _ := newTestGenerator(t, 0.3, 1)
	gen.SetRestProbability(0)
	gen.ScheduleTick(0, 0)
	n := len(sink.directives)
	if n != 1 {
		t.Fatalf("first call emitted %d directives, want 1", n)
	}
	gen.ScheduleTick(0, 5.0) // different time, same tick
	if len(sink.directives) != n {
		t.Fatalf("duplicate tick emitted another directive")
	}
}

func TestRestOverride(t *testing.T) {
	gen, sink, _ := newTestGenerator(t, 0.5, 3)
	gen.SetRestProbability(0)
	step := gen.TickSeconds()
	for i := 0; i < 64; i++ {
		gen.ScheduleTick(i, float64(i)*step)
	}
	if len(sink.directives) != 64 {
		t.Fatalf("with zero rest probability got %d directives, want 64", len(sink.directives))
	}

	gen2, sink2, _ := newTestGenerator(t, 0.5, 3)
	gen2.SetRestProbability(1)
	for i := 0; i < 64; i++ {
		gen2.ScheduleTick(i, float64(i)*step)
	}
	for _, d := range sink2.directives {
		tick := int(d.StartTime/step + 0.5)
		if pos := tick % 8; pos != 0 && pos != 4 {
			t.Fatalf("full rest override emitted on weak tick %d", tick)
		}
	}
}

func TestComplexityZeroEmitsOnlyChordTones(t *testing.T) {
	gen, sink, provider := newTestGenerator(t, 0, 11)
	gen.SetRestProbability(0)
	step := gen.TickSeconds()
	for i := 0; i < 64; i++ {
		gen.ScheduleTick(i, float64(i)*step)
	}
	for _, d := range sink.directives {
		tick := int(d.StartTime/step + 0.5)
		chordFreqs := freqsOf(t, provider, provider.ChordTones(tick/8, 4))
		if !containsFreq(chordFreqs, d.FrequencyHz) {
			t.Fatalf("tick %d emitted %f Hz, not a chord tone", tick, d.FrequencyHz)
		}
	}
}

func TestComplexityOneDissonanceOnWeakBeatsAndResolved(t *testing.T) {
	gen, sink, provider := newTestGenerator(t, 1, 99)
	gen.SetRestProbability(0)
	step := gen.TickSeconds()
	for i := 0; i < 1000; i++ {
		gen.ScheduleTick(i, float64(i)*step)
	}
	if len(sink.directives) != 1000 {
		t.Fatalf("emitted %d directives, want 1000", len(sink.directives))
	}

	scaleFreqs := freqsOf(t, provider, provider.Scale(4))
	// Extend by the octave-clamped copies reachable through range clamping.
	for _, p := range provider.Scale(3) {
		f, _ := provider.Frequency(p)
		scaleFreqs = append(scaleFreqs, f)
	}
	for _, p := range provider.Scale(5) {
		f, _ := provider.Frequency(p)
		scaleFreqs = append(scaleFreqs, f)
	}

	sawDissonance := false
	for i, d := range sink.directives {
		tick := int(d.StartTime/step + 0.5)
		pos := tick % 8
		if containsFreq(scaleFreqs, d.FrequencyHz) {
			continue
		}
		sawDissonance = true
		if pos == 0 || pos == 4 {
			t.Fatalf("dissonant note on strong beat at tick %d", tick)
		}
		// The next strong beat must resolve to a chord tone.
		next := tick + 1
		for next%8 != 0 && next%8 != 4 {
			next++
		}
		if i+(next-tick) >= len(sink.directives) {
			continue // dissonance at the tail of the run
		}
		resolve := sink.directives[i+(next-tick)]
		chordFreqs := freqsOf(t, provider, provider.ChordTones(next/8, 4))
		if !containsFreq(chordFreqs, resolve.FrequencyHz) {
			t.Fatalf("dissonance at tick %d not resolved at strong tick %d", tick, next)
		}
	}
	if !sawDissonance {
		t.Fatal("expected at least one dissonant note at full complexity over 1000 ticks")
	}
}

func TestStartPreschedulesLookaheadWindow(t *testing.T) {
	gen, sink, provider := newTestGenerator(t, 0.3, 5)
	gen.SetRestProbability(0)
	gen.Start(0)
	want := gen.LookaheadTicks()
	if len(sink.directives) != want {
		t.Fatalf("start emitted %d directives, want %d", len(sink.directives), want)
	}
	first := sink.directives[0]
	if first.StartTime < 0 {
		t.Fatalf("first directive at %f, want >= 0", first.StartTime)
	}
	chordFreqs := freqsOf(t, provider, provider.ChordTones(0, 4))
	if !containsFreq(chordFreqs, first.FrequencyHz) {
		t.Fatalf("first note %f Hz not in the starting chord-tone set", first.FrequencyHz)
	}
	// Overlapping windows cannot double-emit.
	gen.ScheduleTick(0, 99)
	if len(sink.directives) != want {
		t.Fatal("re-scheduling a pre-scheduled tick emitted again")
	}
}

func TestStopResetsSchedulingState(t *testing.T) {
	gen, sink, _ := newTestGenerator(t, 0.3, 5)
	gen.SetRestProbability(0)
	gen.ScheduleTick(0, 0)
	gen.Stop()
	if len(gen.history) != 0 {
		t.Fatal("history not cleared by stop")
	}
	gen.ScheduleTick(0, 0)
	if len(sink.directives) != 2 {
		t.Fatalf("tick not schedulable again after stop: %d directives", len(sink.directives))
	}
}

func TestStartIsIdempotent(t *testing.T) {
	gen, sink, _ := newTestGenerator(t, 0.3, 5)
	gen.SetRestProbability(0)
	gen.Start(0)
	n := gen.LookaheadTicks()
	gen.Start(10)
	if len(sink.directives) != 2*n {
		t.Fatalf("restart emitted %d directives, want %d", len(sink.directives), 2*n)
	}
	for _, d := range sink.directives[n:] {
		if d.StartTime < 10 {
			t.Fatalf("re-armed directive at %f, want >= 10", d.StartTime)
		}
	}
}

func TestNegativeTickIgnored(t *testing.T) {
	gen, sink, _ := newTestGenerator(t, 0.3, 5)
	gen.SetRestProbability(0)
	gen.ScheduleTick(-1, 0)
	if len(sink.directives) != 0 {
		t.Fatal("negative tick emitted a directive")
	}
}

// fakeProvider wraps the real provider to inject failures.
type fakeProvider struct {
	base        *theory.Provider
	emptyChords bool
	failFreq    bool
}

func (f *fakeProvider) Scale(octave int) []string {
	return f.base.Scale(octave)
}

func (f *fakeProvider) ChordTones(barIndex, octave int) []string {
	if f.emptyChords {
		return nil
	}
	return f.base.ChordTones(barIndex, octave)
}

func (f *fakeProvider) Frequency(pitch string) (float64, error) {
	if f.failFreq {
		return 0, errors.New("conversion unavailable")
	}
	return f.base.Frequency(pitch)
}

func (f *fakeProvider) Transpose(pitch string, n int) (string, error) {
	return f.base.Transpose(pitch, n)
}

func (f *fakeProvider) SemitoneDistance(a, b string) (int, error) {
	return f.base.SemitoneDistance(a, b)
}

func TestEmptyChordTonesFallsBackToFixedPitch(t *testing.T) {
	base, err := theory.NewProvider("C", "major", nil)
	if err != nil {
		t.Fatal(err)
	}
	sink := &captureSink{}
	gen := NewGenerator(DefaultGeneratorConfig(), &fakeProvider{base: base, emptyChords: true}, sink, rand.New(rand.NewSource(1)))
	gen.SetRestProbability(0)
	gen.ScheduleTick(0, 0)
	if len(sink.directives) != 1 {
		t.Fatalf("emitted %d directives, want 1", len(sink.directives))
	}
	want, _ := theory.Frequency(theory.FallbackPitch)
	if math.Abs(sink.directives[0].FrequencyHz-want) > 1e-6 {
		t.Fatalf("fallback frequency = %f, want %f", sink.directives[0].FrequencyHz, want)
	}
}

func TestFrequencyFailureSkipsTick(t *testing.T) {
	base, err := theory.NewProvider("C", "major", nil)
	if err != nil {
		t.Fatal(err)
	}
	sink := &captureSink{}
	gen := NewGenerator(DefaultGeneratorConfig(), &fakeProvider{base: base, failFreq: true}, sink, rand.New(rand.NewSource(1)))
	gen.SetRestProbability(0)
	gen.ScheduleTick(0, 0)
	if len(sink.directives) != 0 {
		t.Fatalf("conversion failure still emitted %d directives", len(sink.directives))
	}
	// The tick was consumed; re-scheduling stays a no-op.
	gen.ScheduleTick(0, 0)
	if len(sink.directives) != 0 {
		t.Fatal("skipped tick was re-scheduled")
	}
}

func TestDirectiveCarriesDurationAndOverlap(t *testing.T) {
	gen, sink, _ := newTestGenerator(t, 0, 1)
	gen.SetRestProbability(0)
	gen.ScheduleTick(0, 1.25)
	d := sink.directives[0]
	if d.StartTime != 1.25 {
		t.Errorf("start time = %f, want 1.25", d.StartTime)
	}
	if d.DurationSeconds <= 0 {
		t.Errorf("duration = %f, want > 0", d.DurationSeconds)
	}
	if d.OverlapSeconds != DefaultGeneratorConfig().OverlapSeconds {
		t.Errorf("overlap = %f, want %f", d.OverlapSeconds, DefaultGeneratorConfig().OverlapSeconds)
	}
}
