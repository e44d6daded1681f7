package musicroom

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestRenderSamplesProducesAudio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	out, err := RenderSamples(cfg, 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 8000*2*2 {
		t.Fatalf("rendered %d samples, want %d", len(out), 8000*2*2)
	}
	var energy float64
	for _, s := range out {
		energy += math.Abs(float64(s))
	}
	if energy == 0 {
		t.Fatal("rendered silence")
	}
}

func TestRenderSamplesIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	a, err := RenderSamples(cfg, 1, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RenderSamples(cfg, 1, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at sample %d", i)
		}
	}
	c, err := RenderSamples(cfg, 1, 43)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds rendered identical audio")
	}
}

func TestRenderSamplesRejectsBadKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Key = "H"
	if _, err := RenderSamples(cfg, 1, 1); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	wav := EncodeWAVFloat32LE(samples, 48000, 2)
	if len(wav) != 44+len(samples)*4 {
		t.Fatalf("container size = %d, want %d", len(wav), 44+len(samples)*4)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if format := binary.LittleEndian.Uint16(wav[20:]); format != 3 {
		t.Fatalf("format code = %d, want 3 (IEEE float)", format)
	}
	if rate := binary.LittleEndian.Uint32(wav[24:]); rate != 48000 {
		t.Fatalf("sample rate = %d, want 48000", rate)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:]); bits != 32 {
		t.Fatalf("bits per sample = %d, want 32", bits)
	}
	if size := binary.LittleEndian.Uint32(wav[40:]); size != uint32(len(samples)*4) {
		t.Fatalf("data size = %d, want %d", size, len(samples)*4)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(wav[48:])); got != 0.5 {
		t.Fatalf("second sample = %f, want 0.5", got)
	}
}
