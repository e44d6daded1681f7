package musicroom

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/jinryan/music-room/internal/melody"
	"github.com/jinryan/music-room/internal/synth"
	"github.com/jinryan/music-room/internal/theory"
)

// RenderSamples generates seconds of melody offline and renders it to
// interleaved stereo float32 frames. The same cfg and seed always produce
// the same output.
func RenderSamples(cfg Config, seconds float64, seed int64) ([]float32, error) {
	cfg = cfg.normalize()
	provider, err := theory.NewProvider(cfg.Key, cfg.Mode, cfg.progressionDegrees())
	if err != nil {
		return nil, err
	}
	params := synth.DefaultParams()
	params.MasterGain = cfg.Gain
	syn := synth.New(cfg.SampleRate, params)
	gen := melody.NewGenerator(cfg.generatorConfig(), provider, synthSink{syn}, rand.New(rand.NewSource(seed)))

	gen.Start(0)
	step := gen.TickSeconds()
	total := int(seconds/step) + 1
	for tick := gen.LookaheadTicks(); tick < total; tick++ {
		gen.ScheduleTick(tick, float64(tick)*step)
	}

	frames := int(float64(cfg.SampleRate) * seconds)
	out := make([]float32, frames*2)
	syn.Process(out)
	return out, nil
}

// EncodeWAVFloat32LE wraps interleaved float32 samples in a WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
