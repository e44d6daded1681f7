// Package motif keeps a short-lived store of recently played note sequences
// and offers randomized variations of them for recall.
package motif

import "math/rand"

const (
	// DefaultCapacity bounds the number of stored motifs.
	DefaultCapacity = 3
	// DefaultRecallProbability is the base chance of a recall before
	// complexity scaling.
	DefaultRecallProbability = 0.3
	// motifLength is the maximum number of notes kept per motif.
	motifLength = 4
	// minRecordLength is the minimum history length worth recording.
	minRecordLength = 3
)

// Transposer shifts a pitch token by a number of diatonic steps, returning
// the input unchanged when the pitch cannot be placed in the scale.
type Transposer func(pitch string, steps int) string

// Memory is a FIFO store of recent motifs.
type Memory struct {
	motifs    [][]string
	capacity  int
	baseProb  float64
	rng       *rand.Rand
	transpose Transposer
}

// NewMemory builds a Memory. Non-positive capacity or probability fall back
// to the defaults. transpose may be nil, in which case transposing
// variations return the motif unchanged.
func NewMemory(capacity int, baseProb float64, rng *rand.Rand, transpose Transposer) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if baseProb <= 0 {
		baseProb = DefaultRecallProbability
	}
	if transpose == nil {
		transpose = func(pitch string, steps int) string { return pitch }
	}
	return &Memory{
		capacity:  capacity,
		baseProb:  baseProb,
		rng:       rng,
		transpose: transpose,
	}
}

// Record stores the tail of recent as a motif when at least three notes are
// supplied, evicting the oldest motif on overflow.
func (m *Memory) Record(recent []string) {
	if len(recent) < minRecordLength {
		return
	}
	start := len(recent) - motifLength
	if start < 0 {
		start = 0
	}
	motif := make([]string, len(recent)-start)
	copy(motif, recent[start:])
	m.motifs = append(m.motifs, motif)
	if len(m.motifs) > m.capacity {
		m.motifs = m.motifs[1:]
	}
}

// ShouldRecall decides whether to recall a motif; the chance grows with
// complexity. Always false while the store is empty.
func (m *Memory) ShouldRecall(complexity float64) bool {
	if len(m.motifs) == 0 {
		return false
	}
	return m.rng.Float64() < m.baseProb*(0.5+0.5*complexity)
}

// RecallVaried returns a randomly chosen stored motif with one variation
// applied: transposed up or down one diatonic step, or reversed. Returns
// nil when the store is empty.
func (m *Memory) RecallVaried() []string {
	if len(m.motifs) == 0 {
		return nil
	}
	src := m.motifs[m.rng.Intn(len(m.motifs))]
	out := make([]string, len(src))
	switch m.rng.Intn(3) {
	case 0:
		for i, p := range src {
			out[i] = m.transpose(p, 1)
		}
	case 1:
		for i, p := range src {
			out[i] = m.transpose(p, -1)
		}
	default:
		for i, p := range src {
			out[len(src)-1-i] = p
		}
	}
	return out
}

// Len returns the number of stored motifs.
func (m *Memory) Len() int { return len(m.motifs) }

// Clear empties the store.
func (m *Memory) Clear() {
	m.motifs = nil
}
