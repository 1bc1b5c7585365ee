package core

import (
	"math"
	"sync"
)

// Score ranges drawn by the simulated scorer
const (
	SpamScoreMin = 0.7
	SpamScoreMax = 1.0
	HamScoreMin  = 0.0
	HamScoreMax  = 0.6
)

// RandomSource is the subset of *rand.Rand used by the simulated scorer
type RandomSource interface {
	Float64() float64
}

// SimulatedScorer fabricates a score from the known label.
// Spam records land in [0.7, 1.0] and ham records in [0.0, 0.6].
type SimulatedScorer struct {
	mu  sync.Mutex
	rng RandomSource
}

// NewSimulatedScorer creates a scorer drawing from rng
func NewSimulatedScorer(rng RandomSource) *SimulatedScorer {
	return &SimulatedScorer{rng: rng}
}

// Score draws a label-consistent score rounded to two decimals
func (s *SimulatedScorer) Score(record MessageRecord) float64 {
	s.mu.Lock()
	r := s.rng.Float64()
	s.mu.Unlock()

	lo, hi := HamScoreMin, HamScoreMax
	if record.Label == LabelSpam {
		lo, hi = SpamScoreMin, SpamScoreMax
	}
	return roundScore(lo + r*(hi-lo))
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
