// Package scoring holds the pure score-combination functions of the ranking
// pipeline. Every function returns a value in [0,1]; NaN and infinities become 0.
package scoring

import (
	"math"
	"strings"
	"time"
)

// ProfileB selects the B vector weight. Any other label selects A.
const ProfileB = "B"

// BM25 defaults.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Config is the scoring configuration passed into every ranking call.
type Config struct {
	HybridEnabled   bool
	VectorWeightA   float64
	VectorWeightB   float64
	Profile         string
	RecencyEnabled  bool
	HalfLifeSeconds float64
	K1              float64
	B               float64
	Boosts          map[string]float64
	// ResortByScore applies a stable descending sort by final score before
	// truncation. Off keeps the vector source order.
	ResortByScore bool
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() Config {
	return Config{
		HybridEnabled:   true,
		VectorWeightA:   0.7,
		VectorWeightB:   0.5,
		Profile:         "A",
		RecencyEnabled:  true,
		HalfLifeSeconds: 604800, // 7 days
		K1:              DefaultK1,
		B:               DefaultB,
	}
}

// VectorWeight returns the active profile's vector weight clamped to [0,1].
func (c Config) VectorWeight() float64 {
	if strings.EqualFold(c.Profile, ProfileB) {
		return Clamp(c.VectorWeightB)
	}
	return Clamp(c.VectorWeightA)
}

// Clock returns the current time. Injected so decay is reproducible.
type Clock func() time.Time

// Clamp bounds x to [0,1]. NaN and ±Inf map to 0.
func Clamp(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

// Blend combines vector and lexical scores with the active profile weight.
// With hybrid disabled the lexical score is ignored.
func Blend(vector, lexical float64, cfg Config) float64 {
	if !cfg.HybridEnabled {
		return Clamp(vector)
	}
	w := cfg.VectorWeight()
	return Clamp(w*vector + (1-w)*lexical)
}

// ApplyBoosts adds the boost of every table key present in metadata.
// Presence is the only criterion; values are ignored.
func ApplyBoosts(metadata map[string]string, score float64, boosts map[string]float64) float64 {
	for key, boost := range boosts {
		if _, ok := metadata[key]; ok {
			score += boost
		}
	}
	return Clamp(score)
}

// ApplyDecay halves score every halfLifeSeconds of distance between ref and now.
// Future timestamps decay like past ones.
func ApplyDecay(ref, now time.Time, score float64, enabled bool, halfLifeSeconds float64) float64 {
	if !enabled || halfLifeSeconds <= 0 {
		return Clamp(score)
	}
	age := math.Abs(now.Sub(ref).Seconds())
	decay := math.Pow(0.5, age/halfLifeSeconds)
	return Clamp(score * decay)
}

// ReferenceTime picks updated-at, then created-at, then now.
func ReferenceTime(updatedAt, createdAt, now time.Time) time.Time {
	switch {
	case !updatedAt.IsZero():
		return updatedAt
	case !createdAt.IsZero():
		return createdAt
	default:
		return now
	}
}
