package unspool

import "time"

// RevealUnit is the granularity by which revealed text advances.
type RevealUnit string

const (
	RevealWord     RevealUnit = "word"
	RevealGrapheme RevealUnit = "grapheme"
)

// RevealConfig controls the pace at which streamed text becomes visible.
// Rates are in units per second.
type RevealConfig struct {
	Unit        RevealUnit
	MinRate     float64
	MaxRate     float64
	InitialRate float64
	// Smoothing is the weight given to each new arrival-rate observation,
	// in (0, 1]. 1 follows the latest observation exactly.
	Smoothing float64
}

// ScrollConfig controls follow-scrolling. Distances are in viewport units
// (rows for a terminal host).
type ScrollConfig struct {
	// Tolerance is the distance from the bottom still treated as "at bottom".
	Tolerance float64
	// NoiseThreshold filters jitter: smaller upward deltas never freeze.
	NoiseThreshold float64
	// MaxVelocity bounds follow-scroll displacement per second.
	MaxVelocity float64
	// Stiffness is the exponential approach rate per second.
	Stiffness float64
	// SelfTagWindow is how long a programmatic scroll write stays
	// attributable to the coordinator.
	SelfTagWindow time.Duration
	// SelfTagTolerance is how far a reported position may be from the
	// tagged write and still match it.
	SelfTagTolerance float64
	// FrameInterval is the animation frame period requested from the host.
	FrameInterval time.Duration
}

// Config is the complete runtime configuration.
type Config struct {
	Reveal RevealConfig
	Scroll ScrollConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Reveal: RevealConfig{
			Unit:        RevealWord,
			MinRate:     8,
			MaxRate:     240,
			InitialRate: 40,
			Smoothing:   0.3,
		},
		Scroll: ScrollConfig{
			Tolerance:        1,
			NoiseThreshold:   0.5,
			MaxVelocity:      120,
			Stiffness:        12,
			SelfTagWindow:    250 * time.Millisecond,
			SelfTagTolerance: 0.5,
			FrameInterval:    16 * time.Millisecond,
		},
	}
}
