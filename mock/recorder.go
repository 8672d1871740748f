package mock

import (
	"time"

	"github.com/fwojciec/unspool"
)

// Interface compliance check.
var _ unspool.Recorder = (*Recorder)(nil)

// Recorder is a test double for unspool.Recorder. Every field is nil-safe.
type Recorder struct {
	TokenizedFn     func(messageID string, nodes int, elapsed time.Duration)
	FollowStartedFn func()
	ModeChangedFn   func(mode unspool.ScrollMode)
	RevealRateFn    func(messageID string, rate float64)
}

// Tokenized delegates to TokenizedFn.
func (r *Recorder) Tokenized(messageID string, nodes int, elapsed time.Duration) {
	if r.TokenizedFn != nil {
		r.TokenizedFn(messageID, nodes, elapsed)
	}
}

// FollowStarted delegates to FollowStartedFn.
func (r *Recorder) FollowStarted() {
	if r.FollowStartedFn != nil {
		r.FollowStartedFn()
	}
}

// ModeChanged delegates to ModeChangedFn.
func (r *Recorder) ModeChanged(mode unspool.ScrollMode) {
	if r.ModeChangedFn != nil {
		r.ModeChangedFn(mode)
	}
}

// RevealRate delegates to RevealRateFn.
func (r *Recorder) RevealRate(messageID string, rate float64) {
	if r.RevealRateFn != nil {
		r.RevealRateFn(messageID, rate)
	}
}
