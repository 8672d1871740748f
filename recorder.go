package unspool

import "time"

// Recorder receives observability callbacks from the pipeline. Calls happen
// on the pipeline's event loop and must not block.
type Recorder interface {
	Tokenized(messageID string, nodes int, elapsed time.Duration)
	FollowStarted()
	ModeChanged(mode ScrollMode)
	RevealRate(messageID string, rate float64)
}

// NopRecorder discards all callbacks.
type NopRecorder struct{}

func (NopRecorder) Tokenized(string, int, time.Duration) {}
func (NopRecorder) FollowStarted()                       {}
func (NopRecorder) ModeChanged(ScrollMode)               {}
func (NopRecorder) RevealRate(string, float64)           {}

var _ Recorder = NopRecorder{}
