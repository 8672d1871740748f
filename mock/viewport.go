package mock

import "github.com/fwojciec/unspool"

// Interface compliance check.
var _ unspool.Viewport = (*Viewport)(nil)

// Viewport is a test double for unspool.Viewport.
// Set MetricsFn before calling Metrics. ScrollToFn is nil-safe.
type Viewport struct {
	MetricsFn  func() (unspool.ViewportMetrics, bool)
	ScrollToFn func(offset float64)
}

// Metrics delegates to MetricsFn.
func (v *Viewport) Metrics() (unspool.ViewportMetrics, bool) {
	return v.MetricsFn()
}

// ScrollTo delegates to ScrollToFn. Does nothing when ScrollToFn is nil.
func (v *Viewport) ScrollTo(offset float64) {
	if v.ScrollToFn != nil {
		v.ScrollToFn(offset)
	}
}
