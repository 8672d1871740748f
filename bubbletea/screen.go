package bubbletea

import (
	"math"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/fwojciec/unspool"
)

// Interface compliance check.
var _ unspool.Viewport = (*screen)(nil)

// screen adapts the bubbles viewport to [unspool.Viewport]. It lives behind
// a pointer so the scroll coordinator and every copy of the Model see the
// same viewport.
type screen struct {
	vp    viewport.Model
	ready bool
}

func (s *screen) Metrics() (unspool.ViewportMetrics, bool) {
	if !s.ready {
		return unspool.ViewportMetrics{}, false
	}
	return unspool.ViewportMetrics{
		Offset:        float64(s.vp.YOffset),
		ContentHeight: float64(s.vp.TotalLineCount()),
		Height:        float64(s.vp.Height),
	}, true
}

// ScrollTo moves to the nearest whole row; the terminal cannot show
// fractional offsets.
func (s *screen) ScrollTo(offset float64) {
	s.vp.SetYOffset(int(math.Round(offset)))
}
