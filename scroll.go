package unspool

// ScrollMode is the follow state of a viewport.
type ScrollMode int

const (
	Following ScrollMode = iota // Tracks the newest content.
	Frozen                      // Viewer moved away; content growth does not scroll.
)

func (m ScrollMode) String() string {
	if m == Frozen {
		return "frozen"
	}
	return "following"
}

// ViewportMetrics describes the host viewport in rows (or pixels; the unit
// is whatever the host uses consistently).
type ViewportMetrics struct {
	Offset        float64 // Position of the top edge within the content.
	ContentHeight float64
	Height        float64 // Visible height.
}

// Bottom returns the offset at which the last row of content is visible.
func (m ViewportMetrics) Bottom() float64 {
	return max(0, m.ContentHeight-m.Height)
}

// Viewport is the host's scrollable area. Metrics returns ok=false while
// the viewport is not yet available (e.g. before the first layout).
type Viewport interface {
	Metrics() (ViewportMetrics, bool)
	ScrollTo(offset float64)
}
