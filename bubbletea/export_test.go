package bubbletea

import (
	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/pipeline"
)

// RenderContent exports renderContent at the current layout width.
func RenderContent(m Model) string {
	w, _ := m.widths()
	return m.renderContent(w)
}

// Focus returns the focused literal block.
func Focus(m Model) (unspool.BlockKey, bool) {
	return m.focus, m.focused
}

// Pipeline exposes the model's pipeline.
func Pipeline(m Model) *pipeline.Pipeline {
	return m.pipe
}

// ViewportSize returns the conversation viewport dimensions.
func ViewportSize(m Model) (width, height int) {
	return m.scr.vp.Width, m.scr.vp.Height
}

// ScrollOffset returns the viewport's top row.
func ScrollOffset(m Model) int {
	return m.scr.vp.YOffset
}

// Bottom returns the offset that shows the last content row.
func Bottom(m Model) int {
	metrics, _ := m.scr.Metrics()
	return int(metrics.Bottom())
}
