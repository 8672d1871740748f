// Package markdown renders unspool nodes to ANSI-styled terminal output
// using lipgloss for styling and chroma for literal block highlighting.
package markdown

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/unspool"
)

// NoFocus is the Options.Focus value when no literal block has focus.
const NoFocus = -1

// Options controls how a message is rendered.
type Options struct {
	Width int
	Theme unspool.Theme
	// State returns the expansion state of the literal block with the given
	// ordinal. Nil renders every block collapsed.
	State func(ordinal int) unspool.Expansion
	// Focus is the ordinal of the focused literal block, or NoFocus.
	Focus int
}

// Render returns ANSI-styled output for nodes. Paragraphs and list items are
// word-wrapped to Width. Expanded literal blocks are rendered at full width
// without reflow.
func Render(nodes []unspool.Node, opts Options) string {
	if len(nodes) == 0 {
		return ""
	}
	r := newRenderer(opts)
	var b strings.Builder
	r.blocks(&b, nodes, max(opts.Width, minWidth))
	return strings.TrimRight(b.String(), "\n")
}

// Panel renders a literal block for the side panel: a header followed by
// the highlighted content, each line cut to width.
func Panel(lit unspool.Node, width int, theme unspool.Theme) string {
	r := newRenderer(Options{Width: width, Theme: theme, Focus: NoFocus})
	width = max(width, minWidth)
	var b strings.Builder
	b.WriteString(r.literalHeader.Render(label(lit) + " · " + lineCount(lit)))
	b.WriteString("\n")
	cut := lipgloss.NewStyle().MaxWidth(width)
	for _, line := range r.highlight(lit.Text, lit.Language) {
		b.WriteString(cut.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
