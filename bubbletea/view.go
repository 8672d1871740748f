package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/markdown"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	// Output area, with the side panel when a block is shown there.
	out := m.scr.vp.View()
	if panel, ok := m.panelView(); ok {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, panel)
	}
	b.WriteString(out)
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	b.WriteString(m.Input.View())

	return b.String()
}

// widths splits the terminal between the conversation and the side panel.
// The panel width excludes its border.
func (m Model) widths() (main, panel int) {
	if _, ok := m.panelKey(); !ok {
		return m.width, 0
	}
	panel = m.width * 2 / 5
	return m.width - panel - 1, panel
}

// panelKey returns the block currently shown in the side panel.
func (m Model) panelKey() (unspool.BlockKey, bool) {
	for _, k := range m.literalKeys() {
		if m.pipe.BlockState(k.MessageID, k.Ordinal) == unspool.Panel {
			return k, true
		}
	}
	return unspool.BlockKey{}, false
}

func (m Model) panelView() (string, bool) {
	key, ok := m.panelKey()
	if !ok {
		return "", false
	}
	var lit unspool.Node
	for _, n := range unspool.Literals(m.pipe.RenderedNodes(key.MessageID)) {
		if n.Ordinal == key.Ordinal {
			lit = n
		}
	}
	_, width := m.widths()
	style := m.styles.Panel.
		Width(width).
		Height(m.scr.vp.Height).
		MaxHeight(m.scr.vp.Height)
	return style.Render(markdown.Panel(lit, width-style.GetPaddingLeft(), m.theme)), true
}

func (m Model) renderContent(width int) string {
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		prompt := m.styles.Prompt.Render("> ") + t.prompt
		b.WriteString(lipgloss.NewStyle().Width(width).Render(prompt))

		if body := m.renderMessage(t.id, width); body != "" {
			b.WriteString("\n\n")
			b.WriteString(body)
		}
		if err := m.pipe.Err(t.id); err != nil {
			b.WriteString("\n")
			b.WriteString(m.renderError(err, width))
		}
	}
	return b.String()
}

func (m Model) renderMessage(id string, width int) string {
	focus := markdown.NoFocus
	if m.focused && m.focus.MessageID == id {
		focus = m.focus.Ordinal
	}
	return markdown.Render(m.pipe.RenderedNodes(id), markdown.Options{
		Width: width,
		Theme: m.theme,
		State: func(ordinal int) unspool.Expansion {
			return m.pipe.BlockState(id, ordinal)
		},
		Focus: focus,
	})
}

func (m Model) renderError(err error, width int) string {
	style := lipgloss.NewStyle().Width(width)
	if errors.Is(err, context.Canceled) {
		return style.Render(m.styles.Muted.Render("(stopped)"))
	}
	return style.Render(m.styles.Error.Render(fmt.Sprintf("Error: %v", err)))
}

func (m Model) statusLine() string {
	frozen := m.pipe.ScrollMode() == unspool.Frozen
	switch {
	case m.err != nil:
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	case m.running:
		status := "Generating..."
		if m.modelName != "" {
			status = fmt.Sprintf("Generating with %s...", m.modelName)
		}
		if frozen {
			status += " · End to follow"
		}
		return m.styles.Muted.Render(status)
	case frozen:
		return m.styles.Muted.Render("Scrolled up · End to follow")
	}
	return m.styles.Muted.Render("Enter to send · Tab toggle · Ctrl+O panel · Ctrl+N new · Ctrl+C quit")
}
