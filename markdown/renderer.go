package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/unspool"
	"github.com/mattn/go-runewidth"
)

const minWidth = 10

type renderer struct {
	opts Options

	bold          lipgloss.Style
	italic        lipgloss.Style
	accent        lipgloss.Style
	muted         lipgloss.Style
	underline     lipgloss.Style
	literalHeader lipgloss.Style
	focusHeader   lipgloss.Style
	palette       palette
}

func newRenderer(opts Options) *renderer {
	t := opts.Theme
	return &renderer{
		opts:          opts,
		bold:          lipgloss.NewStyle().Bold(true),
		italic:        lipgloss.NewStyle().Italic(true),
		accent:        lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		muted:         lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		underline:     lipgloss.NewStyle().Underline(true),
		literalHeader: lipgloss.NewStyle().Foreground(ansiColor(t.Literal)),
		focusHeader:   lipgloss.NewStyle().Foreground(ansiColor(t.Focus)).Bold(true),
		palette:       newPalette(t),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) state(ordinal int) unspool.Expansion {
	if r.opts.State == nil {
		return unspool.Collapsed
	}
	return r.opts.State(ordinal)
}

func (r *renderer) blocks(b *strings.Builder, nodes []unspool.Node, width int) {
	for i, n := range nodes {
		r.block(b, n, width)
		if i < len(nodes)-1 {
			b.WriteString("\n")
		}
	}
}

func (r *renderer) block(b *strings.Builder, n unspool.Node, width int) {
	switch n.Kind {
	case unspool.KindParagraph:
		b.WriteString(wrap(r.inlines(n.Children), width))
		b.WriteString("\n")

	case unspool.KindHeading:
		b.WriteString(wrap(r.accent.Render(r.inlines(n.Children)), width))
		b.WriteString("\n")

	case unspool.KindLiteral:
		r.literal(b, n, width)

	case unspool.KindList:
		r.list(b, n, width, 0)

	case unspool.KindBlockquote:
		var inner strings.Builder
		r.blocks(&inner, n.Children, max(width-2, minWidth))
		bar := r.muted.Render("│") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			b.WriteString(bar + line + "\n")
		}

	case unspool.KindThematicBreak:
		b.WriteString(r.muted.Render(strings.Repeat("─", width)))
		b.WriteString("\n")

	case unspool.KindPassthrough:
		var inner strings.Builder
		r.blocks(&inner, n.Children, width)
		// Wrapped lines are padded to width; trim so centering sees the text.
		lines := strings.Split(strings.TrimRight(inner.String(), "\n"), "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " ")
		}
		centered := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
		b.WriteString(centered.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")

	case unspool.KindTable:
		r.table(b, n, width)

	default:
		if len(n.Children) > 0 {
			r.blocks(b, n.Children, width)
			return
		}
		b.WriteString(wrap(n.Text, width))
		b.WriteString("\n")
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func (r *renderer) list(b *strings.Builder, n unspool.Node, width, depth int) {
	num := n.Start
	for _, item := range n.Children {
		if item.Kind != unspool.KindListItem {
			continue
		}
		indent := strings.Repeat("  ", depth)
		marker := "- "
		if n.Ordered {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var content strings.Builder
		for _, c := range item.Children {
			switch c.Kind {
			case unspool.KindParagraph:
				if content.Len() > 0 {
					content.WriteString("\n")
				}
				content.WriteString(r.inlines(c.Children))
			case unspool.KindList:
				if content.Len() > 0 {
					r.listItem(b, indent, marker, content.String(), width)
					content.Reset()
				}
				r.list(b, c, width, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				if content.Len() > 0 {
					r.listItem(b, indent, marker, content.String(), width)
					content.Reset()
					marker = strings.Repeat(" ", len(marker))
				}
				var nested strings.Builder
				r.block(&nested, c, max(width-len(indent+marker), minWidth))
				pad := indent + strings.Repeat(" ", len(marker))
				for _, line := range strings.Split(strings.TrimRight(nested.String(), "\n"), "\n") {
					b.WriteString(pad + line + "\n")
				}
			}
		}
		if content.Len() > 0 {
			r.listItem(b, indent, marker, content.String(), width)
		}
	}
}

// listItem writes a list item with continuation lines aligned past the
// marker.
func (r *renderer) listItem(b *strings.Builder, indent, marker, content string, width int) {
	prefix := indent + marker
	lines := strings.Split(wrap(content, max(width-len(prefix), minWidth)), "\n")
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range lines {
		if i == 0 {
			b.WriteString(prefix + line + "\n")
		} else {
			b.WriteString(continuation + line + "\n")
		}
	}
}

func (r *renderer) inlines(nodes []unspool.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		r.inline(&b, n)
	}
	return b.String()
}

func (r *renderer) inline(b *strings.Builder, n unspool.Node) {
	switch n.Kind {
	case unspool.KindText:
		b.WriteString(n.Text)
	case unspool.KindLineBreak:
		b.WriteString("\n")
	case unspool.KindEmphasis:
		b.WriteString(r.italic.Render(r.inlines(n.Children)))
	case unspool.KindStrong:
		b.WriteString(r.bold.Render(r.inlines(n.Children)))
	case unspool.KindCodeSpan:
		b.WriteString(r.bold.Render(n.Text))
	case unspool.KindLink, unspool.KindImage:
		inner := r.inlines(n.Children)
		if inner == "" || inner == n.Dest {
			b.WriteString(r.underline.Render(n.Dest))
			return
		}
		b.WriteString(r.underline.Render(inner))
		b.WriteString(" ")
		b.WriteString(r.muted.Render("(" + n.Dest + ")"))
	default:
		b.WriteString(r.inlines(n.Children))
	}
}

func label(lit unspool.Node) string {
	if lit.Language == "" {
		return "text"
	}
	return lit.Language
}

func lineCount(lit unspool.Node) string {
	n := strings.Count(lit.Text, "\n") + 1
	s := fmt.Sprintf("%d lines", n)
	if n == 1 {
		s = "1 line"
	}
	if !lit.Closed {
		s += ", streaming"
	}
	return s
}

// literal renders a literal block according to its expansion state. A
// collapsed block is a single header line with a preview of its first line.
func (r *renderer) literal(b *strings.Builder, lit unspool.Node, width int) {
	state := r.state(lit.Ordinal)
	style := r.literalHeader
	if lit.Ordinal == r.opts.Focus {
		style = r.focusHeader
	}

	switch state {
	case unspool.Expanded:
		b.WriteString(style.Render("▾ " + label(lit) + " · " + lineCount(lit)))
		b.WriteString("\n")
		gutter := r.muted.Render("│") + " "
		for _, line := range r.highlight(lit.Text, lit.Language) {
			b.WriteString(gutter + line + "\n")
		}

	case unspool.Panel:
		b.WriteString(style.Render("▸ " + label(lit) + " · shown in panel"))
		b.WriteString("\n")

	default:
		head := "▸ " + label(lit) + " · "
		tail := " (" + lineCount(lit) + ")"
		preview := firstLine(lit.Text)
		avail := width - runewidth.StringWidth(head) - runewidth.StringWidth(tail)
		if avail <= 1 {
			preview = ""
		} else {
			preview = runewidth.Truncate(preview, avail, "…")
		}
		b.WriteString(style.Render(head + preview + tail))
		b.WriteString("\n")
	}
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// table renders a table with columns padded to their widest cell. When the
// table is wider than width every column is capped and cells are truncated.
func (r *renderer) table(b *strings.Builder, n unspool.Node, width int) {
	var rows [][]unspool.Node
	cols := 0
	for _, row := range n.Children {
		rows = append(rows, row.Children)
		cols = max(cols, len(row.Children))
	}
	if cols == 0 {
		return
	}
	widths := make([]int, cols)
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell.PlainText()))
		}
	}
	sep := 3 * (cols - 1)
	total := sep
	for _, w := range widths {
		total += w
	}
	capped := total > width
	if capped {
		limit := max((width-sep)/cols, 3)
		for i := range widths {
			widths[i] = min(widths[i], limit)
		}
	}

	bar := r.muted.Render(" │ ")
	for ri, row := range rows {
		header := n.Children[ri].Level == 1
		cells := make([]string, cols)
		for i := range cols {
			plain := ""
			styled := ""
			if i < len(row) {
				plain = row[i].PlainText()
				styled = r.inlines(row[i].Children)
			}
			if capped && runewidth.StringWidth(plain) > widths[i] {
				plain = runewidth.Truncate(plain, widths[i], "…")
				styled = plain
			}
			if header {
				styled = r.bold.Render(plain)
			}
			cells[i] = styled + strings.Repeat(" ", widths[i]-runewidth.StringWidth(plain))
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, bar), " "))
		b.WriteString("\n")
		if header {
			parts := make([]string, cols)
			for i, w := range widths {
				parts[i] = strings.Repeat("─", w)
			}
			b.WriteString(r.muted.Render(strings.Join(parts, "─┼─")))
			b.WriteString("\n")
		}
	}
}
