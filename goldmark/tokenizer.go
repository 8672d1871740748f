package goldmark

import (
	"strings"

	"github.com/fwojciec/unspool"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Tokenize parses buffer into block nodes. It never fails: malformed input
// degrades to plain text.
func (t *Tokenizer) Tokenize(buffer string) (nodes []unspool.Node) {
	defer func() {
		if r := recover(); r != nil {
			nodes = t.fallback(buffer)
		}
	}()

	src, virtual := closeFences(buffer)
	for _, seg := range splitPassthrough(src) {
		if seg.passthrough {
			nodes = append(nodes, t.passthrough(src, seg))
			continue
		}
		nodes = append(nodes, t.parse(src[seg.start:seg.end], seg.start)...)
	}
	if virtual {
		if open := lastLiteral(nodes); open != nil {
			open.Closed = false
		}
	}
	clampSpans(nodes, len(buffer))
	unspool.AssignOrdinals(nodes)
	return nodes
}

func (t *Tokenizer) passthrough(src string, seg segment) unspool.Node {
	inner := src[seg.innerStart:seg.innerEnd]
	clean := t.stripMarkup(inner)
	children := t.parse(clean, seg.innerStart)
	if clean != inner {
		// Offsets no longer line up with the buffer once markup is removed.
		pinSpans(children, unspool.Span{Start: seg.innerStart, End: seg.innerEnd})
	}
	return unspool.Node{
		Kind:     unspool.KindPassthrough,
		Span:     unspool.Span{Start: seg.start, End: seg.end},
		Children: children,
	}
}

func (t *Tokenizer) parse(s string, offset int) []unspool.Node {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	source := []byte(s)
	doc := t.md.Parser().Parse(text.NewReader(source))
	c := converter{t: t, source: source, offset: offset}
	return c.blocks(doc)
}

func (t *Tokenizer) fallback(buffer string) []unspool.Node {
	span := unspool.Span{Start: 0, End: len(buffer)}
	return []unspool.Node{{
		Kind:     unspool.KindParagraph,
		Span:     span,
		Ordinal:  -1,
		Children: []unspool.Node{{Kind: unspool.KindText, Span: span, Ordinal: -1, Text: t.stripMarkup(buffer)}},
	}}
}

// converter maps a goldmark AST to unspool nodes. Spans are shifted by
// offset so they index into the full buffer.
type converter struct {
	t      *Tokenizer
	source []byte
	offset int
}

func (c *converter) blocks(parent ast.Node) []unspool.Node {
	var out []unspool.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b, ok := c.block(n); ok {
			out = append(out, b)
		}
	}
	return out
}

func (c *converter) block(node ast.Node) (unspool.Node, bool) {
	span := c.span(node)
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return unspool.Node{Kind: unspool.KindParagraph, Span: span, Children: c.inlines(n)}, true

	case *ast.Heading:
		return unspool.Node{Kind: unspool.KindHeading, Span: span, Level: n.Level, Children: c.inlines(n)}, true

	case *ast.FencedCodeBlock:
		return unspool.Node{
			Kind:     unspool.KindLiteral,
			Span:     span,
			Language: string(n.Language(c.source)),
			Text:     c.lines(n),
			Closed:   true,
		}, true

	case *ast.CodeBlock:
		return unspool.Node{Kind: unspool.KindLiteral, Span: span, Text: c.lines(n), Closed: true}, true

	case *ast.List:
		return unspool.Node{
			Kind:     unspool.KindList,
			Span:     span,
			Ordered:  n.IsOrdered(),
			Start:    n.Start,
			Children: c.blocks(n),
		}, true

	case *ast.ListItem:
		return unspool.Node{Kind: unspool.KindListItem, Span: span, Children: c.blocks(n)}, true

	case *ast.Blockquote:
		return unspool.Node{Kind: unspool.KindBlockquote, Span: span, Children: c.blocks(n)}, true

	case *ast.ThematicBreak:
		return unspool.Node{Kind: unspool.KindThematicBreak, Span: span}, true

	case *ast.HTMLBlock:
		raw := c.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.source))
		}
		plain := strings.TrimSpace(c.t.stripMarkup(raw))
		if plain == "" {
			return unspool.Node{}, false
		}
		return unspool.Node{
			Kind:     unspool.KindParagraph,
			Span:     span,
			Children: []unspool.Node{{Kind: unspool.KindText, Span: span, Text: plain}},
		}, true

	case *east.Table:
		return c.table(n, span), true

	default:
		if !node.HasChildren() {
			return unspool.Node{}, false
		}
		return unspool.Node{Kind: unspool.KindParagraph, Span: span, Children: c.inlines(node)}, true
	}
}

func (c *converter) table(n *east.Table, span unspool.Span) unspool.Node {
	table := unspool.Node{Kind: unspool.KindTable, Span: span}
	for r := n.FirstChild(); r != nil; r = r.NextSibling() {
		row := unspool.Node{Kind: unspool.KindTableRow, Span: c.span(r)}
		if _, ok := r.(*east.TableHeader); ok {
			row.Level = 1
		}
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row.Children = append(row.Children, unspool.Node{
				Kind:     unspool.KindTableCell,
				Span:     c.span(cell),
				Children: c.inlines(cell),
			})
		}
		table.Children = append(table.Children, row)
	}
	return table
}

func (c *converter) inlines(parent ast.Node) []unspool.Node {
	var out []unspool.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = c.inline(out, n)
	}
	return mergeText(out)
}

func (c *converter) inline(out []unspool.Node, node ast.Node) []unspool.Node {
	switch n := node.(type) {
	case *ast.Text:
		span := c.segment(n.Segment)
		out = append(out, unspool.Node{Kind: unspool.KindText, Span: span, Text: string(n.Segment.Value(c.source))})
		end := unspool.Span{Start: span.End, End: span.End}
		if n.SoftLineBreak() {
			out = append(out, unspool.Node{Kind: unspool.KindText, Span: end, Text: " "})
		}
		if n.HardLineBreak() {
			out = append(out, unspool.Node{Kind: unspool.KindLineBreak, Span: end})
		}

	case *ast.String:
		out = append(out, unspool.Node{Kind: unspool.KindText, Span: c.span(n), Text: string(n.Value)})

	case *ast.Emphasis:
		kind := unspool.KindEmphasis
		if n.Level >= 2 {
			kind = unspool.KindStrong
		}
		out = append(out, unspool.Node{Kind: kind, Span: c.span(n), Children: c.inlines(n)})

	case *ast.CodeSpan:
		out = append(out, unspool.Node{Kind: unspool.KindCodeSpan, Span: c.span(n), Text: c.rawText(n)})

	case *ast.Link:
		out = append(out, unspool.Node{
			Kind:     unspool.KindLink,
			Span:     c.span(n),
			Dest:     string(n.Destination),
			Children: c.inlines(n),
		})

	case *ast.AutoLink:
		url := string(n.URL(c.source))
		span := c.span(n)
		out = append(out, unspool.Node{
			Kind:     unspool.KindLink,
			Span:     span,
			Dest:     url,
			Children: []unspool.Node{{Kind: unspool.KindText, Span: span, Text: string(n.Label(c.source))}},
		})

	case *ast.Image:
		out = append(out, unspool.Node{
			Kind:     unspool.KindImage,
			Span:     c.span(n),
			Dest:     string(n.Destination),
			Children: c.inlines(n),
		})

	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			raw.Write(seg.Value(c.source))
		}
		if plain := c.t.stripMarkup(raw.String()); plain != "" {
			out = append(out, unspool.Node{Kind: unspool.KindText, Span: c.span(n), Text: plain})
		}

	default:
		for ch := node.FirstChild(); ch != nil; ch = ch.NextSibling() {
			out = c.inline(out, ch)
		}
	}
	return out
}

// rawText concatenates the literal text below n without styling.
func (c *converter) rawText(n ast.Node) string {
	var b strings.Builder
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch t := ch.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(c.source))
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(c.rawText(ch))
		}
	}
	return b.String()
}

// lines joins the verbatim lines of a block, dropping the final newline.
func (c *converter) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(c.source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (c *converter) segment(s text.Segment) unspool.Span {
	return unspool.Span{Start: c.offset + s.Start, End: c.offset + s.Stop}
}

// span covers every source segment reachable from n.
func (c *converter) span(n ast.Node) unspool.Span {
	start, end := -1, -1
	extend := func(s text.Segment) {
		if start < 0 || s.Start < start {
			start = s.Start
		}
		if s.Stop > end {
			end = s.Stop
		}
	}
	var visit func(ast.Node)
	visit = func(n ast.Node) {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				extend(lines.At(i))
			}
		}
		switch v := n.(type) {
		case *ast.Text:
			extend(v.Segment)
		case *ast.FencedCodeBlock:
			if v.Info != nil {
				extend(v.Info.Segment)
			}
		}
		for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
			visit(ch)
		}
	}
	visit(n)
	if start < 0 {
		return unspool.Span{Start: c.offset, End: c.offset}
	}
	return unspool.Span{Start: c.offset + start, End: c.offset + end}
}

// mergeText joins adjacent text runs so plain prose is a single node.
func mergeText(nodes []unspool.Node) []unspool.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if k := len(out) - 1; k >= 0 && n.Kind == unspool.KindText && out[k].Kind == unspool.KindText {
			out[k].Text += n.Text
			out[k].Span.End = max(out[k].Span.End, n.Span.End)
			continue
		}
		out = append(out, n)
	}
	return out
}

func lastLiteral(nodes []unspool.Node) *unspool.Node {
	for i := len(nodes) - 1; i >= 0; i-- {
		if found := lastLiteral(nodes[i].Children); found != nil {
			return found
		}
		if nodes[i].Kind == unspool.KindLiteral {
			return &nodes[i]
		}
	}
	return nil
}

func clampSpans(nodes []unspool.Node, limit int) {
	for i := range nodes {
		nodes[i].Span.Start = min(nodes[i].Span.Start, limit)
		nodes[i].Span.End = min(nodes[i].Span.End, limit)
		clampSpans(nodes[i].Children, limit)
	}
}

func pinSpans(nodes []unspool.Node, span unspool.Span) {
	for i := range nodes {
		nodes[i].Span = span
		pinSpans(nodes[i].Children, span)
	}
}
