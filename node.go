package unspool

import "strings"

// NodeKind identifies the type of a block or inline node.
type NodeKind int

const (
	KindParagraph NodeKind = iota
	KindHeading
	KindList
	KindListItem
	KindBlockquote
	KindLiteral // Fenced or indented code block.
	KindThematicBreak
	KindPassthrough // Allow-listed centering directive.
	KindTable
	KindTableRow
	KindTableCell
	KindText
	KindEmphasis
	KindStrong
	KindCodeSpan
	KindLink
	KindImage
	KindLineBreak
)

var kindNames = [...]string{
	KindParagraph:     "paragraph",
	KindHeading:       "heading",
	KindList:          "list",
	KindListItem:      "list_item",
	KindBlockquote:    "blockquote",
	KindLiteral:       "literal",
	KindThematicBreak: "thematic_break",
	KindPassthrough:   "passthrough",
	KindTable:         "table",
	KindTableRow:      "table_row",
	KindTableCell:     "table_cell",
	KindText:          "text",
	KindEmphasis:      "emphasis",
	KindStrong:        "strong",
	KindCodeSpan:      "code_span",
	KindLink:          "link",
	KindImage:         "image",
	KindLineBreak:     "line_break",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsInline reports whether nodes of this kind appear inside a block's
// inline content rather than as blocks.
func (k NodeKind) IsInline() bool {
	return k >= KindText
}

// Span is a half-open byte range [Start, End) into the source buffer.
type Span struct {
	Start int
	End   int
}

// Node is one element of a tokenized buffer. Nodes are ephemeral: they are
// recomputed from scratch every time the buffer grows and never persisted.
//
// Field usage by kind:
//   - KindHeading: Level is 1-6.
//   - KindList: Ordered and Start describe numbering.
//   - KindLiteral: Language, Text (verbatim content), Ordinal, Closed.
//   - KindText, KindCodeSpan: Text.
//   - KindLink, KindImage: Dest; Children hold the label.
//   - KindTableRow: Level is 1 for the header row.
type Node struct {
	Kind     NodeKind
	Span     Span
	Level    int
	Ordered  bool
	Start    int
	Language string
	Text     string
	Dest     string
	Ordinal  int
	Closed   bool
	Children []Node
}

// PlainText returns the concatenated text content of n and its
// descendants with all styling dropped.
func (n Node) PlainText() string {
	var b strings.Builder
	n.writePlain(&b)
	return b.String()
}

func (n Node) writePlain(b *strings.Builder) {
	switch n.Kind {
	case KindText, KindCodeSpan, KindLiteral:
		b.WriteString(n.Text)
	case KindLineBreak:
		b.WriteByte('\n')
	}
	for _, c := range n.Children {
		c.writePlain(b)
	}
}

// Tokenizer turns a text buffer into an ordered node sequence. Implementations
// must be pure: the same buffer always yields structurally identical nodes.
type Tokenizer interface {
	Tokenize(buffer string) []Node
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(buffer string) []Node

// Tokenize calls f(buffer).
func (f TokenizerFunc) Tokenize(buffer string) []Node {
	return f(buffer)
}
