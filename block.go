package unspool

// BlockKey identifies a literal block within a message by its ordinal:
// the block's position among literal blocks in document order.
//
// Because buffers only grow at the tail, the ordinal of a block never
// changes across re-tokenizations. Supporting mid-buffer edits would
// require a content-derived key instead.
type BlockKey struct {
	MessageID string
	Ordinal   int
}

// Expansion is the display state of a literal block.
type Expansion int

const (
	Collapsed Expansion = iota // Default for blocks never toggled.
	Expanded
	Panel // Shown in the side panel.
)

func (e Expansion) String() string {
	switch e {
	case Expanded:
		return "expanded"
	case Panel:
		return "panel"
	default:
		return "collapsed"
	}
}

// Open reports whether the block is shown anywhere, inline or in the panel.
func (e Expansion) Open() bool {
	return e == Expanded || e == Panel
}

// ExpansionStore tracks expansion state per block key. State and
// IsExpanded are pure queries. Reset is called when a message's content is
// replaced wholesale, not on ordinary growth.
type ExpansionStore interface {
	Toggle(key BlockKey) Expansion
	OpenPanel(key BlockKey) Expansion
	State(key BlockKey) Expansion
	IsExpanded(key BlockKey) bool
	Reset(messageID string)
	Clear()
}

// AssignOrdinals numbers literal blocks in pre-order, starting at zero.
// All other nodes get ordinal -1. It modifies nodes in place and returns
// the number of literal blocks found.
func AssignOrdinals(nodes []Node) int {
	next := 0
	assignOrdinals(nodes, &next)
	return next
}

func assignOrdinals(nodes []Node, next *int) {
	for i := range nodes {
		if nodes[i].Kind == KindLiteral {
			nodes[i].Ordinal = *next
			*next++
		} else {
			nodes[i].Ordinal = -1
		}
		assignOrdinals(nodes[i].Children, next)
	}
}

// Literals returns the literal blocks of a tokenized buffer in ordinal order.
func Literals(nodes []Node) []Node {
	var out []Node
	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			if n.Kind == KindLiteral {
				out = append(out, n)
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}
