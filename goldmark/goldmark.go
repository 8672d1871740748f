// Package goldmark implements [unspool.Tokenizer] on top of the goldmark
// CommonMark parser.
//
// The whole buffer is re-parsed on every call. A trailing unclosed fenced
// block is closed virtually before parsing, the <center> passthrough
// directive is split out and its content re-parsed, and any other markup
// is reduced to plain text.
package goldmark

import (
	"github.com/fwojciec/unspool"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Interface compliance check.
var _ unspool.Tokenizer = (*Tokenizer)(nil)

// Tokenizer converts text buffers to node sequences. A Tokenizer holds no
// per-buffer state; it is safe to reuse across messages.
type Tokenizer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a Tokenizer with GFM tables enabled.
func New() *Tokenizer {
	return &Tokenizer{
		md:     goldmark.New(goldmark.WithExtensions(extension.Table)),
		policy: bluemonday.StrictPolicy(),
	}
}
