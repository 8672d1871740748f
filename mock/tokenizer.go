package mock

import "github.com/fwojciec/unspool"

// Interface compliance check.
var _ unspool.Tokenizer = (*Tokenizer)(nil)

// Tokenizer is a test double for unspool.Tokenizer.
// Set TokenizeFn before calling Tokenize.
type Tokenizer struct {
	TokenizeFn func(buffer string) []unspool.Node
}

// Tokenize delegates to TokenizeFn.
func (t *Tokenizer) Tokenize(buffer string) []unspool.Node {
	return t.TokenizeFn(buffer)
}
