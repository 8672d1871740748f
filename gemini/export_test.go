package gemini

import (
	"context"
	"iter"

	"github.com/fwojciec/unspool"
	"google.golang.org/genai"
)

// NewStreamFromIter exposes stream construction over a fake iterator.
func NewStreamFromIter(ctx context.Context, it iter.Seq2[*genai.GenerateContentResponse, error]) unspool.Stream {
	return newStream(ctx, it)
}

// Config exposes the request config built for a client.
func Config(c *Client) *genai.GenerateContentConfig {
	return c.config()
}
