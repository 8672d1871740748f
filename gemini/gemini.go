// Package gemini implements [unspool.Source] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Streaming uses the SDK's
// iter.Seq2 iterator, wrapped into the pull-based [unspool.Stream]
// interface; every non-thought text part becomes one chunk.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 65536
)
