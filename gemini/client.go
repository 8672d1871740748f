package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/unspool"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ unspool.Source = (*Client)(nil)

// Client implements [unspool.Source] for the Google Gemini API.
type Client struct {
	client    *genai.Client
	model     string
	system    string
	maxTokens int32
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt sets the system instruction sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.system = prompt }
}

// WithMaxTokens caps the output length.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = int32(n) }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client:    gc,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [unspool.Stream] of text chunks.
func (c *Client) Stream(ctx context.Context, req unspool.Request) (unspool.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	contents := ConvertTurns(req.History, req.Prompt)
	it := c.client.Models.GenerateContentStream(ctx, model, contents, c.config())
	return newStream(ctx, it), nil
}

func (c *Client) config() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{MaxOutputTokens: c.maxTokens}
	if c.system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: c.system}},
		}
	}
	return config
}

// ConvertTurns converts conversation history plus the new prompt to genai
// Contents. Exported for testing.
func ConvertTurns(history []unspool.Turn, prompt string) []*genai.Content {
	result := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		role := genai.RoleUser
		if t.Role == unspool.RoleAssistant {
			role = genai.RoleModel
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}
	return append(result, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: prompt}},
	})
}
