package unspool

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies who authored a turn of a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one finished exchange step sent back to the source as history.
type Turn struct {
	Role Role
	Text string
}

// Request asks a source to generate one message.
// The source uses its own defaults when fields are zero.
type Request struct {
	Model   string // source-specific; empty = source default
	Prompt  string
	History []Turn // earlier turns, oldest first
}

// Validate checks universal constraints on Request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt must not be empty: %w", ErrValidation)
	}
	for i, t := range r.History {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return fmt.Errorf("history[%d]: unknown role %q: %w", i, t.Role, ErrValidation)
		}
	}
	return nil
}

// Source opens a text stream for a request. Cancellation flows through ctx.
type Source interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req Request) (Stream, error)

// Stream calls f.
func (f SourceFunc) Stream(ctx context.Context, req Request) (Stream, error) {
	return f(ctx, req)
}
