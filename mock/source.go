// Package mock provides test doubles for unspool interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/fwojciec/unspool"
)

// Interface compliance check.
var _ unspool.Source = (*Source)(nil)

// Source is a test double for unspool.Source.
// Set StreamFn before calling Stream.
type Source struct {
	StreamFn func(ctx context.Context, req unspool.Request) (unspool.Stream, error)
}

// Stream delegates to StreamFn.
func (s *Source) Stream(ctx context.Context, req unspool.Request) (unspool.Stream, error) {
	return s.StreamFn(ctx, req)
}
