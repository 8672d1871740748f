// Package replay implements [unspool.Source] by streaming fixed text in
// randomly sized, randomly delayed chunks. It exercises the render pipeline
// offline, the way a network source would.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/fwojciec/unspool"
	"github.com/rivo/uniseg"
)

// ErrInjected is returned by a stream configured with [WithFailAt].
var ErrInjected = errors.New("injected failure")

// Interface compliance check.
var _ unspool.Source = (*Source)(nil)

// Source replays the same text for every request.
type Source struct {
	text               string
	minChunk, maxChunk int // graphemes per chunk
	minDelay, maxDelay time.Duration
	failAt             int // byte offset; -1 disables
	seed               uint64
}

// Option configures a [Source].
type Option func(*Source)

// WithChunkSize bounds chunk sizes, in grapheme clusters.
func WithChunkSize(minSize, maxSize int) Option {
	return func(s *Source) {
		s.minChunk = max(1, minSize)
		s.maxChunk = max(s.minChunk, maxSize)
	}
}

// WithDelay bounds the pause before each chunk.
func WithDelay(minDelay, maxDelay time.Duration) Option {
	return func(s *Source) {
		s.minDelay = max(0, minDelay)
		s.maxDelay = max(s.minDelay, maxDelay)
	}
}

// WithFailAt makes streams fail with [ErrInjected] once offset bytes of
// text have been sent.
func WithFailAt(offset int) Option {
	return func(s *Source) { s.failAt = offset }
}

// WithSeed fixes the chunking and delay sequence.
func WithSeed(seed uint64) Option {
	return func(s *Source) { s.seed = seed }
}

// New creates a Source replaying text.
func New(text string, opts ...Option) *Source {
	s := &Source{
		text:     text,
		minChunk: 1,
		maxChunk: 12,
		minDelay: 10 * time.Millisecond,
		maxDelay: 120 * time.Millisecond,
		failAt:   -1,
		seed:     rand.Uint64(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open creates a Source replaying the file at path.
func Open(path string, opts ...Option) (*Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return New(string(b), opts...), nil
}

// Stream starts a replay. The request only has to be valid; its prompt is
// not used.
func (s *Source) Stream(ctx context.Context, req unspool.Request) (unspool.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return &stream{
		ctx:   ctx,
		src:   s,
		rest:  s.text,
		rng:   rand.New(rand.NewPCG(s.seed, uint64(len(s.text)))),
		state: unspool.StreamStateNew,
	}, nil
}

type stream struct {
	ctx   context.Context
	src   *Source
	rest  string
	sent  int
	rng   *rand.Rand
	state unspool.StreamState
	err   error
}

func (s *stream) Next() (unspool.Event, error) {
	switch s.state {
	case unspool.StreamStateComplete:
		return nil, io.EOF
	case unspool.StreamStateError:
		return nil, s.err
	case unspool.StreamStateClosed:
		return nil, fmt.Errorf("replay: %w", unspool.ErrStreamClosed)
	}
	if err := s.wait(); err != nil {
		return nil, s.fail(err)
	}
	if s.src.failAt >= 0 && s.sent >= s.src.failAt {
		return nil, s.fail(ErrInjected)
	}
	if s.rest == "" {
		s.state = unspool.StreamStateComplete
		return nil, io.EOF
	}
	s.state = unspool.StreamStateStreaming

	chunk := s.take(s.src.minChunk + s.rng.IntN(s.src.maxChunk-s.src.minChunk+1))
	s.sent += len(chunk)
	return unspool.EventChunk{Text: chunk}, nil
}

// take removes up to n grapheme clusters from the remaining text, stopping
// early at the failure offset.
func (s *stream) take(n int) string {
	end := 0
	state := -1
	for i := 0; i < n && end < len(s.rest); i++ {
		if s.src.failAt >= 0 && s.sent+end >= s.src.failAt {
			break
		}
		var cluster string
		cluster, _, _, state = uniseg.FirstGraphemeClusterInString(s.rest[end:], state)
		end += len(cluster)
	}
	chunk := s.rest[:end]
	s.rest = s.rest[end:]
	return chunk
}

func (s *stream) wait() error {
	d := s.src.minDelay
	if span := s.src.maxDelay - s.src.minDelay; span > 0 {
		d += time.Duration(s.rng.Int64N(int64(span) + 1))
	}
	if d == 0 {
		return s.ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *stream) fail(err error) error {
	s.state = unspool.StreamStateError
	s.err = fmt.Errorf("replay: %w", err)
	return s.err
}

func (s *stream) State() unspool.StreamState {
	return s.state
}

func (s *stream) Close() error {
	if s.state != unspool.StreamStateComplete && s.state != unspool.StreamStateError {
		s.state = unspool.StreamStateClosed
	}
	return nil
}
