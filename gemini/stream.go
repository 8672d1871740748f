package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/unspool"
	"google.golang.org/genai"
)

// stream implements [unspool.Stream] by wrapping the genai SDK's streaming
// iterator. One response may carry several parts, so decoded events are
// queued and handed out one per Next call.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	state   unspool.StreamState
	pending []unspool.Event
	stopped error // reported once pending drains
	model   string
	err     error
}

// Interface compliance check.
var _ unspool.Stream = (*stream)(nil)

func newStream(ctx context.Context, it iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(it)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: unspool.StreamStateNew,
	}
}

func (s *stream) Next() (unspool.Event, error) {
	for {
		switch s.state {
		case unspool.StreamStateComplete:
			return nil, io.EOF
		case unspool.StreamStateError:
			return nil, s.err
		case unspool.StreamStateClosed:
			return nil, fmt.Errorf("gemini: %w", unspool.ErrStreamClosed)
		}
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			return evt, nil
		}
		if s.stopped != nil {
			s.state = unspool.StreamStateError
			s.err = fmt.Errorf("gemini: %w", s.stopped)
			return nil, s.err
		}

		resp, err, ok := s.pull()
		if !ok {
			s.state = unspool.StreamStateComplete
			return nil, io.EOF
		}
		s.state = unspool.StreamStateStreaming
		if err == nil {
			err = s.decode(resp)
		}
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
				err = fmt.Errorf("%w: %w", ctxErr, err)
			}
			s.state = unspool.StreamStateError
			s.err = fmt.Errorf("gemini: %w", err)
			return nil, s.err
		}
	}
}

// decode queues the events carried by one response.
func (s *stream) decode(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return fmt.Errorf("prompt blocked: %s", fb.BlockReason)
	}
	if resp.ModelVersion != "" && resp.ModelVersion != s.model {
		s.model = resp.ModelVersion
		s.pending = append(s.pending, unspool.EventMetadata{Model: resp.ModelVersion})
	}
	if len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought || p.Text == "" {
				continue
			}
			s.pending = append(s.pending, unspool.EventChunk{Text: p.Text})
		}
	}
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		s.stopped = fmt.Errorf("generation stopped: %s", cand.FinishReason)
	}
	return nil
}

func (s *stream) State() unspool.StreamState {
	return s.state
}

func (s *stream) Close() error {
	if s.state != unspool.StreamStateComplete && s.state != unspool.StreamStateError {
		s.state = unspool.StreamStateClosed
	}
	s.stop()
	return nil
}
