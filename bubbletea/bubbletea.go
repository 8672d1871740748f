// Package bubbletea provides the Bubble Tea TUI host for unspool.
//
// The Model owns a [pipeline.Pipeline] and drives it from the Update loop:
// stream events, reveal ticks and frame ticks all arrive as messages, so no
// pipeline state is touched from any other goroutine.
package bubbletea

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/reveal"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. When ctx is cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamOpenedMsg reports the result of opening a stream for a message.
type StreamOpenedMsg struct {
	ID     string
	Stream unspool.Stream
	Err    error
}

// StreamEventMsg wraps a streaming event for delivery to the Model. Stream
// is the stream the event came from.
type StreamEventMsg struct {
	ID     string
	Event  unspool.Event
	Stream unspool.Stream
}

// StreamDoneMsg signals that a stream ended. Err is nil on normal
// completion.
type StreamDoneMsg struct {
	ID  string
	Err error
}

// RevealMsg fires a scheduled reveal task.
type RevealMsg struct {
	Task reveal.Task
}

// FrameMsg drives one display frame.
type FrameMsg struct {
	Time time.Time
}

func openStream(ctx context.Context, src unspool.Source, id string, req unspool.Request) tea.Cmd {
	return func() tea.Msg {
		s, err := src.Stream(ctx, req)
		return StreamOpenedMsg{ID: id, Stream: s, Err: err}
	}
}

// nextEvent pulls one event from s. The stream is closed once it ends.
func nextEvent(id string, s unspool.Stream) tea.Cmd {
	return func() tea.Msg {
		evt, err := s.Next()
		if err == nil {
			return StreamEventMsg{ID: id, Event: evt, Stream: s}
		}
		_ = s.Close()
		if errors.Is(err, io.EOF) {
			return StreamDoneMsg{ID: id}
		}
		return StreamDoneMsg{ID: id, Err: err}
	}
}

func revealAfter(task reveal.Task) tea.Cmd {
	return tea.Tick(task.Delay, func(time.Time) tea.Msg {
		return RevealMsg{Task: task}
	})
}

func frameAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return FrameMsg{Time: t}
	})
}
