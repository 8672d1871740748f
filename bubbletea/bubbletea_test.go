package bubbletea_test

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/unspool"
	bt "github.com/fwojciec/unspool/bubbletea"
	"github.com/fwojciec/unspool/mock"
	"github.com/stretchr/testify/require"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// sequentialIDs issues m1, m2, ... for one model.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

// idleSource opens streams that end immediately.
func idleSource() unspool.Source {
	return unspool.SourceFunc(func(context.Context, unspool.Request) (unspool.Stream, error) {
		return &mock.Stream{NextFn: func() (unspool.Event, error) { return nil, io.EOF }}, nil
	})
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, src unspool.Source) bt.Model {
	t.Helper()
	return initModelWithSize(t, src, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, src unspool.Source, width, height int) bt.Model {
	t.Helper()
	m := bt.New(src, unspool.DefaultConfig(), bt.WithIDs(sequentialIDs()))
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	m, _ = update(t, m, msg)
	return m
}

func update(t *testing.T, m bt.Model, msg tea.Msg) (bt.Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model, cmd
}

// submit types text and presses Enter.
func submit(t *testing.T, m bt.Model, text string) (bt.Model, tea.Cmd) {
	t.Helper()
	m.Input.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// stream delivers a complete stream for id: open, chunks, done, and one
// frame to flush the result.
func stream(t *testing.T, m bt.Model, id string, chunks ...string) bt.Model {
	t.Helper()
	m = open(t, m, id)
	for _, c := range chunks {
		m = updateModel(t, m, bt.StreamEventMsg{ID: id, Event: unspool.EventChunk{Text: c}})
	}
	m = updateModel(t, m, bt.StreamDoneMsg{ID: id})
	return updateModel(t, m, bt.FrameMsg{Time: time.Now()})
}

func open(t *testing.T, m bt.Model, id string) bt.Model {
	t.Helper()
	s := &mock.Stream{NextFn: func() (unspool.Event, error) { return nil, io.EOF }}
	return updateModel(t, m, bt.StreamOpenedMsg{ID: id, Stream: s})
}

// exchange submits prompt and streams the reply as message id.
func exchange(t *testing.T, m bt.Model, id, prompt string, chunks ...string) bt.Model {
	t.Helper()
	m, _ = submit(t, m, prompt)
	return stream(t, m, id, chunks...)
}

// settle runs frames until the scroll animation stops.
func settle(t *testing.T, m bt.Model) bt.Model {
	t.Helper()
	start := time.Now()
	for i := 1; i <= 1000; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, bt.FrameMsg{Time: start.Add(time.Duration(i) * 16 * time.Millisecond)})
		if cmd == nil {
			return m
		}
	}
	t.Fatal("animation did not settle")
	return m
}

// run executes cmd and any batched commands, returning the messages
// produced. Ticks sleep for their duration.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}
