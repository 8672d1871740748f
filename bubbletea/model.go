package bubbletea

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/goldmark"
	ulogrus "github.com/fwojciec/unspool/logrus"
	"github.com/fwojciec/unspool/pipeline"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ tea.Model = Model{}

const (
	inputHeight  = 1
	statusHeight = 1
	borderHeight = 2 // newlines between sections
)

// turn is one prompt and the message generated for it.
type turn struct {
	prompt string
	id     string
}

// Option configures a [Model].
type Option func(*Model)

// WithTheme sets the color theme. The default is [unspool.DefaultTheme].
func WithTheme(t unspool.Theme) Option {
	return func(m *Model) { m.theme = t }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Model) { m.log = l }
}

// WithRecorder sets the recorder passed to the pipeline.
func WithRecorder(r unspool.Recorder) Option {
	return func(m *Model) { m.rec = r }
}

// WithTokenizer replaces the default goldmark tokenizer.
func WithTokenizer(tk unspool.Tokenizer) Option {
	return func(m *Model) { m.tok = tk }
}

// WithIDs sets the message ID generator. The default issues random UUIDs.
func WithIDs(next func() string) Option {
	return func(m *Model) { m.newID = next }
}

// WithModelName sets the model name shown while generating, until the
// source reports one.
func WithModelName(name string) Option {
	return func(m *Model) { m.modelName = name }
}

// Model is the Bubble Tea model for the unspool TUI.
type Model struct {
	// Input is the prompt input. Exported for test access.
	Input textinput.Model

	scr    *screen
	pipe   *pipeline.Pipeline
	src    unspool.Source
	cfg    unspool.Config
	theme  unspool.Theme
	styles Styles
	log    logrus.FieldLogger
	rec    unspool.Recorder
	tok    unspool.Tokenizer
	newID  func() string

	turns    []turn
	focus    unspool.BlockKey
	focused  bool
	literals int // literal blocks seen at the last layout

	width        int
	running      bool
	cancel       context.CancelFunc
	stream       unspool.Stream
	current      string // message being generated
	modelName    string
	err          error
	framePending bool
	ready        bool
}

// New creates a TUI Model generating messages from src. cfg must be valid.
func New(src unspool.Source, cfg unspool.Config, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input: ti,
		scr:   &screen{},
		src:   src,
		cfg:   cfg,
		theme: unspool.DefaultTheme(),
		log:   ulogrus.Discard(),
		rec:   unspool.NopRecorder{},
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(&m)
	}
	if m.tok == nil {
		m.tok = goldmark.New()
	}
	m.styles = NewStyles(m.theme)
	m.log = ulogrus.Named(m.log, "tui")
	m.pipe = pipeline.New(cfg, m.tok, m.scr,
		pipeline.WithLogger(ulogrus.Named(m.log, "pipeline")),
		pipeline.WithRecorder(m.rec),
	)
	return m
}

// Running returns whether a message is being generated.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case StreamOpenedMsg:
		if msg.ID != m.current {
			if msg.Stream != nil {
				_ = msg.Stream.Close()
			}
			return m, nil
		}
		if msg.Err != nil {
			return m.finish(msg.ID, msg.Err)
		}
		m.stream = msg.Stream
		return m, nextEvent(msg.ID, msg.Stream)

	case StreamEventMsg:
		if msg.ID != m.current {
			// Nothing pulls from a superseded stream again.
			if msg.Stream != nil {
				_ = msg.Stream.Close()
			}
			return m, nil
		}
		cmds := []tea.Cmd{nextEvent(msg.ID, m.stream)}
		switch e := msg.Event.(type) {
		case unspool.EventChunk:
			if task, ok := m.pipe.AppendChunk(msg.ID, e.Text); ok {
				cmds = append(cmds, revealAfter(task))
			}
		case unspool.EventMetadata:
			m.modelName = e.Model
		}
		var cmd tea.Cmd
		m, cmd = m.requestFrame()
		return m, tea.Batch(append(cmds, cmd)...)

	case StreamDoneMsg:
		if msg.ID != m.current {
			return m, nil
		}
		return m.finish(msg.ID, msg.Err)

	case RevealMsg:
		next, ok := m.pipe.RevealTick(msg.Task)
		var cmd tea.Cmd
		m, cmd = m.requestFrame()
		if ok {
			return m, tea.Batch(revealAfter(next), cmd)
		}
		return m, cmd

	case FrameMsg:
		m.framePending = false
		if len(m.pipe.Flush()) > 0 {
			m = m.render()
		}
		if m.pipe.Frame(msg.Time) {
			return m.requestFrame()
		}
		return m, nil
	}

	if !m.running {
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (Model, tea.Cmd) {
	vpHeight := max(1, msg.Height-inputHeight-statusHeight-borderHeight)
	m.width = msg.Width
	if !m.ready {
		m.scr.vp = viewport.New(msg.Width, vpHeight)
		m.scr.ready = true
		m.ready = true
	} else {
		m.scr.vp.Height = vpHeight
	}
	m.Input.Width = msg.Width
	return m.layout()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyTab:
		if m.focused {
			m.pipe.ToggleBlock(m.focus.MessageID, m.focus.Ordinal)
			return m.layout()
		}
		return m, nil

	case tea.KeyShiftTab:
		m = m.cycleFocusPrev()
		return m.layout()

	case tea.KeyCtrlO:
		if m.focused {
			m.pipe.OpenPanel(m.focus.MessageID, m.focus.Ordinal)
			return m.layout()
		}
		return m, nil

	case tea.KeyCtrlN:
		return m.reset()

	case tea.KeyCtrlR:
		return m.retry()

	case tea.KeyEnd:
		m.pipe.RequestJumpToBottom()

	case tea.KeyUp:
		return m.scrolled(func(vp *viewport.Model) { vp.ScrollUp(1) })
	case tea.KeyDown:
		return m.scrolled(func(vp *viewport.Model) { vp.ScrollDown(1) })
	case tea.KeyPgUp:
		return m.scrolled(func(vp *viewport.Model) { vp.PageUp() })
	case tea.KeyPgDown:
		return m.scrolled(func(vp *viewport.Model) { vp.PageDown() })
	}

	if !m.running {
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready {
		return m, nil
	}
	return m.scrolled(func(vp *viewport.Model) {
		*vp, _ = vp.Update(msg)
	})
}

// scrolled applies a viewer scroll and reports the new position.
func (m Model) scrolled(scroll func(*viewport.Model)) (Model, tea.Cmd) {
	if !m.ready {
		return m, nil
	}
	before := m.scr.vp.YOffset
	scroll(&m.scr.vp)
	if m.scr.vp.YOffset == before {
		return m, nil
	}
	m.pipe.OnViewportScroll(float64(m.scr.vp.YOffset))
	return m.requestFrame()
}

func (m Model) submit(text string) (Model, tea.Cmd) {
	m.Input.SetValue("")
	id := m.newID()
	m.turns = append(m.turns, turn{prompt: text, id: id})
	m.pipe.Begin(id)
	return m.start(id, unspool.Request{
		Prompt:  text,
		History: m.history(len(m.turns) - 1),
	})
}

// retry regenerates the last message in place.
func (m Model) retry() (Model, tea.Cmd) {
	if m.running || len(m.turns) == 0 {
		return m, nil
	}
	last := m.turns[len(m.turns)-1]
	m.pipe.Replace(last.id)
	return m.start(last.id, unspool.Request{
		Prompt:  last.prompt,
		History: m.history(len(m.turns) - 1),
	})
}

func (m Model) start(id string, req unspool.Request) (Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.current = id
	m.stream = nil
	m.err = nil
	m.Input.Blur()
	m.log.WithField("message", id).Info("generation started")

	m, cmd := m.layout()
	return m, tea.Batch(openStream(ctx, m.src, id, req), cmd)
}

func (m Model) finish(id string, err error) (Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil
	m.stream = nil
	m.current = ""

	entry := m.log.WithField("message", id)
	switch {
	case err == nil:
		m.pipe.MarkComplete(id)
		entry.Info("generation complete")
	case errors.Is(err, context.Canceled):
		m.pipe.MarkError(id, err)
		entry.Info("generation stopped")
	default:
		m.pipe.MarkError(id, err)
		m.err = err
	}

	focus := m.Input.Focus()
	m, cmd := m.layout()
	return m, tea.Batch(focus, cmd)
}

// reset starts a new conversation.
func (m Model) reset() (Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil
	m.stream = nil
	m.current = ""
	m.err = nil
	m.turns = nil
	m.focused = false
	m.literals = 0
	m.pipe.Switch()
	m.log.Info("new conversation")

	focus := m.Input.Focus()
	m, cmd := m.layout()
	return m, tea.Batch(focus, cmd)
}

// history returns the completed exchanges before turn n.
func (m Model) history(n int) []unspool.Turn {
	var h []unspool.Turn
	for _, t := range m.turns[:n] {
		if st, err := m.pipe.Status(t.id); err != nil || st != pipeline.StatusComplete {
			continue
		}
		h = append(h,
			unspool.Turn{Role: unspool.RoleUser, Text: t.prompt},
			unspool.Turn{Role: unspool.RoleAssistant, Text: m.pipe.Text(t.id)},
		)
	}
	return h
}

// render re-renders the content into the viewport and lets the scroll
// coordinator react to the new height.
func (m Model) render() Model {
	if !m.ready {
		return m
	}
	m = m.refocus()
	mainWidth, _ := m.widths()
	m.scr.vp.Width = mainWidth
	m.scr.vp.SetContent(m.renderContent(mainWidth))
	m.pipe.HeightChanged()
	return m
}

// layout renders and schedules a frame for any animation that started.
func (m Model) layout() (Model, tea.Cmd) {
	return m.render().requestFrame()
}

// requestFrame schedules a frame tick unless one is already pending.
func (m Model) requestFrame() (Model, tea.Cmd) {
	if m.framePending || !m.ready {
		return m, nil
	}
	m.framePending = true
	return m, frameAfter(m.cfg.Scroll.FrameInterval)
}

// literalKeys lists every literal block currently revealed, in display
// order.
func (m Model) literalKeys() []unspool.BlockKey {
	var keys []unspool.BlockKey
	for _, id := range m.pipe.Messages() {
		for _, lit := range unspool.Literals(m.pipe.RenderedNodes(id)) {
			keys = append(keys, unspool.BlockKey{MessageID: id, Ordinal: lit.Ordinal})
		}
	}
	return keys
}

// refocus moves focus to the newest literal block when one appears, and
// drops focus that no longer points at a block.
func (m Model) refocus() Model {
	keys := m.literalKeys()
	switch {
	case len(keys) == 0:
		m.focused = false
	case len(keys) > m.literals || !m.focused || !slices.Contains(keys, m.focus):
		m.focus = keys[len(keys)-1]
		m.focused = true
	}
	m.literals = len(keys)
	return m
}

// cycleFocusPrev moves focus to the previous literal block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	keys := m.literalKeys()
	if len(keys) == 0 {
		m.focused = false
		return m
	}
	i := slices.Index(keys, m.focus)
	if !m.focused || i < 0 {
		i = len(keys)
	}
	m.focus = keys[(i-1+len(keys))%len(keys)]
	m.focused = true
	return m
}
