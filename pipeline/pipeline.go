// Package pipeline wires the tokenizer, reveal scheduler, expansion store
// and scroll coordinator into the single surface a host drives.
//
// Every method is expected to be called from one event loop. Growth and
// reveal ticks only mark a message dirty; [Pipeline.Flush] re-tokenizes each
// dirty message once, so any number of chunks within one frame cost one
// tokenization.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/expansion"
	ulogrus "github.com/fwojciec/unspool/logrus"
	"github.com/fwojciec/unspool/reveal"
	"github.com/fwojciec/unspool/scroll"
	"github.com/sirupsen/logrus"
)

// Status is the lifecycle state of one message.
type Status int

const (
	StatusStreaming Status = iota // Chunks may still arrive.
	StatusComplete                // The source finished normally.
	StatusErrored                 // The source failed; partial text is kept.
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusErrored:
		return "errored"
	default:
		return "streaming"
	}
}

type message struct {
	buf    strings.Builder
	nodes  []unspool.Node
	dirty  bool
	status Status
	err    error
}

// Option configures a [Pipeline].
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithRecorder sets the observability recorder.
func WithRecorder(r unspool.Recorder) Option {
	return func(p *Pipeline) { p.rec = r }
}

// WithStore sets the expansion store. The default is [expansion.Exclusive].
func WithStore(s unspool.ExpansionStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithClock sets the time source shared by reveal pacing, scroll tagging
// and tokenization timing.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline is the streaming render core for one conversation view.
type Pipeline struct {
	tok    unspool.Tokenizer
	store  unspool.ExpansionStore
	reveal *reveal.Scheduler
	scroll *scroll.Coordinator
	log    logrus.FieldLogger
	rec    unspool.Recorder
	now    func() time.Time

	order []string
	msgs  map[string]*message
}

// New creates a Pipeline. cfg must be valid.
func New(cfg unspool.Config, tok unspool.Tokenizer, vp unspool.Viewport, opts ...Option) *Pipeline {
	p := &Pipeline{
		tok:  tok,
		log:  ulogrus.Discard(),
		rec:  unspool.NopRecorder{},
		now:  time.Now,
		msgs: make(map[string]*message),
	}
	for _, o := range opts {
		o(p)
	}
	if p.store == nil {
		p.store = expansion.NewExclusive()
	}
	p.reveal = reveal.New(cfg.Reveal, reveal.WithClock(p.now), reveal.WithRecorder(p.rec))
	p.scroll = scroll.New(cfg.Scroll, vp, scroll.WithClock(p.now), scroll.WithRecorder(p.rec))
	return p
}

func (p *Pipeline) lookup(id, op string) (*message, bool) {
	m, ok := p.msgs[id]
	if !ok {
		p.log.WithField("message", id).WithError(unspool.ErrUnknownMessage).Debugf("%s ignored", op)
	}
	return m, ok
}

// Begin registers a new, empty streaming message. Beginning an existing
// message replaces its content.
func (p *Pipeline) Begin(id string) {
	if _, ok := p.msgs[id]; ok {
		p.Replace(id)
		return
	}
	p.msgs[id] = &message{}
	p.order = append(p.order, id)
}

// AppendChunk appends text to the message buffer. It returns the reveal
// task the host should fire after Task.Delay, if any. Chunks for unknown or
// finished messages are ignored.
func (p *Pipeline) AppendChunk(id, text string) (reveal.Task, bool) {
	m, ok := p.lookup(id, "chunk")
	if !ok || text == "" {
		return reveal.Task{}, false
	}
	if m.status != StatusStreaming {
		p.log.WithField("message", id).Debugf("chunk after %s ignored", m.status)
		return reveal.Task{}, false
	}
	m.buf.WriteString(text)
	before := p.reveal.Visible(id)
	task, ok := p.reveal.Grow(id, m.buf.String())
	if p.reveal.Visible(id) != before {
		m.dirty = true
	}
	return task, ok
}

// MarkComplete finishes the message and reveals all of it.
func (p *Pipeline) MarkComplete(id string) {
	m, ok := p.lookup(id, "complete")
	if !ok || m.status != StatusStreaming {
		return
	}
	m.status = StatusComplete
	p.reveal.Complete(id, m.buf.String())
	m.dirty = true
}

// MarkError finishes the message as failed. Revealing stops where it is
// and the text shown so far stays.
func (p *Pipeline) MarkError(id string, err error) {
	m, ok := p.lookup(id, "error")
	if !ok || m.status != StatusStreaming {
		return
	}
	m.status = StatusErrored
	m.err = err
	p.reveal.Halt(id)
	p.log.WithField("message", id).WithError(err).Warn("stream failed")
}

// RevealTick fires a reveal task and returns the next one, if any. Stale
// tasks are ignored.
func (p *Pipeline) RevealTick(task reveal.Task) (reveal.Task, bool) {
	m, ok := p.msgs[task.MessageID]
	if !ok {
		return reveal.Task{}, false
	}
	before := p.reveal.Visible(task.MessageID)
	next, ok := p.reveal.Advance(task)
	if p.reveal.Visible(task.MessageID) != before {
		m.dirty = true
	}
	return next, ok
}

// Flush re-tokenizes every dirty message and returns their IDs in message
// order.
func (p *Pipeline) Flush() []string {
	var flushed []string
	for _, id := range p.order {
		m := p.msgs[id]
		if m.dirty {
			p.tokenize(id, m)
			flushed = append(flushed, id)
		}
	}
	return flushed
}

func (p *Pipeline) tokenize(id string, m *message) {
	start := p.now()
	visible := m.buf.String()[:p.reveal.Visible(id)]
	m.nodes = p.tok.Tokenize(visible)
	m.dirty = false
	elapsed := p.now().Sub(start)
	p.rec.Tokenized(id, len(m.nodes), elapsed)
	p.log.WithFields(logrus.Fields{
		"message": id,
		"visible": len(visible),
		"nodes":   len(m.nodes),
		"elapsed": elapsed,
	}).Debug("tokenized")
}

// RenderedNodes returns the node sequence for the revealed part of the
// message, re-tokenizing first if it is dirty.
func (p *Pipeline) RenderedNodes(id string) []unspool.Node {
	m, ok := p.lookup(id, "render")
	if !ok {
		return nil
	}
	if m.dirty {
		p.tokenize(id, m)
	}
	return m.nodes
}

// Dirty reports whether any message awaits re-tokenization.
func (p *Pipeline) Dirty() bool {
	for _, m := range p.msgs {
		if m.dirty {
			return true
		}
	}
	return false
}

// ToggleBlock toggles inline expansion of a literal block.
func (p *Pipeline) ToggleBlock(id string, ordinal int) unspool.Expansion {
	if _, ok := p.lookup(id, "toggle"); !ok {
		return unspool.Collapsed
	}
	return p.store.Toggle(unspool.BlockKey{MessageID: id, Ordinal: ordinal})
}

// OpenPanel shows a literal block in the side panel, or closes it there.
func (p *Pipeline) OpenPanel(id string, ordinal int) unspool.Expansion {
	if _, ok := p.lookup(id, "panel"); !ok {
		return unspool.Collapsed
	}
	return p.store.OpenPanel(unspool.BlockKey{MessageID: id, Ordinal: ordinal})
}

// IsBlockExpanded reports whether a literal block is expanded inline.
func (p *Pipeline) IsBlockExpanded(id string, ordinal int) bool {
	return p.store.IsExpanded(unspool.BlockKey{MessageID: id, Ordinal: ordinal})
}

// BlockState returns the expansion state of a literal block.
func (p *Pipeline) BlockState(id string, ordinal int) unspool.Expansion {
	return p.store.State(unspool.BlockKey{MessageID: id, Ordinal: ordinal})
}

// OnViewportScroll reports a scroll position observed by the host.
func (p *Pipeline) OnViewportScroll(position float64) {
	before := p.scroll.Mode()
	p.scroll.OnScroll(position)
	if after := p.scroll.Mode(); after != before {
		p.log.WithField("position", position).Debugf("scroll %s", after)
	}
}

// RequestJumpToBottom moves to the newest content immediately.
func (p *Pipeline) RequestJumpToBottom() {
	p.scroll.JumpToBottom()
}

// HeightChanged reports that rendered content height may have changed.
func (p *Pipeline) HeightChanged() {
	p.scroll.HeightChanged()
}

// Frame advances the follow animation and reports whether another frame
// is needed.
func (p *Pipeline) Frame(now time.Time) bool {
	return p.scroll.Frame(now)
}

// ScrollTarget returns the position the viewport is heading to.
func (p *Pipeline) ScrollTarget() float64 {
	return p.scroll.Target()
}

// ScrollMode returns the current follow mode.
func (p *Pipeline) ScrollMode() unspool.ScrollMode {
	return p.scroll.Mode()
}

// Replace discards the message content so it can be regenerated. Its
// expansion entries and reveal state are reset; pending tasks go stale.
func (p *Pipeline) Replace(id string) {
	m, ok := p.lookup(id, "replace")
	if !ok {
		return
	}
	m.buf.Reset()
	m.nodes = nil
	m.dirty = false
	m.status = StatusStreaming
	m.err = nil
	p.reveal.Reset(id)
	p.store.Reset(id)
}

// Switch drops every message and resets reveal, expansion and scroll state
// in one step. Callbacks still in flight for the old messages become no-ops.
func (p *Pipeline) Switch() {
	p.reveal.ResetAll()
	p.store.Clear()
	p.scroll.Reset()
	clear(p.msgs)
	p.order = nil
	p.log.Debug("switched conversation")
}

// Messages returns message IDs in the order they were begun.
func (p *Pipeline) Messages() []string {
	return append([]string(nil), p.order...)
}

// Status returns the lifecycle state of the message.
func (p *Pipeline) Status(id string) (Status, error) {
	m, ok := p.msgs[id]
	if !ok {
		return StatusStreaming, fmt.Errorf("message %q: %w", id, unspool.ErrUnknownMessage)
	}
	return m.status, nil
}

// Err returns the error a failed message ended with, or nil.
func (p *Pipeline) Err(id string) error {
	if m, ok := p.msgs[id]; ok {
		return m.err
	}
	return nil
}

// Text returns everything received for the message, revealed or not.
func (p *Pipeline) Text(id string) string {
	if m, ok := p.msgs[id]; ok {
		return m.buf.String()
	}
	return ""
}

// Revealing reports whether the message still has text to reveal.
func (p *Pipeline) Revealing(id string) bool {
	return p.reveal.Pending(id)
}
