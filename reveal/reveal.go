// Package reveal paces how much of a streaming message is visible.
//
// A [Scheduler] keeps a visible-length cursor per message and advances it one
// unit (word or grapheme) per tick. Ticks are not timers: the scheduler hands
// out [Task] values and the host fires them after Task.Delay by calling
// [Scheduler.Advance]. Every new growth, completion or reset cancels the
// outstanding task for that message, so stale tasks are ignored and the
// cursor never advances twice for one tick.
package reveal

import (
	"strings"
	"time"
	"unicode"

	"github.com/fwojciec/unspool"
	"github.com/rivo/uniseg"
)

// Task is a handle for one scheduled reveal tick. A task is live until the
// scheduler issues a newer task for the same message or the message is
// completed, halted or reset.
type Task struct {
	MessageID string
	Seq       uint64
	Delay     time.Duration
}

// Option configures a [Scheduler].
type Option func(*Scheduler)

// WithClock sets the time source used to measure arrival gaps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRecorder sets the recorder notified of rate changes.
func WithRecorder(r unspool.Recorder) Option {
	return func(s *Scheduler) { s.rec = r }
}

// Scheduler tracks reveal state for any number of messages. It is driven
// from a single event loop and is not safe for concurrent use.
type Scheduler struct {
	cfg  unspool.RevealConfig
	now  func() time.Time
	rec  unspool.Recorder
	seq  uint64
	msgs map[string]*cursor
}

type cursor struct {
	buffer     string
	visible    int
	rate       float64
	lastGrowth time.Time
	task       uint64 // Seq of the live task, 0 if none.
	complete   bool
	halted     bool
}

// New creates a Scheduler. cfg is assumed valid.
func New(cfg unspool.RevealConfig, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:  cfg,
		now:  time.Now,
		rec:  unspool.NopRecorder{},
		msgs: make(map[string]*cursor),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scheduler) cursor(id string) *cursor {
	c, ok := s.msgs[id]
	if !ok {
		c = &cursor{rate: s.cfg.InitialRate}
		s.msgs[id] = c
	}
	return c
}

// Grow records that the message buffer is now buffer. It cancels any pending
// task, adapts the reveal rate toward the observed arrival rate and returns a
// fresh task if text remains to be revealed.
func (s *Scheduler) Grow(id, buffer string) (Task, bool) {
	c := s.cursor(id)
	if c.halted {
		return Task{}, false
	}
	if c.complete {
		c.buffer = buffer
		c.visible = len(buffer)
		return Task{}, false
	}
	c.task = 0

	if len(buffer) < len(c.buffer) {
		// Only tail growth is supported; a shorter buffer is a new message.
		c.buffer = ""
		c.visible = 0
		c.lastGrowth = time.Time{}
	}

	now := s.now()
	if !c.lastGrowth.IsZero() {
		added := s.units(buffer[len(c.buffer):])
		observed := s.cfg.MaxRate
		if gap := now.Sub(c.lastGrowth); gap > 0 {
			observed = float64(added) / gap.Seconds()
		}
		c.rate += s.cfg.Smoothing * (observed - c.rate)
		c.rate = min(max(c.rate, s.cfg.MinRate), s.cfg.MaxRate)
		s.rec.RevealRate(id, c.rate)
	}
	c.lastGrowth = now
	c.buffer = buffer
	return s.schedule(id, c)
}

// Advance fires a task. Stale tasks are ignored. A live task moves the
// cursor forward by one unit and returns the next task if more remains.
func (s *Scheduler) Advance(t Task) (Task, bool) {
	c, ok := s.msgs[t.MessageID]
	if !ok || c.task == 0 || c.task != t.Seq {
		return Task{}, false
	}
	c.task = 0
	c.visible = s.step(c.buffer, c.visible)
	return s.schedule(t.MessageID, c)
}

func (s *Scheduler) schedule(id string, c *cursor) (Task, bool) {
	if c.visible >= len(c.buffer) {
		return Task{}, false
	}
	s.seq++
	c.task = s.seq
	return Task{
		MessageID: id,
		Seq:       c.task,
		Delay:     time.Duration(float64(time.Second) / c.rate),
	}, true
}

// Complete cancels pending work and reveals the whole buffer at once.
func (s *Scheduler) Complete(id, buffer string) {
	c := s.cursor(id)
	c.task = 0
	c.complete = true
	c.halted = false
	c.buffer = buffer
	c.visible = len(buffer)
}

// Halt cancels pending work and stops revealing. Text already visible stays
// visible; later growth is ignored.
func (s *Scheduler) Halt(id string) {
	c := s.cursor(id)
	c.task = 0
	c.halted = true
}

// Reset forgets the message. Its visible length reads as zero and any
// outstanding task becomes stale.
func (s *Scheduler) Reset(id string) {
	delete(s.msgs, id)
}

// ResetAll forgets every message.
func (s *Scheduler) ResetAll() {
	clear(s.msgs)
}

// Visible returns the number of bytes of the message that may be shown.
func (s *Scheduler) Visible(id string) int {
	if c, ok := s.msgs[id]; ok {
		return c.visible
	}
	return 0
}

// Pending reports whether the message has a live task.
func (s *Scheduler) Pending(id string) bool {
	c, ok := s.msgs[id]
	return ok && c.task != 0
}

// Rate returns the current target rate for the message in units per second.
func (s *Scheduler) Rate(id string) float64 {
	if c, ok := s.msgs[id]; ok {
		return c.rate
	}
	return s.cfg.InitialRate
}

// step returns the offset one reveal unit past from.
func (s *Scheduler) step(buffer string, from int) int {
	if from >= len(buffer) {
		return len(buffer)
	}
	rest := buffer[from:]
	if s.cfg.Unit == unspool.RevealGrapheme {
		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
		return from + len(cluster)
	}
	// A word unit is any leading whitespace plus the next word segment.
	consumed := 0
	state := -1
	for rest != "" {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		consumed += len(word)
		if !isSpace(word) {
			break
		}
	}
	return from + consumed
}

// units counts reveal units in s.
func (s *Scheduler) units(text string) int {
	n := 0
	for pos := 0; pos < len(text); n++ {
		pos = s.step(text, pos)
	}
	return n
}

func isSpace(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
