// Package scroll decides when and how a viewport follows growing content.
//
// A [Coordinator] is either following the bottom of the content or frozen
// because the viewer scrolled away. While following, content growth starts
// (or retargets) a single animation toward the new bottom; the host drives
// the animation by calling [Coordinator.Frame] once per display frame.
//
// Programmatic writes are tagged with their position and time so the echo
// the host reports back is not mistaken for the viewer scrolling.
package scroll

import (
	"math"
	"time"

	"github.com/fwojciec/unspool"
)

// settle is the distance at which an animation snaps onto its target.
const settle = 0.5

// budgetWindow is the trailing window over which displacement is bounded.
const budgetWindow = time.Second

// Option configures a [Coordinator].
type Option func(*Coordinator)

// WithClock sets the time source used to stamp programmatic writes.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithRecorder sets the recorder notified of mode changes and animations.
func WithRecorder(r unspool.Recorder) Option {
	return func(c *Coordinator) { c.rec = r }
}

type tag struct {
	pos float64
	at  time.Time
}

type move struct {
	at   time.Time
	dist float64
}

// Coordinator owns follow-scroll state for one viewport. It is driven from
// a single event loop and is not safe for concurrent use.
type Coordinator struct {
	cfg unspool.ScrollConfig
	vp  unspool.Viewport
	now func() time.Time
	rec unspool.Recorder

	mode    unspool.ScrollMode
	pos     float64
	loaded  bool // first-load jump done
	pending bool // a height change could not be applied yet

	animating bool
	lastFrame time.Time
	moves     []move

	tag    tag
	tagged bool
}

// New creates a Coordinator for vp. cfg is assumed valid.
func New(cfg unspool.ScrollConfig, vp unspool.Viewport, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:  cfg,
		vp:   vp,
		now:  time.Now,
		rec:  unspool.NopRecorder{},
		mode: unspool.Following,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Mode returns the current follow mode.
func (c *Coordinator) Mode() unspool.ScrollMode { return c.mode }

// Position returns the last known scroll position.
func (c *Coordinator) Position() float64 { return c.pos }

// Animating reports whether a follow animation is in flight.
func (c *Coordinator) Animating() bool { return c.animating }

// Pending reports whether a height change is waiting for the viewport.
func (c *Coordinator) Pending() bool { return c.pending }

// Target returns where the coordinator is heading: the bottom while
// following, the current position while frozen.
func (c *Coordinator) Target() float64 {
	if c.mode == unspool.Frozen {
		return c.pos
	}
	m, ok := c.vp.Metrics()
	if !ok {
		return c.pos
	}
	return m.Bottom()
}

// OnScroll reports a scroll position observed by the host.
func (c *Coordinator) OnScroll(position float64) {
	now := c.now()
	if c.isSelf(position, now) {
		c.pos = position
		return
	}

	delta := position - c.pos
	c.pos = position
	c.animating = false

	m, ok := c.vp.Metrics()
	if !ok {
		return
	}
	bottom := m.Bottom()
	switch {
	case bottom-position <= c.cfg.Tolerance:
		c.setMode(unspool.Following)
	case delta < -c.cfg.NoiseThreshold:
		c.setMode(unspool.Frozen)
	case c.mode == unspool.Following:
		// Jitter while following: keep heading for the bottom.
		c.start(now)
	}
}

func (c *Coordinator) isSelf(position float64, now time.Time) bool {
	if !c.tagged || now.Sub(c.tag.at) > c.cfg.SelfTagWindow {
		return false
	}
	return math.Abs(position-c.tag.pos) <= c.cfg.SelfTagTolerance
}

// HeightChanged tells the coordinator the content height may have changed.
// If the viewport is not available yet the change is remembered and applied
// on the next call.
func (c *Coordinator) HeightChanged() {
	m, ok := c.vp.Metrics()
	if !ok {
		c.pending = true
		return
	}
	c.pending = false
	bottom := m.Bottom()
	if c.pos > bottom {
		c.pos = bottom
	}
	if c.mode == unspool.Frozen {
		return
	}
	now := c.now()
	if !c.loaded {
		c.loaded = true
		c.animating = false
		c.write(bottom, now)
		return
	}
	if bottom == c.pos && !c.animating {
		return
	}
	c.start(now)
}

// start begins a follow animation unless one is already in flight, in which
// case the running animation simply heads for the new bottom.
func (c *Coordinator) start(now time.Time) {
	if c.animating {
		return
	}
	c.animating = true
	c.lastFrame = now
	c.rec.FollowStarted()
}

// Frame advances the follow animation to now and reports whether another
// frame is needed.
func (c *Coordinator) Frame(now time.Time) bool {
	if !c.animating {
		return false
	}
	dt := now.Sub(c.lastFrame).Seconds()
	if dt <= 0 {
		return true
	}
	c.lastFrame = now

	m, ok := c.vp.Metrics()
	if !ok {
		return true
	}
	target := m.Bottom()
	remaining := target - c.pos
	limit := min(c.cfg.MaxVelocity*dt, c.budget(now))

	if math.Abs(remaining) <= settle && math.Abs(remaining) <= limit {
		c.spend(now, math.Abs(remaining))
		c.write(target, now)
		c.animating = false
		return false
	}

	step := remaining * (1 - math.Exp(-c.cfg.Stiffness*dt))
	step = math.Max(-limit, math.Min(limit, step))
	if step == 0 {
		return true
	}
	c.spend(now, math.Abs(step))
	c.write(c.pos+step, now)
	return true
}

// budget returns how much displacement is still allowed in the trailing
// window ending at now.
func (c *Coordinator) budget(now time.Time) float64 {
	cutoff := now.Add(-budgetWindow)
	kept := c.moves[:0]
	used := 0.0
	for _, mv := range c.moves {
		if mv.at.After(cutoff) {
			kept = append(kept, mv)
			used += mv.dist
		}
	}
	c.moves = kept
	return math.Max(0, c.cfg.MaxVelocity-used)
}

func (c *Coordinator) spend(now time.Time, dist float64) {
	if dist > 0 {
		c.moves = append(c.moves, move{at: now, dist: dist})
	}
}

// JumpToBottom moves to the bottom immediately and resumes following.
func (c *Coordinator) JumpToBottom() {
	c.animating = false
	c.setMode(unspool.Following)
	m, ok := c.vp.Metrics()
	if !ok {
		c.loaded = false
		c.pending = true
		return
	}
	c.loaded = true
	c.write(m.Bottom(), c.now())
}

// Reset cancels any animation and returns to the initial following state.
// The next height change jumps straight to the bottom.
func (c *Coordinator) Reset() {
	c.animating = false
	c.setMode(unspool.Following)
	c.loaded = false
	c.pending = false
	c.pos = 0
	c.moves = nil
	c.tagged = false
}

func (c *Coordinator) write(pos float64, now time.Time) {
	c.pos = pos
	c.tag = tag{pos: pos, at: now}
	c.tagged = true
	c.vp.ScrollTo(pos)
}

func (c *Coordinator) setMode(m unspool.ScrollMode) {
	if c.mode == m {
		return
	}
	c.mode = m
	c.rec.ModeChanged(m)
}
