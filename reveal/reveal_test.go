package reveal_test

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/reveal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newScheduler(unit unspool.RevealUnit) (*reveal.Scheduler, *clock) {
	cfg := unspool.DefaultConfig().Reveal
	cfg.Unit = unit
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	return reveal.New(cfg, reveal.WithClock(c.Now)), c
}

// drain fires tasks until none remain and returns the visible length after
// each step.
func drain(s *reveal.Scheduler, task reveal.Task, ok bool) []int {
	var steps []int
	id := task.MessageID
	for ok {
		task, ok = s.Advance(task)
		steps = append(steps, s.Visible(id))
	}
	return steps
}

func TestScheduler_Grow(t *testing.T) {
	t.Parallel()

	t.Run("schedules a task at the initial rate", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		task, ok := s.Grow("m", "Hello")
		require.True(t, ok)
		assert.Equal(t, "m", task.MessageID)
		assert.Equal(t, time.Second/40, task.Delay)
		assert.Equal(t, 0, s.Visible("m"))
		assert.True(t, s.Pending("m"))
	})

	t.Run("empty buffer schedules nothing", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		_, ok := s.Grow("m", "")
		assert.False(t, ok)
		assert.False(t, s.Pending("m"))
	})

	t.Run("unknown message reads as zero", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		assert.Equal(t, 0, s.Visible("nope"))
		assert.False(t, s.Pending("nope"))
	})
}

func TestScheduler_Advance(t *testing.T) {
	t.Parallel()

	t.Run("word unit includes leading whitespace", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		task, ok := s.Grow("m", "Hello  world.")
		assert.Equal(t, []int{5, 12, 13}, drain(s, task, ok))
		assert.False(t, s.Pending("m"))
	})

	t.Run("grapheme unit keeps clusters whole", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealGrapheme)
		text := "aé🇵🇱"
		task, ok := s.Grow("m", text)
		assert.Equal(t, []int{1, 4, len(text)}, drain(s, task, ok))
	})

	t.Run("stale task is a no-op", func(t *testing.T) {
		t.Parallel()
		s, c := newScheduler(unspool.RevealWord)
		first, _ := s.Grow("m", "one two")
		c.Advance(50 * time.Millisecond)
		second, ok := s.Grow("m", "one two three")
		require.True(t, ok)
		assert.NotEqual(t, first.Seq, second.Seq)

		_, ok = s.Advance(first)
		assert.False(t, ok)
		assert.Equal(t, 0, s.Visible("m"))

		_, ok = s.Advance(second)
		assert.True(t, ok)
		assert.Equal(t, 3, s.Visible("m"))
	})

	t.Run("a task fires at most once", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		task, _ := s.Grow("m", "one two three")
		s.Advance(task)
		_, ok := s.Advance(task)
		assert.False(t, ok)
		assert.Equal(t, 3, s.Visible("m"))
	})

	t.Run("tasks for other messages do not interfere", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		a, _ := s.Grow("a", "alpha beta")
		b, _ := s.Grow("b", "gamma delta")
		s.Advance(a)
		assert.Equal(t, 5, s.Visible("a"))
		assert.Equal(t, 0, s.Visible("b"))
		s.Advance(b)
		assert.Equal(t, 5, s.Visible("b"))
	})
}

func TestScheduler_Complete(t *testing.T) {
	t.Parallel()

	s, _ := newScheduler(unspool.RevealWord)
	task, _ := s.Grow("m", "one two")
	s.Complete("m", "one two three four")
	assert.Equal(t, len("one two three four"), s.Visible("m"))
	assert.False(t, s.Pending("m"))

	_, ok := s.Advance(task)
	assert.False(t, ok)
	assert.Equal(t, len("one two three four"), s.Visible("m"))
}

func TestScheduler_Halt(t *testing.T) {
	t.Parallel()

	s, c := newScheduler(unspool.RevealWord)
	task, _ := s.Grow("m", "one two three")
	s.Advance(task)
	s.Halt("m")
	assert.Equal(t, 3, s.Visible("m"))
	assert.False(t, s.Pending("m"))

	c.Advance(time.Second)
	_, ok := s.Grow("m", "one two three four")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Visible("m"))
}

func TestScheduler_Reset(t *testing.T) {
	t.Parallel()

	t.Run("zeroes visible length and cancels tasks", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		task, _ := s.Grow("m", "one two")
		task, _ = s.Advance(task)
		s.Reset("m")
		assert.Equal(t, 0, s.Visible("m"))
		_, ok := s.Advance(task)
		assert.False(t, ok)
	})

	t.Run("task from before reset is stale after regrowth", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		old, _ := s.Grow("m", "one two")
		s.Reset("m")
		_, _ = s.Grow("m", "three four")
		_, ok := s.Advance(old)
		assert.False(t, ok)
		assert.Equal(t, 0, s.Visible("m"))
	})

	t.Run("reset all", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		s.Complete("a", "x")
		s.Complete("b", "y")
		s.ResetAll()
		assert.Equal(t, 0, s.Visible("a"))
		assert.Equal(t, 0, s.Visible("b"))
	})

	t.Run("shorter buffer restarts the cursor", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(unspool.RevealWord)
		task, ok := s.Grow("m", "one two")
		drain(s, task, ok)
		require.Equal(t, 7, s.Visible("m"))
		_, ok = s.Grow("m", "new")
		assert.True(t, ok)
		assert.Equal(t, 0, s.Visible("m"))
	})
}

func TestScheduler_Rate(t *testing.T) {
	t.Parallel()

	t.Run("fast arrivals raise the rate up to the maximum", func(t *testing.T) {
		t.Parallel()
		s, c := newScheduler(unspool.RevealWord)
		buf := ""
		for range 50 {
			buf += strings.Repeat("word ", 20)
			s.Grow("m", buf)
			c.Advance(10 * time.Millisecond)
		}
		assert.InDelta(t, 240, s.Rate("m"), 0.001)
	})

	t.Run("slow arrivals lower the rate down to the minimum", func(t *testing.T) {
		t.Parallel()
		s, c := newScheduler(unspool.RevealWord)
		buf := ""
		for range 50 {
			buf += "word "
			s.Grow("m", buf)
			c.Advance(2 * time.Second)
		}
		assert.InDelta(t, 8, s.Rate("m"), 0.001)
	})

	t.Run("delay follows the rate", func(t *testing.T) {
		t.Parallel()
		s, c := newScheduler(unspool.RevealWord)
		s.Grow("m", "a")
		c.Advance(10 * time.Millisecond)
		task, ok := s.Grow("m", "a"+strings.Repeat(" b", 100))
		require.True(t, ok)
		assert.Less(t, task.Delay, time.Second/40)
	})
}

func TestScheduler_Monotonic(t *testing.T) {
	t.Parallel()

	s, c := newScheduler(unspool.RevealWord)
	r := rand.New(rand.NewPCG(7, 11))
	words := []string{"alpha", "beta", "γάμμα", "δ", "é", "🙂", "\n\n", "- x"}
	buf := ""
	var task reveal.Task
	var ok bool
	last := 0
	for range 400 {
		switch r.IntN(3) {
		case 0:
			buf += " " + words[r.IntN(len(words))]
			c.Advance(time.Duration(r.IntN(200)) * time.Millisecond)
			task, ok = s.Grow("m", buf)
		default:
			if ok {
				task, ok = s.Advance(task)
			}
		}
		v := s.Visible("m")
		require.GreaterOrEqual(t, v, last)
		require.LessOrEqual(t, v, len(buf))
		last = v
	}
	drain(s, task, ok)
	assert.Equal(t, len(buf), s.Visible("m"))
}
