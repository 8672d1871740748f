package pipeline_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/expansion"
	"github.com/fwojciec/unspool/goldmark"
	"github.com/fwojciec/unspool/mock"
	"github.com/fwojciec/unspool/pipeline"
	"github.com/fwojciec/unspool/reveal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	p       *pipeline.Pipeline
	clk     *clock
	content float64
	offset  float64
	writes  int
	tokens  int
	follows int
}

func newFixture(t *testing.T, tok unspool.Tokenizer, opts ...pipeline.Option) *fixture {
	t.Helper()
	f := &fixture{clk: &clock{now: time.Unix(1_700_000_000, 0)}, content: 10}
	vp := &mock.Viewport{
		MetricsFn: func() (unspool.ViewportMetrics, bool) {
			return unspool.ViewportMetrics{Offset: f.offset, ContentHeight: f.content, Height: 10}, true
		},
		ScrollToFn: func(o float64) {
			f.offset = o
			f.writes++
		},
	}
	rec := &mock.Recorder{
		TokenizedFn:     func(string, int, time.Duration) { f.tokens++ },
		FollowStartedFn: func() { f.follows++ },
	}
	opts = append([]pipeline.Option{pipeline.WithClock(f.clk.Now), pipeline.WithRecorder(rec)}, opts...)
	f.p = pipeline.New(unspool.DefaultConfig(), tok, vp, opts...)
	return f
}

// drain fires reveal tasks until the message is fully revealed.
func drain(p *pipeline.Pipeline, task reveal.Task, ok bool) {
	for ok {
		task, ok = p.RevealTick(task)
	}
}

func TestPipeline_ProseChunks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	f.p.Begin("m")
	for _, chunk := range []string{"Hel", "lo wor", "ld."} {
		task, ok := f.p.AppendChunk("m", chunk)
		drain(f.p, task, ok)
		f.clk.Advance(30 * time.Millisecond)
	}
	f.p.MarkComplete("m")

	nodes := f.p.RenderedNodes("m")
	require.Len(t, nodes, 1)
	assert.Equal(t, unspool.KindParagraph, nodes[0].Kind)
	assert.Equal(t, "Hello world.", nodes[0].PlainText())
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, unspool.KindText, nodes[0].Children[0].Kind)
	assert.Empty(t, unspool.Literals(nodes))

	status, err := f.p.Status("m")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusComplete, status)
}

func TestPipeline_RevealLimitsTokenizerInput(t *testing.T) {
	t.Parallel()

	var seen []string
	tok := &mock.Tokenizer{TokenizeFn: func(b string) []unspool.Node {
		seen = append(seen, b)
		return nil
	}}
	f := newFixture(t, tok)
	f.p.Begin("m")
	task, ok := f.p.AppendChunk("m", "one two three")
	require.True(t, ok)
	f.p.RenderedNodes("m")
	assert.Empty(t, seen, "nothing revealed yet, nothing to tokenize")

	task, _ = f.p.RevealTick(task)
	f.p.RenderedNodes("m")
	f.p.RevealTick(task)
	f.p.RenderedNodes("m")
	assert.Equal(t, []string{"one", "one two"}, seen)
	assert.True(t, f.p.Revealing("m"))
}

func TestPipeline_LiteralBlockIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	f.p.Begin("m")
	task, ok := f.p.AppendChunk("m", "```py\nprint(1)")
	drain(f.p, task, ok)

	lits := unspool.Literals(f.p.RenderedNodes("m"))
	require.Len(t, lits, 1)
	assert.Equal(t, 0, lits[0].Ordinal)
	assert.Equal(t, "py", lits[0].Language)
	assert.Equal(t, "print(1)", lits[0].Text)
	assert.False(t, lits[0].Closed)

	assert.Equal(t, unspool.Expanded, f.p.ToggleBlock("m", 0))

	task, ok = f.p.AppendChunk("m", "\n```")
	drain(f.p, task, ok)
	f.p.MarkComplete("m")

	lits = unspool.Literals(f.p.RenderedNodes("m"))
	require.Len(t, lits, 1)
	assert.Equal(t, 0, lits[0].Ordinal)
	assert.Equal(t, "print(1)", lits[0].Text)
	assert.True(t, lits[0].Closed)
	assert.True(t, f.p.IsBlockExpanded("m", 0))
	assert.Equal(t, unspool.Expanded, f.p.BlockState("m", 0))
}

func TestPipeline_Coalescing(t *testing.T) {
	t.Parallel()

	calls := 0
	tok := &mock.Tokenizer{TokenizeFn: func(string) []unspool.Node {
		calls++
		return []unspool.Node{{Kind: unspool.KindParagraph}}
	}}
	f := newFixture(t, tok)
	f.p.Begin("m")
	f.p.Flush()
	f.p.HeightChanged()

	for range 10 {
		task, ok := f.p.AppendChunk("m", "word ")
		if ok {
			f.p.RevealTick(task)
		}
	}
	assert.Equal(t, 0, calls, "chunks never tokenize eagerly")
	assert.True(t, f.p.Dirty())

	assert.Equal(t, []string{"m"}, f.p.Flush())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, f.tokens)
	assert.False(t, f.p.Dirty())
	assert.Empty(t, f.p.Flush(), "nothing left to flush")

	for range 10 {
		f.content += 3
		f.p.HeightChanged()
	}
	assert.Equal(t, 1, f.follows, "one follow animation for the whole burst")
	for f.p.Frame(f.clk.now.Add(16 * time.Millisecond)) {
		f.clk.Advance(16 * time.Millisecond)
	}
	assert.InDelta(t, f.content-10, f.offset, 0)
}

func TestPipeline_FrozenViewportIgnoresGrowth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	f.p.Begin("m")
	f.content = 300
	f.p.HeightChanged()
	require.InDelta(t, 290, f.offset, 0)

	f.clk.Advance(time.Second)
	f.offset = 90
	f.p.OnViewportScroll(90)
	assert.Equal(t, unspool.Frozen, f.p.ScrollMode())
	assert.InDelta(t, 90, f.p.ScrollTarget(), 0)

	writes := f.writes
	f.p.AppendChunk("m", "more text")
	f.content += 20
	f.p.HeightChanged()
	assert.False(t, f.p.Frame(f.clk.now.Add(time.Second)))
	assert.Equal(t, writes, f.writes)

	f.p.RequestJumpToBottom()
	assert.Equal(t, unspool.Following, f.p.ScrollMode())
	assert.InDelta(t, 310, f.offset, 0)
}

func TestPipeline_GlobalExpansion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	f.p.Begin("m")
	f.p.AppendChunk("m", "```\na\n```\n\n```\nb\n```\n")
	f.p.MarkComplete("m")
	require.Len(t, unspool.Literals(f.p.RenderedNodes("m")), 2)

	f.p.ToggleBlock("m", 0)
	assert.True(t, f.p.IsBlockExpanded("m", 0))
	f.p.ToggleBlock("m", 1)
	assert.False(t, f.p.IsBlockExpanded("m", 0))
	assert.True(t, f.p.IsBlockExpanded("m", 1))
	f.p.ToggleBlock("m", 1)
	assert.False(t, f.p.IsBlockExpanded("m", 0))
	assert.False(t, f.p.IsBlockExpanded("m", 1))

	assert.Equal(t, unspool.Panel, f.p.OpenPanel("m", 0))
	assert.Equal(t, unspool.Panel, f.p.BlockState("m", 0))
	assert.False(t, f.p.IsBlockExpanded("m", 0))
}

func TestPipeline_LocalExpansion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New(), pipeline.WithStore(expansion.NewStore()))
	f.p.Begin("m")
	f.p.ToggleBlock("m", 0)
	f.p.ToggleBlock("m", 1)
	assert.True(t, f.p.IsBlockExpanded("m", 0))
	assert.True(t, f.p.IsBlockExpanded("m", 1))
}

func TestPipeline_MarkError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	f.p.Begin("m")
	task, ok := f.p.AppendChunk("m", "partial answer that")
	require.True(t, ok)
	task, ok = f.p.RevealTick(task)
	require.True(t, ok)

	boom := errors.New("connection reset")
	f.p.MarkError("m", boom)

	nodes := f.p.RenderedNodes("m")
	require.Len(t, nodes, 1)
	assert.Equal(t, "partial", nodes[0].PlainText(), "revealed text is kept")

	_, ok = f.p.RevealTick(task)
	assert.False(t, ok, "reveal halted")
	_, ok = f.p.AppendChunk("m", " more")
	assert.False(t, ok, "late chunk ignored")
	assert.Equal(t, "partial answer that", f.p.Text("m"))

	status, err := f.p.Status("m")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusErrored, status)
	assert.ErrorIs(t, f.p.Err("m"), boom)

	f.p.MarkComplete("m")
	status, _ = f.p.Status("m")
	assert.Equal(t, pipeline.StatusErrored, status, "terminal state is final")
}

func TestPipeline_Replace(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New(), pipeline.WithStore(expansion.NewStore()))
	f.p.Begin("a")
	f.p.Begin("b")
	old, _ := f.p.AppendChunk("a", "```\nx\n```")
	f.p.ToggleBlock("a", 0)
	f.p.ToggleBlock("b", 0)

	f.p.Replace("a")
	assert.Empty(t, f.p.RenderedNodes("a"))
	assert.Empty(t, f.p.Text("a"))
	assert.False(t, f.p.IsBlockExpanded("a", 0))
	assert.True(t, f.p.IsBlockExpanded("b", 0))
	_, ok := f.p.RevealTick(old)
	assert.False(t, ok, "task from before the replace is stale")

	status, _ := f.p.Status("a")
	assert.Equal(t, pipeline.StatusStreaming, status)
	_, ok = f.p.AppendChunk("a", "again")
	assert.True(t, ok)
}

func TestPipeline_Switch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	f.p.Begin("m")
	task, _ := f.p.AppendChunk("m", "```\ncode\n```")
	f.p.ToggleBlock("m", 0)
	f.content = 100
	f.p.HeightChanged()
	f.content = 200
	f.p.HeightChanged()

	f.p.Switch()
	assert.Empty(t, f.p.Messages())
	assert.False(t, f.p.IsBlockExpanded("m", 0))
	assert.False(t, f.p.Frame(f.clk.now.Add(time.Second)), "animation cancelled")

	_, ok := f.p.RevealTick(task)
	assert.False(t, ok)
	_, ok = f.p.AppendChunk("m", "late")
	assert.False(t, ok)
	assert.Nil(t, f.p.RenderedNodes("m"))

	_, err := f.p.Status("m")
	assert.ErrorIs(t, err, unspool.ErrUnknownMessage)

	f.p.Begin("n")
	f.content = 50
	f.p.HeightChanged()
	assert.InDelta(t, 40, f.offset, 0, "first load after switch jumps")
}

func TestPipeline_UnknownMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	assert.Equal(t, unspool.Collapsed, f.p.ToggleBlock("ghost", 0))
	assert.Equal(t, unspool.Collapsed, f.p.OpenPanel("ghost", 0))
	_, ok := f.p.AppendChunk("ghost", "x")
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		f.p.MarkComplete("ghost")
		f.p.MarkError("ghost", errors.New("x"))
		f.p.Replace("ghost")
	})
	assert.Empty(t, f.p.Messages())
}

func TestPipeline_Messages(t *testing.T) {
	t.Parallel()

	f := newFixture(t, goldmark.New())
	f.p.Begin("a")
	f.p.Begin("b")
	f.p.Begin("a")
	assert.Equal(t, []string{"a", "b"}, f.p.Messages())
}
