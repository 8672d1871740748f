// Package prometheus implements [unspool.Recorder] with Prometheus metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/fwojciec/unspool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "unspool"

// TokenizeBuckets are the histogram buckets for tokenization latency, in
// seconds. Re-tokenization runs once per frame so anything past a frame
// period matters.
var TokenizeBuckets = []float64{.0005, .001, .0025, .005, .01, .016, .033, .1}

// Interface compliance check.
var _ unspool.Recorder = (*Recorder)(nil)

// Recorder exports pipeline callbacks as metrics.
type Recorder struct {
	tokenize   prometheus.Histogram
	nodes      prometheus.Gauge
	follows    prometheus.Counter
	modes      *prometheus.CounterVec
	following  prometheus.Gauge
	revealRate prometheus.Gauge
}

// New registers the metrics with reg and returns a Recorder updating them.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	r := &Recorder{
		tokenize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tokenize_duration_seconds",
			Help:      "Time spent re-tokenizing one message.",
			Buckets:   TokenizeBuckets,
		}),
		nodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tokenize_nodes",
			Help:      "Block nodes produced by the latest tokenization.",
		}),
		follows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "follow_animations_total",
			Help:      "Follow-scroll animations started.",
		}),
		modes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scroll_mode_changes_total",
			Help:      "Scroll mode transitions by the mode entered.",
		}, []string{"mode"}),
		following: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scroll_following",
			Help:      "1 while the viewport follows new content, 0 while frozen.",
		}),
		revealRate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reveal_rate",
			Help:      "Latest reveal rate in units per second.",
		}),
	}
	r.following.Set(1)
	return r
}

func (r *Recorder) Tokenized(_ string, nodes int, elapsed time.Duration) {
	r.tokenize.Observe(elapsed.Seconds())
	r.nodes.Set(float64(nodes))
}

func (r *Recorder) FollowStarted() {
	r.follows.Inc()
}

func (r *Recorder) ModeChanged(mode unspool.ScrollMode) {
	r.modes.WithLabelValues(mode.String()).Inc()
	if mode == unspool.Following {
		r.following.Set(1)
	} else {
		r.following.Set(0)
	}
}

func (r *Recorder) RevealRate(_ string, rate float64) {
	r.revealRate.Set(rate)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
