package genqueue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the queue collectors. A nil *Metrics records nothing.
type Metrics struct {
	tasks     *prometheus.CounterVec
	throttled *prometheus.CounterVec
	depth     *prometheus.GaugeVec
	wait      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckgen",
			Subsystem: "queue",
			Name:      "tasks_total",
			Help:      "Generation tasks processed, by outcome.",
		}, []string{"queue", "outcome"}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckgen",
			Subsystem: "queue",
			Name:      "throttled_total",
			Help:      "Times the worker paused at a rate-limit window boundary.",
		}, []string{"queue"}),
		depth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "deckgen",
			Subsystem: "queue",
			Name:      "pending",
			Help:      "Tasks waiting for dispatch.",
		}, []string{"queue"}),
		wait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "deckgen",
			Subsystem: "queue",
			Name:      "wait_seconds",
			Help:      "Time from enqueue to dispatch.",
			Buckets:   []float64{0.01, 0.1, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"queue"}),
	}
	if reg != nil {
		reg.MustRegister(m.tasks, m.throttled, m.depth, m.wait)
	}
	return m
}

func (m *Metrics) setDepth(queue string, n int) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues(queue).Set(float64(n))
}

func (m *Metrics) observeThrottle(queue string) {
	if m == nil {
		return
	}
	m.throttled.WithLabelValues(queue).Inc()
}

func (m *Metrics) observeWait(queue string, d time.Duration) {
	if m == nil {
		return
	}
	m.wait.WithLabelValues(queue).Observe(d.Seconds())
}

func (m *Metrics) observeResult(queue string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.tasks.WithLabelValues(queue, outcome).Inc()
}
