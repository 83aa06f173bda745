// Package genqueue serializes calls to rate-limited generation APIs.
//
// A Queue runs one worker goroutine at a time. Tasks are dispatched in
// enqueue order, and at most Limit tasks are dispatched per Window. The
// window is a reset counter: it restarts once Window has elapsed since it
// opened, and when the counter is full the worker sleeps until the boundary.
package genqueue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

// Worker performs one unit of work. An error resolves the task as null.
type Worker[T any] func(ctx context.Context, payload string) (T, error)

type task[T any] struct {
	payload  string
	future   *Future[T]
	enqueued time.Time
}

// Queue is a FIFO, rate-limited task runner. Queues are independent; each
// holds its own window state.
type Queue[T any] struct {
	name        string
	work        Worker[T]
	limit       int
	window      time.Duration
	taskTimeout time.Duration
	clock       Clock
	log         logrus.FieldLogger
	metrics     *Metrics

	mu          sync.Mutex
	pending     []task[T]
	processing  bool
	windowStart time.Time
	count       int
}

// Option configures a Queue.
type Option func(*config)

type config struct {
	limit       int
	window      time.Duration
	taskTimeout time.Duration
	clock       Clock
	log         logrus.FieldLogger
	metrics     *Metrics
}

// WithLimit sets the number of dispatches allowed per window.
func WithLimit(n int, window time.Duration) Option {
	return func(c *config) {
		if n > 0 {
			c.limit = n
		}
		if window > 0 {
			c.window = window
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithLogger sets the logger used for task failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) { c.log = log }
}

// WithMetrics records queue activity on m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithTaskTimeout bounds each task. Zero means no bound.
func WithTaskTimeout(d time.Duration) Option {
	return func(c *config) { c.taskTimeout = d }
}

// New creates a queue named name that runs work for every payload.
func New[T any](name string, work Worker[T], opts ...Option) *Queue[T] {
	c := config{
		limit:  DefaultLimit,
		window: DefaultWindow,
		clock:  RealClock{},
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(&c)
	}
	return &Queue[T]{
		name:        name,
		work:        work,
		limit:       c.limit,
		window:      c.window,
		taskTimeout: c.taskTimeout,
		clock:       c.clock,
		log:         c.log.WithField("queue", name),
		metrics:     c.metrics,
	}
}

// Enqueue adds payload to the queue and starts the worker if it is idle.
// The returned future resolves once the task has run.
func (q *Queue[T]) Enqueue(payload string) *Future[T] {
	f := newFuture[T]()

	q.mu.Lock()
	q.pending = append(q.pending, task[T]{payload: payload, future: f, enqueued: q.clock.Now()})
	q.metrics.setDepth(q.name, len(q.pending))
	start := !q.processing
	q.processing = true
	q.mu.Unlock()

	if start {
		go q.run()
	}
	return f
}

// Len returns the number of tasks waiting for dispatch.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Processing reports whether the worker is running.
func (q *Queue[T]) Processing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

func (q *Queue[T]) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}

		now := q.clock.Now()
		if q.windowStart.IsZero() || now.Sub(q.windowStart) >= q.window {
			q.windowStart = now
			q.count = 0
		}
		if q.count >= q.limit {
			wait := q.window - now.Sub(q.windowStart)
			q.mu.Unlock()

			q.log.WithField("wait", wait).Debug("rate limit reached, waiting for next window")
			q.metrics.observeThrottle(q.name)
			q.clock.Sleep(wait)
			continue
		}

		t := q.pending[0]
		q.pending[0] = task[T]{}
		q.pending = q.pending[1:]
		q.count++
		q.metrics.setDepth(q.name, len(q.pending))
		q.mu.Unlock()

		q.dispatch(t)
	}
}

func (q *Queue[T]) dispatch(t task[T]) {
	ctx := context.Background()
	if q.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.taskTimeout)
		defer cancel()
	}

	q.metrics.observeWait(q.name, q.clock.Now().Sub(t.enqueued))

	v, err := q.call(ctx, t.payload)
	if err != nil {
		q.log.WithError(err).Warn("generation task failed")
		q.metrics.observeResult(q.name, false)
		t.future.resolve(v, false)
		return
	}
	q.metrics.observeResult(q.name, true)
	t.future.resolve(v, true)
}

// call runs the worker and reports a panic as a task failure.
func (q *Queue[T]) call(ctx context.Context, payload string) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, &PanicError{Value: r}
		}
	}()
	return q.work(ctx, payload)
}
