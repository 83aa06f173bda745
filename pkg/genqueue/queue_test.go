package genqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the queue sleeps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

type dispatch struct {
	payload string
	at      time.Time
}

func TestQueueRateLimitAndOrder(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()

	var mu sync.Mutex
	var seen []dispatch
	q := New("images", func(ctx context.Context, payload string) (string, error) {
		mu.Lock()
		seen = append(seen, dispatch{payload: payload, at: clock.Now()})
		mu.Unlock()
		return "result-" + payload, nil
	}, WithLimit(5, 60*time.Second), WithClock(clock), WithLogger(quietLogger()))

	futures := make([]*Future[string], 7)
	for i := range futures {
		futures[i] = q.Enqueue(fmt.Sprint(i + 1))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i, f := range futures {
		v, ok := f.Wait(ctx)
		require.True(t, ok, "task %d", i+1)
		assert.Equal(t, fmt.Sprintf("result-%d", i+1), v)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 7)
	for i, d := range seen {
		assert.Equal(t, fmt.Sprint(i+1), d.payload)
	}
	for _, d := range seen[:5] {
		assert.Equal(t, start, d.at)
	}
	assert.False(t, seen[5].at.Before(start.Add(60*time.Second)), "6th task dispatched inside the first window")
	assert.False(t, seen[6].at.Before(start.Add(60*time.Second)))

	require.Eventually(t, func() bool { return !q.Processing() }, time.Second, 5*time.Millisecond)
}

func TestQueueFailureResolvesNull(t *testing.T) {
	logger, hook := test.NewNullLogger()
	q := New("narration", func(ctx context.Context, payload string) (string, error) {
		switch payload {
		case "bad":
			return "", errors.New("upstream 500")
		case "panic":
			panic("boom")
		}
		return payload, nil
	}, WithLimit(100, time.Minute), WithClock(newFakeClock()), WithLogger(logger))

	bad := q.Enqueue("bad")
	boom := q.Enqueue("panic")
	good := q.Enqueue("good")

	ctx := context.Background()
	_, ok := bad.Wait(ctx)
	assert.False(t, ok)
	_, ok = boom.Wait(ctx)
	assert.False(t, ok)
	v, ok := good.Wait(ctx)
	assert.True(t, ok)
	assert.Equal(t, "good", v)

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
			assert.Equal(t, "narration", e.Data["queue"])
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestQueueSingleWorker(t *testing.T) {
	var running, maxRunning atomic.Int32
	q := New("serial", func(ctx context.Context, payload string) (int, error) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return len(payload), nil
	}, WithLimit(1000, time.Minute), WithLogger(quietLogger()))

	var wg sync.WaitGroup
	futures := make(chan *Future[int], 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			futures <- q.Enqueue("x")
		}()
	}
	wg.Wait()
	close(futures)

	for f := range futures {
		_, ok := f.Wait(context.Background())
		require.True(t, ok)
	}
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestQueueAbandonedWaitStillDrains(t *testing.T) {
	release := make(chan struct{})
	var ran atomic.Int32
	q := New("abandon", func(ctx context.Context, payload string) (string, error) {
		<-release
		ran.Add(1)
		return payload, nil
	}, WithLogger(quietLogger()))

	f := q.Enqueue("a")
	second := q.Enqueue("b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := f.Wait(ctx)
	assert.False(t, ok)

	close(release)
	<-second.Done()
	v, ok := f.Result()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, int32(2), ran.Load())
}

func TestQueueRealClockWindow(t *testing.T) {
	var mu sync.Mutex
	var times []time.Time
	q := New("real", func(ctx context.Context, payload string) (struct{}, error) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		return struct{}{}, nil
	}, WithLimit(2, 50*time.Millisecond), WithLogger(quietLogger()))

	var last *Future[struct{}]
	for i := 0; i < 3; i++ {
		last = q.Enqueue("p")
	}
	<-last.Done()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[2].Sub(times[0]), 45*time.Millisecond)
}

func TestQueueTaskTimeout(t *testing.T) {
	q := New("timeout", func(ctx context.Context, payload string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, WithTaskTimeout(10*time.Millisecond), WithLogger(quietLogger()))

	_, ok := q.Enqueue("slow").Wait(context.Background())
	assert.False(t, ok)
}

func TestQueueMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	q := New("metered", func(ctx context.Context, payload string) (string, error) {
		if payload == "fail" {
			return "", errors.New("nope")
		}
		return payload, nil
	}, WithMetrics(m), WithClock(newFakeClock()), WithLogger(quietLogger()))

	q.Enqueue("ok").Result()
	q.Enqueue("fail").Result()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("metered", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("metered", "failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.depth.WithLabelValues("metered")))
}
