package reactive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-reactive/scheduler"
)

// tickingProducer emits values from a background goroutine, spaced apart,
// and never completes on its own.
type tickingProducer struct {
	values []int
	gap    time.Duration
}

func (p tickingProducer) Subscribe(c Consumer[int]) {
	c.OnSubscribe(noopSubscription{})
	go func() {
		for _, v := range p.values {
			c.OnNext(v)
			time.Sleep(p.gap)
		}
	}()
}

func TestSampleTimed_EmitsLatestPerTick(t *testing.T) {
	w := scheduler.NewTrampoline().NewWorker()
	defer w.Dispose()

	c := newRecordingConsumer[int](Unbounded)
	SampleTimed[int](tickingProducer{values: []int{1, 2, 3}, gap: 2 * time.Millisecond}, 20*time.Millisecond, w, nil).Subscribe(c)

	assert.Eventually(t, func() bool {
		items, _, _ := c.snapshot()
		return len(items) > 0
	}, time.Second, time.Millisecond)

	items, _, _ := c.snapshot()
	assert.Equal(t, 3, items[len(items)-1])
}

func TestSampleTimed_BackpressureErrorWhenNoDemand(t *testing.T) {
	w := scheduler.NewTrampoline().NewWorker()
	defer w.Dispose()

	c := newRecordingConsumer[int](0)
	SampleTimed[int](tickingProducer{values: []int{1}, gap: time.Millisecond}, 10*time.Millisecond, w, nil).Subscribe(c)

	assert.Eventually(t, func() bool {
		_, err, _ := c.snapshot()
		return err != nil
	}, time.Second, time.Millisecond)

	_, err, _ := c.snapshot()
	var be *BackpressureError
	assert.ErrorAs(t, err, &be)
}

func TestSampleTimed_UpstreamCompletesImmediately(t *testing.T) {
	w := scheduler.NewTrampoline().NewWorker()
	defer w.Dispose()

	c := newRecordingConsumer[int](Unbounded)
	SampleTimed[int](Just(1), time.Second, w, nil).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Empty(t, items, "a value still pending when upstream completes is not emitted")
	assert.NoError(t, err)
	assert.True(t, completed)
}

func TestSampleTimed_RateLimitGuardsWritePath(t *testing.T) {
	w := scheduler.NewTrampoline().NewWorker()
	defer w.Dispose()

	limiter := catrate.NewLimiter(map[time.Duration]int{time.Second: 100})
	cfg := &SampleTimedConfig{RateLimit: limiter}

	c := newRecordingConsumer[int](Unbounded)
	SampleTimed[int](tickingProducer{values: []int{1, 2, 3}, gap: time.Millisecond}, 30*time.Millisecond, w, cfg).Subscribe(c)

	assert.Eventually(t, func() bool {
		items, _, _ := c.snapshot()
		return len(items) > 0
	}, time.Second, time.Millisecond)
}
