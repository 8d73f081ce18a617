package reactive

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intervalForeverProducer models an "infinite" inner: once requested, it
// emits tag*1000+n on a ticking goroutine until cancelled, and never
// completes on its own — the shape spec.md §8.9's switchMap scenario needs
// to prove that a superseded inner really does stop, not just that
// downstream ignores its output.
type intervalForeverProducer struct {
	tag   int
	delay time.Duration

	mu  sync.Mutex
	sub *intervalForeverSub
}

func (p *intervalForeverProducer) Subscribe(c Consumer[int]) {
	s := &intervalForeverSub{tag: p.tag, delay: p.delay, c: c}
	p.mu.Lock()
	p.sub = s
	p.mu.Unlock()
	c.OnSubscribe(s)
}

func (p *intervalForeverProducer) cancelled() bool {
	p.mu.Lock()
	s := p.sub
	p.mu.Unlock()
	if s == nil {
		return false
	}
	return s.isCancelled()
}

type intervalForeverSub struct {
	tag   int
	delay time.Duration
	c     Consumer[int]

	mu        sync.Mutex
	started   bool
	cancelled bool
}

func (s *intervalForeverSub) Request(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go func() {
		for i := 1; ; i++ {
			time.Sleep(s.delay)
			if s.isCancelled() {
				return
			}
			s.c.OnNext(s.tag*1000 + i)
		}
	}()
}

func (s *intervalForeverSub) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *intervalForeverSub) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func TestSwitchMap_SwitchesToLatestInnerAndCancelsPrevious(t *testing.T) {
	i1 := &intervalForeverProducer{tag: 1, delay: 5 * time.Millisecond}
	i2 := &intervalForeverProducer{tag: 2, delay: 5 * time.Millisecond}

	c := newRecordingConsumer[int](Unbounded)
	SwitchMap[int, int](FromIterable([]int{1, 2}), func(v int) (Producer[int], error) {
		if v == 1 {
			return i1, nil
		}
		return i2, nil
	}).Subscribe(c)

	require.Eventually(t, func() bool {
		items, _, _ := c.snapshot()
		return len(items) >= 2
	}, time.Second, time.Millisecond)

	items, _, _ := c.snapshot()
	for _, v := range items {
		assert.GreaterOrEqual(t, v, 2000, "downstream must see items from the second inner only")
	}
	assert.True(t, i1.cancelled(), "the first inner must be cancelled once superseded")
}

func TestSwitchMap_InnerErrorPropagatesAndCancelsUpstream(t *testing.T) {
	boom := assert.AnError
	upstream := &cancelTrackingProducer[int]{}
	src := ProducerFunc[int](func(c Consumer[int]) {
		upstream.Subscribe(c)
		c.OnNext(1)
	})
	c := newRecordingConsumer[int](Unbounded)
	SwitchMap[int, int](src, func(v int) (Producer[int], error) {
		return Err[int](boom), nil
	}).Subscribe(c)

	_, err, completed := c.snapshot()
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
	assert.True(t, upstream.isCancelled(), "an inner error must cancel the upstream")
}

func TestSwitchMap_FnErrorPropagates(t *testing.T) {
	boom := assert.AnError
	c := newRecordingConsumer[int](Unbounded)
	SwitchMap[int, int](Just(1), func(v int) (Producer[int], error) {
		return nil, boom
	}).Subscribe(c)

	_, err, completed := c.snapshot()
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
}

func TestSwitchMap_CompletesAfterUpstreamAndLastInnerBothFinish(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	SwitchMap[int, int](FromIterable([]int{1, 2, 3}), func(v int) (Producer[int], error) {
		return Just(v * 10), nil
	}).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.Equal(t, []int{10, 20, 30}, items)
	assert.True(t, completed)
}
