package reactive

import (
	"sync"

	"github.com/joeycumines/go-reactive/internal/drain"
	"github.com/joeycumines/go-reactive/internal/queue"
)

// ConcatMapFunc maps an upstream item to the inner Producer to subscribe
// to next.
type ConcatMapFunc[T, R any] func(T) (Producer[R], error)

// ConcatMap subscribes to inners strictly sequentially: the next inner
// is not subscribed until the previous one has terminated. prefetch
// bounds how many outer items the operator buffers ahead of the inner
// currently running, keeping upstream's request cadence independent of
// how quickly inners complete. Re-entrant drain calls — an inner that
// completes synchronously inside its own Subscribe, which happens
// inside this operator's own drain loop — are collapsed by a missed
// counter rather than recursed into, so a long run of synchronously
// completing inners (e.g. concatMap over ten thousand just(...) sources)
// never grows the call stack.
func ConcatMap[T, R any](src Producer[T], prefetch int64, fn ConcatMapFunc[T, R]) Producer[R] {
	if prefetch <= 0 {
		prefetch = 1
	}
	return ProducerFunc[R](func(c Consumer[R]) {
		cm := &concatMapConsumer[T, R]{downstream: c, fn: fn, prefetch: prefetch, queue: queue.NewSPSC[T](int(prefetch))}
		src.Subscribe(cm)
	})
}

type concatMapConsumer[T, R any] struct {
	downstream Consumer[R]
	fn         ConcatMapFunc[T, R]
	upstream   Subscription
	prefetch   int64
	queue      *queue.SPSC[T]
	wip        drain.WIP

	mu         sync.Mutex
	active     bool
	innerSub   Subscription
	demand     int64
	cancelled  bool
	upstreamUp bool // upstream has completed, no more outer items will arrive
	terminal   bool
	err        error
	hasErr     bool
}

func (cm *concatMapConsumer[T, R]) OnSubscribe(sub Subscription) {
	cm.upstream = sub
	cm.downstream.OnSubscribe(cm)
	sub.Request(cm.prefetch)
}

func (cm *concatMapConsumer[T, R]) Request(n int64) {
	if n <= 0 {
		return
	}
	cm.mu.Lock()
	cm.demand = AddCap(cm.demand, n)
	inner := cm.innerSub
	cm.mu.Unlock()
	if inner != nil {
		inner.Request(n)
	}
	cm.drain()
}

func (cm *concatMapConsumer[T, R]) Cancel() {
	cm.mu.Lock()
	cm.cancelled = true
	inner := cm.innerSub
	cm.mu.Unlock()
	cm.upstream.Cancel()
	if inner != nil {
		inner.Cancel()
	}
}

func (cm *concatMapConsumer[T, R]) OnNext(t T) {
	cm.queue.Offer(t)
	cm.drain()
}

func (cm *concatMapConsumer[T, R]) OnError(err error) {
	cm.mu.Lock()
	if cm.terminal {
		cm.mu.Unlock()
		return
	}
	cm.hasErr = true
	cm.err = err
	cm.mu.Unlock()
	cm.drain()
}

func (cm *concatMapConsumer[T, R]) OnComplete() {
	cm.mu.Lock()
	cm.upstreamUp = true
	cm.mu.Unlock()
	cm.drain()
}

func (cm *concatMapConsumer[T, R]) drain() {
	if !cm.wip.Signal() {
		return
	}
	missed := int64(1)
	for {
		cm.mu.Lock()
		if cm.cancelled {
			cm.mu.Unlock()
			return
		}
		if cm.hasErr && !cm.active {
			cm.terminal = true
			err := cm.err
			cm.mu.Unlock()
			cm.upstream.Cancel()
			cm.downstream.OnError(err)
			return
		}
		if !cm.active {
			v, ok := cm.queue.Poll()
			if ok {
				cm.active = true
				cm.mu.Unlock()
				cm.subscribeNext(v)
				cm.mu.Lock()
				if !cm.upstreamUp && !cm.cancelled {
					cm.mu.Unlock()
					cm.upstream.Request(1)
				} else {
					cm.mu.Unlock()
				}
			} else if cm.upstreamUp {
				cm.terminal = true
				cm.mu.Unlock()
				cm.downstream.OnComplete()
				return
			} else {
				cm.mu.Unlock()
			}
		} else {
			cm.mu.Unlock()
		}

		missed = cm.wip.Release(missed)
		if missed == 0 {
			return
		}
	}
}

func (cm *concatMapConsumer[T, R]) subscribeNext(t T) {
	inner, err := cm.callFn(t)
	if err != nil {
		cm.mu.Lock()
		cm.hasErr = true
		cm.err = err
		cm.active = false
		cm.mu.Unlock()
		return
	}
	inner.Subscribe(&concatMapInner[T, R]{coord: cm})
}

func (cm *concatMapConsumer[T, R]) callFn(t T) (p Producer[R], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("concatMap", rec)
		}
	}()
	return cm.fn(t)
}

type concatMapInner[T, R any] struct {
	coord *concatMapConsumer[T, R]
}

func (i *concatMapInner[T, R]) OnSubscribe(sub Subscription) {
	c := i.coord
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		sub.Cancel()
		return
	}
	c.innerSub = sub
	d := c.demand
	c.mu.Unlock()
	if d > 0 {
		sub.Request(d)
	}
}

func (i *concatMapInner[T, R]) OnNext(v R) {
	c := i.coord
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	if c.demand != Unbounded && c.demand > 0 {
		c.demand--
	}
	c.mu.Unlock()
	c.downstream.OnNext(v)
}

func (i *concatMapInner[T, R]) OnError(err error) {
	c := i.coord
	c.mu.Lock()
	c.hasErr = true
	c.err = err
	c.active = false
	c.innerSub = nil
	c.mu.Unlock()
	c.drain()
}

func (i *concatMapInner[T, R]) OnComplete() {
	c := i.coord
	c.mu.Lock()
	c.active = false
	c.innerSub = nil
	c.mu.Unlock()
	c.drain()
}
