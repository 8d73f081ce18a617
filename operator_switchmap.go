package reactive

import (
	"sync"

	"github.com/joeycumines/go-reactive/internal/drain"
)

// SwitchMapFunc produces the inner Producer to switch to for a given
// upstream item.
type SwitchMapFunc[T, R any] func(T) (Producer[R], error)

// SwitchMap maps each upstream item to an inner Producer and always
// follows the most recent one: as soon as a new inner is installed, the
// previous inner is cancelled and every generation-tagged signal it was
// still mid-flight on is dropped on arrival. Upstream is requested
// unboundedly the first time downstream requests anything; downstream
// demand gates only the inner-item drain, not the upstream item rate,
// since switching is driven by upstream arrival, not by backpressure.
func SwitchMap[T, R any](src Producer[T], fn SwitchMapFunc[T, R]) Producer[R] {
	return ProducerFunc[R](func(c Consumer[R]) {
		sw := &switchMapConsumer[T, R]{downstream: drain.NewSerializedConsumer[R](c), fn: fn}
		src.Subscribe(sw)
	})
}

// switchMapConsumer serializes every downstream-facing call through
// drain.SerializedConsumer: a still-draining old inner (cancellation is
// advisory, not synchronous) and a freshly-installed inner that emits
// synchronously can each reach OnNext from a different goroutine, and
// without serialization that races I1 (serial delivery) the same way
// combineLatestCoordinator, concatMapConsumer, and debounce's co all guard
// against for their own multi-source fan-in.
type switchMapConsumer[T, R any] struct {
	downstream *drain.SerializedConsumer[R]
	fn         SwitchMapFunc[T, R]
	upstream   Subscription

	mu           sync.Mutex
	gen          uint64
	activeInner  Subscription
	demand       int64
	requestedUp  bool
	cancelled    bool
	done         bool
	upstreamDone bool
}

func (s *switchMapConsumer[T, R]) OnSubscribe(sub Subscription) {
	s.upstream = sub
	s.downstream.OnSubscribe(s)
}

func (s *switchMapConsumer[T, R]) Request(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.demand = AddCap(s.demand, n)
	first := !s.requestedUp
	s.requestedUp = true
	s.mu.Unlock()
	if first {
		s.upstream.Request(Unbounded)
	}
	s.mu.Lock()
	inner := s.activeInner
	s.mu.Unlock()
	if inner != nil {
		inner.Request(n)
	}
}

func (s *switchMapConsumer[T, R]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	inner := s.activeInner
	s.mu.Unlock()
	s.upstream.Cancel()
	if inner != nil {
		inner.Cancel()
	}
}

func (s *switchMapConsumer[T, R]) OnNext(t T) {
	s.mu.Lock()
	if s.done || s.cancelled {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	inner, err := s.callFn(t)
	if err != nil {
		s.failOnce(err, true)
		return
	}

	s.mu.Lock()
	if s.done || s.cancelled {
		s.mu.Unlock()
		return
	}
	if s.activeInner != nil {
		s.activeInner.Cancel()
	}
	s.gen++
	myGen := s.gen
	pending := s.demand
	s.mu.Unlock()

	inner.Subscribe(&switchMapInner[T, R]{coord: s, gen: myGen})
	if pending > 0 {
		s.mu.Lock()
		if s.gen == myGen && s.activeInner != nil {
			a := s.activeInner
			s.mu.Unlock()
			a.Request(pending)
		} else {
			s.mu.Unlock()
		}
	}
}

func (s *switchMapConsumer[T, R]) callFn(t T) (p Producer[R], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("switchMap", rec)
		}
	}()
	return s.fn(t)
}

func (s *switchMapConsumer[T, R]) failOnce(err error, cancelUpstream bool) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	inner := s.activeInner
	s.mu.Unlock()
	if cancelUpstream {
		s.upstream.Cancel()
	}
	if inner != nil {
		inner.Cancel()
	}
	s.downstream.OnError(err)
}

func (s *switchMapConsumer[T, R]) OnError(err error) {
	s.failOnce(err, false)
}

func (s *switchMapConsumer[T, R]) OnComplete() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	inner := s.activeInner
	s.mu.Unlock()
	if inner == nil {
		s.downstream.OnComplete()
		return
	}
	// An active inner is still running; completion is deferred to when
	// that inner itself completes (see switchMapInner.OnComplete), since
	// switchMap's observable result is exhausted only once the final
	// inner has finished emitting.
	s.mu.Lock()
	s.upstreamDone = true
	s.mu.Unlock()
}

type switchMapInner[T, R any] struct {
	coord *switchMapConsumer[T, R]
	gen   uint64
}

func (i *switchMapInner[T, R]) OnSubscribe(sub Subscription) {
	c := i.coord
	c.mu.Lock()
	if c.gen != i.gen || c.cancelled || c.done {
		c.mu.Unlock()
		sub.Cancel()
		return
	}
	c.activeInner = sub
	demand := c.demand
	c.mu.Unlock()
	if demand > 0 {
		sub.Request(demand)
	}
}

func (i *switchMapInner[T, R]) OnNext(v R) {
	c := i.coord
	c.mu.Lock()
	if c.gen != i.gen || c.done || c.cancelled {
		c.mu.Unlock()
		return
	}
	if c.demand != Unbounded && c.demand > 0 {
		c.demand--
	}
	c.mu.Unlock()
	c.downstream.OnNext(v)
}

func (i *switchMapInner[T, R]) OnError(err error) {
	c := i.coord
	c.mu.Lock()
	if c.gen != i.gen {
		c.mu.Unlock()
		reportUndeliverable(err)
		return
	}
	c.mu.Unlock()
	c.failOnce(err, true)
}

func (i *switchMapInner[T, R]) OnComplete() {
	c := i.coord
	c.mu.Lock()
	if c.gen != i.gen {
		c.mu.Unlock()
		return
	}
	c.activeInner = nil
	upstreamDone := c.upstreamDone
	done := c.done
	c.mu.Unlock()
	if upstreamDone && !done {
		c.mu.Lock()
		c.done = true
		c.mu.Unlock()
		c.downstream.OnComplete()
	}
}
