package reactive

import (
	"sync"
	"time"

	"github.com/joeycumines/go-reactive/internal/drain"
	"github.com/joeycumines/go-reactive/scheduler"
)

// fireTimeout is shared by both timeout flavors: gen must still match the
// arbiter's current generation or the firing is stale (superseded by a
// newer item/selector already) and is silently ignored, per the
// generation-token race rule — an item arriving concurrently with a
// timeout firing always wins if it increments the generation first.
func fireTimeout[T any](arbiter *drain.FullArbiter[T], gen uint64, primarySub Subscription, fallback Producer[T]) {
	if arbiter.Gen() != gen {
		return
	}
	if fallback != nil {
		fallback.Subscribe(&timeoutFallback[T]{arbiter: arbiter})
		return
	}
	if primarySub != nil {
		primarySub.Cancel()
	}
	arbiter.EmitError(gen, &TimeoutError{Op: "timeout"})
}

type timeoutFallback[T any] struct {
	arbiter *drain.FullArbiter[T]
	gen     uint64
}

func (f *timeoutFallback[T]) OnSubscribe(sub Subscription) { f.gen = f.arbiter.SetActive(sub) }
func (f *timeoutFallback[T]) OnNext(v T)                   { f.arbiter.Emit(f.gen, v) }
func (f *timeoutFallback[T]) OnError(err error) {
	if !f.arbiter.EmitError(f.gen, err) {
		reportUndeliverable(err)
	}
}
func (f *timeoutFallback[T]) OnComplete() { f.arbiter.EmitComplete(f.gen) }

// TimeoutTimed fails (or switches to fallback) if no item arrives from
// src within duration of the previous item (or of subscription, for the
// first one). Each item re-arms a fresh one-shot timer tagged with the
// current generation.
func TimeoutTimed[T any](src Producer[T], duration time.Duration, worker scheduler.Worker, fallback Producer[T]) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		arbiter := drain.NewFullArbiter[T](c)
		c.OnSubscribe(arbiter)
		p := &timeoutTimedPrimary[T]{arbiter: arbiter, worker: worker, duration: duration, fallback: fallback}
		src.Subscribe(p)
	})
}

type timeoutTimedPrimary[T any] struct {
	arbiter  *drain.FullArbiter[T]
	worker   scheduler.Worker
	duration time.Duration
	fallback Producer[T]

	mu    sync.Mutex
	timer scheduler.Cancellable
	sub   Subscription
	gen   uint64
}

func (p *timeoutTimedPrimary[T]) OnSubscribe(sub Subscription) {
	p.sub = sub
	p.gen = p.arbiter.SetActive(sub)
	p.arm()
}

func (p *timeoutTimedPrimary[T]) arm() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Cancel()
	}
	gen := p.gen
	p.timer = p.worker.Schedule(func() {
		fireTimeout(p.arbiter, gen, p.sub, p.fallback)
	}, p.duration)
	p.mu.Unlock()
}

func (p *timeoutTimedPrimary[T]) disposeTimer() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Cancel()
	}
	p.mu.Unlock()
}

func (p *timeoutTimedPrimary[T]) OnNext(v T) {
	if p.arbiter.Emit(p.gen, v) {
		p.arm()
	}
}

func (p *timeoutTimedPrimary[T]) OnError(err error) {
	if !p.arbiter.EmitError(p.gen, err) {
		reportUndeliverable(err)
	}
	p.disposeTimer()
}

func (p *timeoutTimedPrimary[T]) OnComplete() {
	p.arbiter.EmitComplete(p.gen)
	p.disposeTimer()
}

// FirstTimeoutFunc yields the observable whose first signal (item or
// completion) means "timed out before the first upstream item arrived".
type FirstTimeoutFunc[U any] func() (Producer[U], error)

// ItemTimeoutFunc yields, for a given upstream item, the observable
// whose first signal means "timed out waiting for the next item".
type ItemTimeoutFunc[T, U any] func(T) (Producer[U], error)

// TimeoutSelector is the signal-driven flavor of timeout: instead of a
// fixed duration, each waiting period is bounded by a caller-supplied
// observable. If either selector panics or the function itself returns
// an error, downstream fails immediately (not routed through a fallback
// switch) since that is a construction-time failure, not a timeout.
func TimeoutSelector[T, U any](src Producer[T], firstTimeout FirstTimeoutFunc[U], itemTimeout ItemTimeoutFunc[T, U], fallback Producer[T]) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		arbiter := drain.NewFullArbiter[T](c)
		c.OnSubscribe(arbiter)

		if firstTimeout != nil {
			fp, err := callFirstTimeout(firstTimeout)
			if err != nil {
				arbiter.EmitError(arbiter.Gen(), err)
				return
			}
			if fp != nil {
				gen := arbiter.Gen()
				fp.Subscribe(&timeoutSignalConsumer[T, U]{arbiter: arbiter, gen: gen, fallback: fallback})
			}
		}

		p := &timeoutSelectorPrimary[T, U]{arbiter: arbiter, itemTimeout: itemTimeout, fallback: fallback}
		src.Subscribe(p)
	})
}

func callFirstTimeout[U any](fn FirstTimeoutFunc[U]) (p Producer[U], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("timeoutSelector", rec)
		}
	}()
	return fn()
}

type timeoutSelectorPrimary[T, U any] struct {
	arbiter     *drain.FullArbiter[T]
	itemTimeout ItemTimeoutFunc[T, U]
	fallback    Producer[T]

	mu            sync.Mutex
	sub           Subscription
	gen           uint64
	pendingSignal *timeoutSignalConsumer[T, U]
}

func (p *timeoutSelectorPrimary[T, U]) OnSubscribe(sub Subscription) {
	p.sub = sub
	p.gen = p.arbiter.SetActive(sub)
}

func (p *timeoutSelectorPrimary[T, U]) OnNext(v T) {
	if !p.arbiter.Emit(p.gen, v) {
		return
	}
	if p.itemTimeout == nil {
		return
	}
	fp, err := p.callItemTimeout(v)
	if err != nil {
		p.sub.Cancel()
		p.arbiter.EmitError(p.gen, err)
		return
	}
	sig := &timeoutSignalConsumer[T, U]{arbiter: p.arbiter, gen: p.gen, fallback: p.fallback, primarySub: p.sub}

	p.mu.Lock()
	prev := p.pendingSignal
	p.pendingSignal = sig
	p.mu.Unlock()
	if prev != nil {
		prev.cancelSelf()
	}
	fp.Subscribe(sig)
}

func (p *timeoutSelectorPrimary[T, U]) callItemTimeout(v T) (pr Producer[U], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("timeoutSelector", rec)
		}
	}()
	return p.itemTimeout(v)
}

func (p *timeoutSelectorPrimary[T, U]) OnError(err error) {
	if !p.arbiter.EmitError(p.gen, err) {
		reportUndeliverable(err)
	}
}

func (p *timeoutSelectorPrimary[T, U]) OnComplete() {
	p.arbiter.EmitComplete(p.gen)
}

type timeoutSignalConsumer[T, U any] struct {
	arbiter    *drain.FullArbiter[T]
	gen        uint64
	fallback   Producer[T]
	primarySub Subscription

	mu  sync.Mutex
	sub Subscription
}

func (s *timeoutSignalConsumer[T, U]) OnSubscribe(sub Subscription) {
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	sub.Request(1)
}

func (s *timeoutSignalConsumer[T, U]) OnNext(U)    { s.trigger() }
func (s *timeoutSignalConsumer[T, U]) OnComplete()  { s.trigger() }
func (s *timeoutSignalConsumer[T, U]) OnError(err error) {
	if !s.arbiter.EmitError(s.gen, err) {
		reportUndeliverable(err)
	}
}

func (s *timeoutSignalConsumer[T, U]) trigger() {
	fireTimeout(s.arbiter, s.gen, s.primarySub, s.fallback)
}

func (s *timeoutSignalConsumer[T, U]) cancelSelf() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}
