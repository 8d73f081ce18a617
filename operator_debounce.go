package reactive

import (
	"sync"

	"github.com/joeycumines/go-reactive/internal/drain"
)

// DebounceSelectorFunc yields, for an upstream item, the observable
// whose first signal ends that item's debounce window.
type DebounceSelectorFunc[T, U any] func(T) (Producer[U], error)

// DebounceWithSelector emits upstream item t only once no newer item has
// arrived by the time selector(t)'s observable produces its first
// signal (item or completion) — a per-item debounce window rather than a
// fixed duration, so selector can itself be time-based, signal-based, or
// anything else. Upstream completion flushes whatever debounce window
// was still pending rather than discarding it.
func DebounceWithSelector[T, U any](src Producer[T], selector DebounceSelectorFunc[T, U]) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		coord := &debounceCoordinator[T, U]{downstream: c, selector: selector}
		coord.out = drain.NewHalfSerializer[T](c)
		src.Subscribe(coord)
	})
}

type debounceCoordinator[T, U any] struct {
	downstream Consumer[T]
	out        *drain.HalfSerializer[T]
	selector   DebounceSelectorFunc[T, U]
	upstream   Subscription

	mu           sync.Mutex
	latestIdx    uint64
	firedIdx     uint64
	pendingValue T
	demand       int64
	doneTerminal bool
}

func (co *debounceCoordinator[T, U]) OnSubscribe(sub Subscription) {
	co.upstream = sub
	co.downstream.OnSubscribe(co)
	sub.Request(Unbounded)
}

func (co *debounceCoordinator[T, U]) Request(n int64) {
	if n <= 0 {
		return
	}
	co.mu.Lock()
	co.demand = AddCap(co.demand, n)
	co.mu.Unlock()
}

func (co *debounceCoordinator[T, U]) Cancel() {
	co.mu.Lock()
	co.doneTerminal = true
	co.mu.Unlock()
	co.upstream.Cancel()
}

func (co *debounceCoordinator[T, U]) OnNext(t T) {
	co.mu.Lock()
	if co.doneTerminal {
		co.mu.Unlock()
		return
	}
	co.latestIdx++
	idx := co.latestIdx
	co.pendingValue = t
	co.mu.Unlock()

	p, err := co.callSelector(t)
	if err != nil {
		co.failWith(err)
		return
	}
	p.Subscribe(&debouncerInner[T, U]{coord: co, idx: idx, value: t})
}

func (co *debounceCoordinator[T, U]) callSelector(t T) (p Producer[U], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("debounceWithSelector", rec)
		}
	}()
	return co.selector(t)
}

func (co *debounceCoordinator[T, U]) tryEmit(idx uint64, v T) {
	co.mu.Lock()
	if co.doneTerminal || idx != co.latestIdx || idx == co.firedIdx {
		co.mu.Unlock()
		return
	}
	co.firedIdx = idx
	demand := co.demand
	co.mu.Unlock()

	if demand <= 0 {
		co.failWith(&BackpressureError{Op: "debounceWithSelector"})
		return
	}
	co.mu.Lock()
	co.demand--
	co.mu.Unlock()
	co.out.OnNext(v)
}

func (co *debounceCoordinator[T, U]) failWith(err error) {
	co.mu.Lock()
	if co.doneTerminal {
		co.mu.Unlock()
		return
	}
	co.doneTerminal = true
	co.mu.Unlock()
	co.upstream.Cancel()
	co.out.OnError(err)
}

func (co *debounceCoordinator[T, U]) OnError(err error) {
	co.failWith(err)
}

func (co *debounceCoordinator[T, U]) OnComplete() {
	co.mu.Lock()
	if co.doneTerminal {
		co.mu.Unlock()
		return
	}
	co.doneTerminal = true
	idx := co.latestIdx
	v := co.pendingValue
	alreadyFired := idx == co.firedIdx
	if !alreadyFired {
		co.firedIdx = idx
	}
	demand := co.demand
	co.mu.Unlock()

	if !alreadyFired && idx != 0 {
		if demand <= 0 {
			co.out.OnError(&BackpressureError{Op: "debounceWithSelector"})
			return
		}
		co.mu.Lock()
		co.demand--
		co.mu.Unlock()
		co.out.OnNext(v)
	}
	co.out.OnComplete()
}

type debouncerInner[T, U any] struct {
	coord *debounceCoordinator[T, U]
	idx   uint64
	value T
}

func (d *debouncerInner[T, U]) OnSubscribe(sub Subscription) { sub.Request(1) }
func (d *debouncerInner[T, U]) OnNext(U)                      { d.coord.tryEmit(d.idx, d.value) }
func (d *debouncerInner[T, U]) OnComplete()                   { d.coord.tryEmit(d.idx, d.value) }
func (d *debouncerInner[T, U]) OnError(err error)             { d.coord.failWith(err) }
