package reactive

import (
	"sync"

	"github.com/joeycumines/go-reactive/compositeerror"
	"github.com/joeycumines/go-reactive/internal/drain"
)

// CombineLatestCombiner folds one snapshot (one value per source, in
// source order) into a result.
type CombineLatestCombiner[T, R any] func(snapshot []T) (R, error)

// combineLatestItem is a queued (source index, full snapshot) pair; the
// index tells the drain loop which source to re-request from once the
// snapshot has been delivered.
type combineLatestItem[T any] struct {
	idx      int
	snapshot []T
}

// CombineLatest subscribes to every source concurrently, each pre-
// requesting bufferSize, and applies combiner to a fresh snapshot of
// "latest value per source" every time any source produces a value,
// once every source has produced at least one. If delayError is true,
// queued snapshots still drain after an upstream error before the
// aggregated composite error is reported; otherwise the first error
// short-circuits immediately. A source that completes having never
// produced a value ends the whole combination (no snapshot can ever be
// complete), discarding any buffered snapshots.
func CombineLatest[T, R any](sources []Producer[T], bufferSize int64, delayError bool, combiner CombineLatestCombiner[T, R]) Producer[R] {
	return ProducerFunc[R](func(c Consumer[R]) {
		n := len(sources)
		coord := &combineLatestCoordinator[T, R]{
			downstream: c,
			combiner:   combiner,
			delayError: delayError,
			n:          n,
			subs:       make([]Subscription, n),
			latest:     make([]T, n),
			hasValue:   make([]bool, n),
		}
		c.OnSubscribe(coord)
		for i, src := range sources {
			src.Subscribe(&combineLatestSource[T, R]{coord: coord, idx: i, bufferSize: bufferSize})
		}
	})
}

type combineLatestCoordinator[T, R any] struct {
	downstream Consumer[R]
	combiner   CombineLatestCombiner[T, R]
	delayError bool
	n          int

	mu         sync.Mutex
	subs       []Subscription
	latest     []T
	hasValue   []bool
	active     int
	completed  int
	allDone    bool
	errs       *compositeerror.Error
	queue      []combineLatestItem[T]
	done       bool
	demand     int64
	cancelled  bool

	wip drain.WIP
}

func (co *combineLatestCoordinator[T, R]) Request(n int64) {
	if n <= 0 {
		return
	}
	co.mu.Lock()
	co.demand = AddCap(co.demand, n)
	co.mu.Unlock()
	co.drain()
}

func (co *combineLatestCoordinator[T, R]) Cancel() {
	co.mu.Lock()
	co.cancelled = true
	subs := append([]Subscription(nil), co.subs...)
	co.mu.Unlock()
	for _, s := range subs {
		if s != nil {
			s.Cancel()
		}
	}
}

func (co *combineLatestCoordinator[T, R]) cancelAll() {
	co.mu.Lock()
	subs := append([]Subscription(nil), co.subs...)
	co.mu.Unlock()
	for _, s := range subs {
		if s != nil {
			s.Cancel()
		}
	}
}

func (co *combineLatestCoordinator[T, R]) onSourceNext(idx int, v T) {
	co.mu.Lock()
	if co.done || co.cancelled {
		co.mu.Unlock()
		return
	}
	if !co.hasValue[idx] {
		co.hasValue[idx] = true
		co.active++
	}
	co.latest[idx] = v
	if co.active < co.n {
		sub := co.subs[idx]
		co.mu.Unlock()
		if sub != nil {
			sub.Request(1)
		}
		return
	}
	snapshot := append([]T(nil), co.latest...)
	co.queue = append(co.queue, combineLatestItem[T]{idx: idx, snapshot: snapshot})
	co.mu.Unlock()
	co.drain()
}

func (co *combineLatestCoordinator[T, R]) onSourceComplete(idx int) {
	co.mu.Lock()
	if co.done || co.cancelled {
		co.mu.Unlock()
		return
	}
	if !co.hasValue[idx] {
		co.done = true
		errs := co.errs
		co.mu.Unlock()
		co.cancelAll()
		if errs != nil {
			co.downstream.OnError(errs)
		} else {
			co.downstream.OnComplete()
		}
		return
	}
	co.completed++
	if co.completed == co.n {
		co.allDone = true
	}
	co.mu.Unlock()
	co.drain()
}

func (co *combineLatestCoordinator[T, R]) onSourceError(err error) {
	co.mu.Lock()
	if co.done || co.cancelled {
		co.mu.Unlock()
		return
	}
	co.errs = co.errs.Append(err)
	if !co.delayError {
		co.done = true
		co.mu.Unlock()
		co.cancelAll()
		co.downstream.OnError(co.errs)
		return
	}
	co.completed++
	if co.completed == co.n {
		co.allDone = true
	}
	co.mu.Unlock()
	co.drain()
}

func (co *combineLatestCoordinator[T, R]) drain() {
	if !co.wip.Signal() {
		return
	}
	missed := int64(1)
	for {
		co.mu.Lock()
		d := co.demand
		co.mu.Unlock()

		for d > 0 {
			if co.isCancelledOrDone() {
				return
			}
			co.mu.Lock()
			if len(co.queue) == 0 {
				co.mu.Unlock()
				break
			}
			item := co.queue[0]
			co.queue = co.queue[1:]
			co.mu.Unlock()

			r, err := co.callCombiner(item.snapshot)
			if err != nil {
				co.mu.Lock()
				co.done = true
				co.mu.Unlock()
				co.cancelAll()
				co.downstream.OnError(err)
				return
			}
			co.downstream.OnNext(r)
			d--
			co.mu.Lock()
			co.demand--
			sub := co.subs[item.idx]
			co.mu.Unlock()
			if sub != nil {
				sub.Request(1)
			}
		}

		if co.isCancelledOrDone() {
			return
		}

		co.mu.Lock()
		ready := len(co.queue) == 0 && co.allDone && !co.done
		if ready {
			co.done = true
		}
		errs := co.errs
		co.mu.Unlock()
		if ready {
			if errs != nil {
				co.downstream.OnError(errs)
			} else {
				co.downstream.OnComplete()
			}
			return
		}

		missed = co.wip.Release(missed)
		if missed == 0 {
			return
		}
	}
}

func (co *combineLatestCoordinator[T, R]) isCancelledOrDone() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.cancelled || co.done
}

func (co *combineLatestCoordinator[T, R]) callCombiner(snapshot []T) (r R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("combineLatest", rec)
		}
	}()
	return co.combiner(snapshot)
}

type combineLatestSource[T, R any] struct {
	coord      *combineLatestCoordinator[T, R]
	idx        int
	bufferSize int64
}

func (s *combineLatestSource[T, R]) OnSubscribe(sub Subscription) {
	s.coord.mu.Lock()
	s.coord.subs[s.idx] = sub
	s.coord.mu.Unlock()
	sub.Request(s.bufferSize)
}

func (s *combineLatestSource[T, R]) OnNext(v T)  { s.coord.onSourceNext(s.idx, v) }
func (s *combineLatestSource[T, R]) OnError(err error) { s.coord.onSourceError(err) }
func (s *combineLatestSource[T, R]) OnComplete()       { s.coord.onSourceComplete(s.idx) }
