package reactive

import (
	"sync"

	"github.com/joeycumines/go-reactive/internal/drain"
	"github.com/joeycumines/go-reactive/internal/queue"
)

// ScanAccumulator folds a running state R and an upstream item T into the
// next R, or fails.
type ScanAccumulator[R, T any] func(R, T) (R, error)

// ScanSeed emits seed immediately, then accumulator(previous, item) for
// each upstream item. The seed consumes one unit of the first demand
// grant it sees rather than a unit of upstream demand — upstream only
// ever needs to supply the items, never the seed — so a downstream
// request(n) turns into an upstream request(n-1) the first time, and
// request(n) thereafter. A 2-slot queue (seed, plus at most one
// in-flight accumulated item) is enough since upstream never outruns
// what has already been requested.
func ScanSeed[T, R any](src Producer[T], seed R, acc ScanAccumulator[R, T]) Producer[R] {
	return ProducerFunc[R](func(c Consumer[R]) {
		s := &scanConsumer[T, R]{
			downstream: c,
			acc:        acc,
			current:    seed,
			queue:      queue.NewSPSC[R](2),
		}
		src.Subscribe(s)
	})
}

type scanConsumer[T, R any] struct {
	downstream Consumer[R]
	acc        ScanAccumulator[R, T]
	current    R
	upstream   Subscription
	queue      *queue.SPSC[R]
	wip        drain.WIP

	mu            sync.Mutex
	demand        int64
	seedRequested bool
	cancelled     bool

	terminalMu sync.Mutex
	hasErr     bool
	err        error
	complete   bool
	delivered  bool
}

func (s *scanConsumer[T, R]) OnSubscribe(sub Subscription) {
	s.upstream = sub
	s.queue.Offer(s.current)
	s.downstream.OnSubscribe(s)
}

func (s *scanConsumer[T, R]) Request(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.demand = AddCap(s.demand, n)
	first := !s.seedRequested
	s.seedRequested = true
	s.mu.Unlock()

	if first {
		if n > 1 {
			s.upstream.Request(n - 1)
		}
	} else {
		s.upstream.Request(n)
	}
	s.drain()
}

func (s *scanConsumer[T, R]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	s.upstream.Cancel()
}

func (s *scanConsumer[T, R]) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *scanConsumer[T, R]) OnNext(t T) {
	r, err := s.callAcc(t)
	if err != nil {
		s.terminalMu.Lock()
		if !s.hasErr && !s.complete {
			s.hasErr = true
			s.err = err
		}
		s.terminalMu.Unlock()
		s.upstream.Cancel()
		s.drain()
		return
	}
	s.current = r
	s.queue.Offer(r)
	s.drain()
}

func (s *scanConsumer[T, R]) callAcc(t T) (r R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("scanSeed", rec)
		}
	}()
	return s.acc(s.current, t)
}

func (s *scanConsumer[T, R]) OnError(err error) {
	s.terminalMu.Lock()
	if !s.hasErr && !s.complete {
		s.hasErr = true
		s.err = err
	}
	s.terminalMu.Unlock()
	s.drain()
}

func (s *scanConsumer[T, R]) OnComplete() {
	s.terminalMu.Lock()
	if !s.hasErr && !s.complete {
		s.complete = true
	}
	s.terminalMu.Unlock()
	s.drain()
}

func (s *scanConsumer[T, R]) drain() {
	if !s.wip.Signal() {
		return
	}
	missed := int64(1)
	for {
		s.mu.Lock()
		d := s.demand
		s.mu.Unlock()

		for d > 0 {
			if s.isCancelled() {
				return
			}
			v, ok := s.queue.Poll()
			if !ok {
				break
			}
			s.downstream.OnNext(v)
			d--
			s.mu.Lock()
			s.demand--
			s.mu.Unlock()
		}

		if s.isCancelled() {
			return
		}
		if s.queue.IsEmpty() {
			s.terminalMu.Lock()
			hasErr, err, complete, delivered := s.hasErr, s.err, s.complete, s.delivered
			if (hasErr || complete) && !delivered {
				s.delivered = true
			}
			s.terminalMu.Unlock()
			if !delivered {
				if hasErr {
					s.downstream.OnError(err)
					return
				}
				if complete {
					s.downstream.OnComplete()
					return
				}
			}
		}

		missed = s.wip.Release(missed)
		if missed == 0 {
			return
		}
	}
}
