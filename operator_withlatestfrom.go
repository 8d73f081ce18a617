package reactive

import "sync"

// WithLatestCombiner merges a primary item with the most recent secondary
// item into an R, or fails.
type WithLatestCombiner[A, B, R any] func(A, B) (R, error)

// WithLatestFrom emits combiner(a, latestB) for each primary item a, as
// long as secondary has produced at least one value; primary items seen
// before secondary's first value are dropped (not buffered, not
// requested-for twice — dropping still costs a primary demand unit, so
// the primary side requests one more to compensate, same as Filter).
// Secondary is requested unboundedly. Secondary completing does not end
// the result; secondary erroring does, and cancels primary. Either
// primary terminal event cancels secondary.
func WithLatestFrom[A, B, R any](primary Producer[A], secondary Producer[B], combiner WithLatestCombiner[A, B, R]) Producer[R] {
	return ProducerFunc[R](func(c Consumer[R]) {
		coord := &withLatestCoordinator[A, B, R]{downstream: c, combiner: combiner}
		secondary.Subscribe(&withLatestSecondary[A, B, R]{coord: coord})
		primary.Subscribe(&withLatestPrimary[A, B, R]{coord: coord})
	})
}

type withLatestCoordinator[A, B, R any] struct {
	downstream Consumer[R]
	combiner   WithLatestCombiner[A, B, R]

	primarySub   Subscription
	secondarySub Subscription

	mu        sync.Mutex
	hasLatest bool
	latest    B
	done      bool
}

func (w *withLatestCoordinator[A, B, R]) cancelAll() {
	if w.primarySub != nil {
		w.primarySub.Cancel()
	}
	if w.secondarySub != nil {
		w.secondarySub.Cancel()
	}
}

func (w *withLatestCoordinator[A, B, R]) finish(terminate func()) {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return
	}
	w.done = true
	w.mu.Unlock()
	terminate()
}

// Request and Cancel implement Subscription: the coordinator itself is
// handed to downstream (not primary's raw subscription), so a downstream
// Cancel tears down both primarySub and secondarySub instead of leaking
// the secondary subscription.
func (w *withLatestCoordinator[A, B, R]) Request(n int64) {
	if n <= 0 {
		return
	}
	if w.primarySub != nil {
		w.primarySub.Request(n)
	}
}

func (w *withLatestCoordinator[A, B, R]) Cancel() {
	w.finish(w.cancelAll)
}

type withLatestPrimary[A, B, R any] struct {
	coord *withLatestCoordinator[A, B, R]
}

func (p *withLatestPrimary[A, B, R]) OnSubscribe(sub Subscription) {
	p.coord.mu.Lock()
	p.coord.primarySub = sub
	done := p.coord.done
	p.coord.mu.Unlock()
	if done {
		// The secondary already ended the result (it is subscribed first
		// and may fail synchronously), so primary is released at once.
		sub.Cancel()
		return
	}
	p.coord.downstream.OnSubscribe(p.coord)
}

func (p *withLatestPrimary[A, B, R]) OnNext(a A) {
	c := p.coord
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	if !c.hasLatest {
		c.mu.Unlock()
		c.primarySub.Request(1)
		return
	}
	b := c.latest
	c.mu.Unlock()

	r, err := p.callCombiner(a, b)
	if err != nil {
		c.finish(func() {
			c.cancelAll()
			c.downstream.OnError(err)
		})
		return
	}
	c.downstream.OnNext(r)
}

func (p *withLatestPrimary[A, B, R]) callCombiner(a A, b B) (r R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("withLatestFrom", rec)
		}
	}()
	return p.coord.combiner(a, b)
}

func (p *withLatestPrimary[A, B, R]) OnError(err error) {
	p.coord.finish(func() {
		p.coord.cancelAll()
		p.coord.downstream.OnError(err)
	})
}

func (p *withLatestPrimary[A, B, R]) OnComplete() {
	p.coord.finish(func() {
		p.coord.cancelAll()
		p.coord.downstream.OnComplete()
	})
}

type withLatestSecondary[A, B, R any] struct {
	coord *withLatestCoordinator[A, B, R]
}

func (s *withLatestSecondary[A, B, R]) OnSubscribe(sub Subscription) {
	s.coord.secondarySub = sub
	sub.Request(Unbounded)
}

func (s *withLatestSecondary[A, B, R]) OnNext(b B) {
	c := s.coord
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.hasLatest = true
	c.latest = b
	c.mu.Unlock()
}

func (s *withLatestSecondary[A, B, R]) OnError(err error) {
	s.coord.finish(func() {
		s.coord.cancelAll()
		s.coord.downstream.OnError(err)
	})
}

func (s *withLatestSecondary[A, B, R]) OnComplete() {
	// Secondary completing doesn't end the result; just stop expecting
	// further updates to latest.
}
