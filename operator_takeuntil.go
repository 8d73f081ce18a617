package reactive

import "sync"

// TakeUntil mirrors primary until other produces its first item or
// terminates, at which point the result completes (or errors, if other
// errored) and both subscriptions are torn down. If other terminates
// before primary has even subscribed, primary is cancelled the instant
// it does subscribe and the result delivers an onSubscribe/onComplete
// pair with nothing in between — the "seen-onSubscribe" race named in
// the coordination contract.
func TakeUntil[T, U any](primary Producer[T], other Producer[U]) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		coord := &takeUntilCoordinator[T, U]{downstream: c}
		other.Subscribe(&takeUntilOther[T, U]{coord: coord})
		primary.Subscribe(&takeUntilPrimary[T, U]{coord: coord})
	})
}

type takeUntilCoordinator[T, U any] struct {
	downstream Consumer[T]

	mu          sync.Mutex
	primarySub  Subscription
	otherSub    Subscription
	primarySeen bool
	done        bool
}

// Request and Cancel implement Subscription: this coordinator is itself
// handed to downstream (not primary's raw subscription), so a downstream
// Cancel tears down both primarySub and otherSub — the "shared 2-slot
// composite cancellation handle" spec §4.3.3 requires, rather than
// leaking otherSub the way forwarding primary's bare Subscription would.
func (co *takeUntilCoordinator[T, U]) Request(n int64) {
	if n <= 0 {
		return
	}
	co.mu.Lock()
	primarySub := co.primarySub
	co.mu.Unlock()
	if primarySub != nil {
		primarySub.Request(n)
	}
}

func (co *takeUntilCoordinator[T, U]) Cancel() {
	co.mu.Lock()
	if co.done {
		co.mu.Unlock()
		return
	}
	co.done = true
	primarySub := co.primarySub
	otherSub := co.otherSub
	co.mu.Unlock()
	if primarySub != nil {
		primarySub.Cancel()
	}
	if otherSub != nil {
		otherSub.Cancel()
	}
}

func (co *takeUntilCoordinator[T, U]) terminate(err error) {
	co.mu.Lock()
	if co.done {
		co.mu.Unlock()
		return
	}
	co.done = true
	seen := co.primarySeen
	primarySub := co.primarySub
	otherSub := co.otherSub
	co.mu.Unlock()

	if primarySub != nil {
		primarySub.Cancel()
	}
	if otherSub != nil {
		otherSub.Cancel()
	}
	if !seen {
		co.downstream.OnSubscribe(noopSubscription{})
	}
	if err != nil {
		co.downstream.OnError(err)
	} else {
		co.downstream.OnComplete()
	}
}

type takeUntilOther[T, U any] struct {
	coord *takeUntilCoordinator[T, U]
}

func (o *takeUntilOther[T, U]) OnSubscribe(sub Subscription) {
	o.coord.mu.Lock()
	o.coord.otherSub = sub
	o.coord.mu.Unlock()
	sub.Request(1)
}

func (o *takeUntilOther[T, U]) OnNext(U)         { o.coord.terminate(nil) }
func (o *takeUntilOther[T, U]) OnError(err error) { o.coord.terminate(err) }
func (o *takeUntilOther[T, U]) OnComplete()        { o.coord.terminate(nil) }

type takeUntilPrimary[T, U any] struct {
	coord *takeUntilCoordinator[T, U]
}

func (p *takeUntilPrimary[T, U]) OnSubscribe(sub Subscription) {
	p.coord.mu.Lock()
	if p.coord.done {
		p.coord.mu.Unlock()
		sub.Cancel()
		return
	}
	p.coord.primarySub = sub
	p.coord.primarySeen = true
	p.coord.mu.Unlock()
	p.coord.downstream.OnSubscribe(p.coord)
}

func (p *takeUntilPrimary[T, U]) OnNext(v T) {
	p.coord.mu.Lock()
	done := p.coord.done
	p.coord.mu.Unlock()
	if done {
		return
	}
	p.coord.downstream.OnNext(v)
}

func (p *takeUntilPrimary[T, U]) OnError(err error) {
	p.coord.mu.Lock()
	if p.coord.done {
		p.coord.mu.Unlock()
		return
	}
	p.coord.done = true
	otherSub := p.coord.otherSub
	p.coord.mu.Unlock()
	if otherSub != nil {
		otherSub.Cancel()
	}
	p.coord.downstream.OnError(err)
}

func (p *takeUntilPrimary[T, U]) OnComplete() {
	p.coord.mu.Lock()
	if p.coord.done {
		p.coord.mu.Unlock()
		return
	}
	p.coord.done = true
	otherSub := p.coord.otherSub
	p.coord.mu.Unlock()
	if otherSub != nil {
		otherSub.Cancel()
	}
	p.coord.downstream.OnComplete()
}
