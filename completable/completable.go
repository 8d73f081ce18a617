// Package completable provides the no-value and single-value stream
// variants spec.md §2.9 calls for: Completable (a stream that never emits
// an item, only a terminal event) and Single (exactly one value, or an
// error — see single.go). Both are structurally similar to the root
// reactive package's Producer/Consumer contract but with a deliberately
// simplified terminal-event shape: there is no backpressure to model
// (there is at most one thing ever to deliver), so Subscription here
// carries only Cancel, not Request.
package completable

import "github.com/joeycumines/go-reactive"

// Subscription is the handle a Completable's Consumer receives: cancel
// only, since a stream with at most one terminal event has no demand to
// account for.
type Subscription interface {
	Cancel()
}

// Consumer receives exactly one terminal event: OnError or OnComplete,
// never both, after exactly one OnSubscribe.
type Consumer interface {
	OnSubscribe(Subscription)
	OnError(error)
	OnComplete()
}

// Producer is the Completable's producer half.
type Producer interface {
	Subscribe(Consumer)
}

// ProducerFunc adapts a plain function to a Producer.
type ProducerFunc func(Consumer)

func (f ProducerFunc) Subscribe(c Consumer) { f(c) }

type noopSubscription struct{}

func (noopSubscription) Cancel() {}

// Complete returns a Producer that completes immediately.
func Complete() Producer {
	return ProducerFunc(func(c Consumer) {
		c.OnSubscribe(noopSubscription{})
		c.OnComplete()
	})
}

// Error returns a Producer that fails immediately with err.
func Error(err error) Producer {
	return ProducerFunc(func(c Consumer) {
		c.OnSubscribe(noopSubscription{})
		c.OnError(err)
	})
}

// Never returns a Producer that neither completes nor errors.
func Never() Producer {
	return ProducerFunc(func(c Consumer) {
		c.OnSubscribe(noopSubscription{})
	})
}

// FromReactive adapts a full reactive.Producer[T] into a Completable by
// discarding every item and forwarding only the terminal event — the
// bridge a caller uses to run a full stream purely for its side effects
// (e.g. draining a window, or a concatMap chain) when only completion is
// interesting.
func FromReactive[T any](src reactive.Producer[T]) Producer {
	return ProducerFunc(func(c Consumer) {
		src.Subscribe(&reactiveBridge[T]{downstream: c})
	})
}

type reactiveBridge[T any] struct {
	downstream Consumer
	sub        reactive.Subscription
	done       bool
}

func (b *reactiveBridge[T]) OnSubscribe(sub reactive.Subscription) {
	b.sub = sub
	b.downstream.OnSubscribe(subscriptionAdapter{sub})
	sub.Request(reactive.Unbounded)
}

func (b *reactiveBridge[T]) OnNext(T) {}

func (b *reactiveBridge[T]) OnError(err error) {
	if b.done {
		return
	}
	b.done = true
	b.downstream.OnError(err)
}

func (b *reactiveBridge[T]) OnComplete() {
	if b.done {
		return
	}
	b.done = true
	b.downstream.OnComplete()
}

// subscriptionAdapter narrows a reactive.Subscription down to
// completable.Subscription (Cancel only) for bridged sources.
type subscriptionAdapter struct {
	sub reactive.Subscription
}

func (a subscriptionAdapter) Cancel() { a.sub.Cancel() }

// AndThen subscribes to next only once first completes; an error from
// first short-circuits and is forwarded without ever subscribing to
// next, the Completable analogue of concatMap over two stages.
func AndThen(first, next Producer) Producer {
	return ProducerFunc(func(c Consumer) {
		coord := &andThenCoordinator{downstream: c, next: next}
		first.Subscribe(coord)
	})
}

type andThenCoordinator struct {
	downstream Consumer
	next       Producer
	sub        Subscription
	cancelled  bool
}

func (a *andThenCoordinator) OnSubscribe(sub Subscription) {
	a.sub = sub
	a.downstream.OnSubscribe(a)
}

func (a *andThenCoordinator) Cancel() {
	a.cancelled = true
	if a.sub != nil {
		a.sub.Cancel()
	}
}

func (a *andThenCoordinator) OnError(err error) {
	a.downstream.OnError(err)
}

func (a *andThenCoordinator) OnComplete() {
	if a.cancelled {
		return
	}
	a.next.Subscribe(&andThenTail{downstream: a.downstream, parent: a})
}

type andThenTail struct {
	downstream Consumer
	parent     *andThenCoordinator
}

func (t *andThenTail) OnSubscribe(sub Subscription) {
	t.parent.sub = sub
	if t.parent.cancelled {
		sub.Cancel()
	}
}
func (t *andThenTail) OnError(err error) { t.downstream.OnError(err) }
func (t *andThenTail) OnComplete()       { t.downstream.OnComplete() }
