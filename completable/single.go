package completable

import "github.com/joeycumines/go-reactive"

// SingleConsumer receives exactly one terminal event: OnSuccess carries
// the stream's one value, OnError a failure; never both, and never more
// than one, after exactly one OnSubscribe.
type SingleConsumer[T any] interface {
	OnSubscribe(Subscription)
	OnSuccess(T)
	OnError(error)
}

// SingleProducer is the Single's producer half.
type SingleProducer[T any] interface {
	Subscribe(SingleConsumer[T])
}

// SingleProducerFunc adapts a plain function to a SingleProducer.
type SingleProducerFunc[T any] func(SingleConsumer[T])

func (f SingleProducerFunc[T]) Subscribe(c SingleConsumer[T]) { f(c) }

// Just returns a SingleProducer that succeeds immediately with v.
func Just[T any](v T) SingleProducer[T] {
	return SingleProducerFunc[T](func(c SingleConsumer[T]) {
		c.OnSubscribe(noopSubscription{})
		c.OnSuccess(v)
	})
}

// Fail returns a SingleProducer that fails immediately with err.
func Fail[T any](err error) SingleProducer[T] {
	return SingleProducerFunc[T](func(c SingleConsumer[T]) {
		c.OnSubscribe(noopSubscription{})
		c.OnError(err)
	})
}

// FromFullStream adapts a full reactive.Producer[T] into a Single by
// running it through the root package's own exactly-one-value operator
// (reactive.Single) and republishing that operator's OnNext/OnComplete
// pair as a single OnSuccess — the bridge a caller uses when a full
// stream is already known (or required) to carry exactly one item, such
// as the result of a reduce/first/last style pipeline.
func FromFullStream[T any](src reactive.Producer[T]) SingleProducer[T] {
	return SingleProducerFunc[T](func(c SingleConsumer[T]) {
		reactive.Single(src).Subscribe(&singleBridge[T]{downstream: c})
	})
}

type singleBridge[T any] struct {
	downstream SingleConsumer[T]
	done       bool
}

func (b *singleBridge[T]) OnSubscribe(sub reactive.Subscription) {
	b.downstream.OnSubscribe(subscriptionAdapter{sub})
	sub.Request(reactive.Unbounded)
}

func (b *singleBridge[T]) OnNext(v T) {
	if b.done {
		return
	}
	b.done = true
	b.downstream.OnSuccess(v)
}

func (b *singleBridge[T]) OnError(err error) {
	if b.done {
		return
	}
	b.done = true
	b.downstream.OnError(err)
}

// OnComplete is a no-op: reactive.Single already guarantees exactly one
// OnNext precedes its OnComplete, so OnNext above is where OnSuccess is
// actually delivered.
func (b *singleBridge[T]) OnComplete() {}

// Map transforms a successful value, the Single analogue of operator_map.
func Map[T, U any](src SingleProducer[T], f func(T) U) SingleProducer[U] {
	return SingleProducerFunc[U](func(c SingleConsumer[U]) {
		src.Subscribe(&mapSingleConsumer[T, U]{downstream: c, f: f})
	})
}

type mapSingleConsumer[T, U any] struct {
	downstream SingleConsumer[U]
	f          func(T) U
}

func (m *mapSingleConsumer[T, U]) OnSubscribe(sub Subscription) { m.downstream.OnSubscribe(sub) }

func (m *mapSingleConsumer[T, U]) OnSuccess(v T) {
	out, err := recoverMap(m.f, v)
	if err != nil {
		m.downstream.OnError(err)
		return
	}
	m.downstream.OnSuccess(out)
}

func (m *mapSingleConsumer[T, U]) OnError(err error) { m.downstream.OnError(err) }

func recoverMap[T, U any](f func(T) U, v T) (out U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &reactive.PanicError{Op: "completable.Map", Value: r}
		}
	}()
	return f(v), nil
}

// FlatMap subscribes to the SingleProducer f produces from src's value,
// forwarding whichever terminal event that inner Single produces. The
// downstream's OnSubscribe fires exactly once, from src's subscription
// (the Single analogue of completable.AndThen's andThenTail: the inner
// subscription is installed without a second OnSubscribe call, since a
// SingleConsumer's contract allows only one).
func FlatMap[T, U any](src SingleProducer[T], f func(T) SingleProducer[U]) SingleProducer[U] {
	return SingleProducerFunc[U](func(c SingleConsumer[U]) {
		src.Subscribe(&flatMapSingleConsumer[T, U]{downstream: c, f: f})
	})
}

// flatMapSubRef is the shared, non-generic cancellable slot threaded
// between a flatMapSingleConsumer and its flatMapSingleTail, so the tail
// can swap in the inner subscription without needing the consumer's full
// (possibly different) type parameters.
type flatMapSubRef struct {
	sub       Subscription
	cancelled bool
}

func (r *flatMapSubRef) Cancel() {
	r.cancelled = true
	if r.sub != nil {
		r.sub.Cancel()
	}
}

type flatMapSingleConsumer[T, U any] struct {
	downstream SingleConsumer[U]
	f          func(T) SingleProducer[U]
	ref        flatMapSubRef
}

func (m *flatMapSingleConsumer[T, U]) OnSubscribe(sub Subscription) {
	m.ref.sub = sub
	m.downstream.OnSubscribe(&m.ref)
}

func (m *flatMapSingleConsumer[T, U]) OnSuccess(v T) {
	next, err := recoverFlatMap(m.f, v)
	if err != nil {
		m.downstream.OnError(err)
		return
	}
	next.Subscribe(&flatMapSingleTail[U]{downstream: m.downstream, ref: &m.ref})
}

func (m *flatMapSingleConsumer[T, U]) OnError(err error) { m.downstream.OnError(err) }

// flatMapSingleTail relays the inner Single's terminal event to the
// shared downstream without re-invoking its OnSubscribe, swapping the
// shared cancellable subscription reference instead (the Single analogue
// of completable.AndThen's andThenTail).
type flatMapSingleTail[U any] struct {
	downstream SingleConsumer[U]
	ref        *flatMapSubRef
}

func (t *flatMapSingleTail[U]) OnSubscribe(sub Subscription) {
	t.ref.sub = sub
	if t.ref.cancelled {
		sub.Cancel()
	}
}
func (t *flatMapSingleTail[U]) OnSuccess(v U)     { t.downstream.OnSuccess(v) }
func (t *flatMapSingleTail[U]) OnError(err error) { t.downstream.OnError(err) }

func recoverFlatMap[T, U any](f func(T) SingleProducer[U], v T) (out SingleProducer[U], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &reactive.PanicError{Op: "completable.FlatMap", Value: r}
		}
	}()
	return f(v), nil
}
