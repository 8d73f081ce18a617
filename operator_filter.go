package reactive

// PredicateFunc reports whether v should pass, or fails with err.
type PredicateFunc[T any] func(T) (bool, error)

// Filter passes through only items for which fn returns true. Because a
// dropped item still consumed one unit of upstream demand without
// satisfying any of downstream's, Filter must request one more from
// upstream per drop to keep I5 satisfied (downstream's cumulative demand
// must still bound cumulative onNext, but upstream's pipe has to keep
// flowing or downstream would stall waiting for items that were silently
// discarded).
func Filter[T any](src Producer[T], fn PredicateFunc[T]) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		src.Subscribe(&filterConsumer[T]{downstream: c, fn: fn})
	})
}

type filterConsumer[T any] struct {
	downstream Consumer[T]
	fn         PredicateFunc[T]
	upstream   Subscription
	done       bool
}

func (f *filterConsumer[T]) OnSubscribe(sub Subscription) {
	f.upstream = sub
	f.downstream.OnSubscribe(sub)
}

func (f *filterConsumer[T]) OnNext(v T) {
	if f.done {
		return
	}
	ok, err := f.callFn(v)
	if err != nil {
		f.done = true
		f.upstream.Cancel()
		f.downstream.OnError(err)
		return
	}
	if !ok {
		f.upstream.Request(1)
		return
	}
	f.downstream.OnNext(v)
}

func (f *filterConsumer[T]) callFn(v T) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("filter", rec)
		}
	}()
	return f.fn(v)
}

func (f *filterConsumer[T]) OnError(err error) {
	if f.done {
		return
	}
	f.done = true
	f.downstream.OnError(err)
}

func (f *filterConsumer[T]) OnComplete() {
	if f.done {
		return
	}
	f.done = true
	f.downstream.OnComplete()
}
