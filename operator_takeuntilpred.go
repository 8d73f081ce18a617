package reactive

// TakeUntilPredicate mirrors upstream until fn reports true for an item,
// emitting that triggering item and then completing — an inclusive cutoff,
// matching the "other=just(100)" style fixtures in spec.md §8 where the
// boundary item itself is expected downstream before termination.
func TakeUntilPredicate[T any](src Producer[T], fn PredicateFunc[T]) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		src.Subscribe(&takeUntilPredConsumer[T]{downstream: c, fn: fn})
	})
}

type takeUntilPredConsumer[T any] struct {
	downstream Consumer[T]
	fn         PredicateFunc[T]
	upstream   Subscription
	done       bool
}

func (t *takeUntilPredConsumer[T]) OnSubscribe(sub Subscription) {
	t.upstream = sub
	t.downstream.OnSubscribe(sub)
}

func (t *takeUntilPredConsumer[T]) OnNext(v T) {
	if t.done {
		return
	}
	stop, err := t.callFn(v)
	if err != nil {
		t.done = true
		t.upstream.Cancel()
		t.downstream.OnError(err)
		return
	}
	t.downstream.OnNext(v)
	if stop {
		t.done = true
		t.upstream.Cancel()
		t.downstream.OnComplete()
	}
}

func (t *takeUntilPredConsumer[T]) callFn(v T) (stop bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("takeUntilPredicate", rec)
		}
	}()
	return t.fn(v)
}

func (t *takeUntilPredConsumer[T]) OnError(err error) {
	if t.done {
		return
	}
	t.done = true
	t.downstream.OnError(err)
}

func (t *takeUntilPredConsumer[T]) OnComplete() {
	if t.done {
		return
	}
	t.done = true
	t.downstream.OnComplete()
}
