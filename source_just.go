package reactive

// Just creates a Producer that emits exactly one item then completes.
// Named after spec.md §8 scenario 6's "other=just(100)" fallback idiom —
// a one-item source is needed by enough of the testable scenarios that it
// earns its own constructor rather than always going through FromIterable.
func Just[T any](v T) Producer[T] {
	return FromIterable([]T{v})
}

// Empty creates a Producer that emits nothing and completes on its
// subscriber's first Request with n > 0,
// used throughout spec.md §8's algebraic laws (e.g. concat(a, empty) = a).
func Empty[T any]() Producer[T] {
	return FromIterable[T](nil)
}

// Err creates a Producer that immediately errors without emitting.
func Err[T any](err error) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		c.OnSubscribe(noopSubscription{})
		c.OnError(err)
	})
}

// Never creates a Producer that neither emits nor terminates. It's used
// to build fixtures for timeout/takeUntil/switchMap scenarios where the
// test needs an upstream that simply never does anything on its own.
func Never[T any]() Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		c.OnSubscribe(noopSubscription{})
	})
}
