package reactive

// MapFunc transforms a T into an R, or reports failure via a non-nil
// error; per I3, the core does not need a separate "returned null" case in
// Go since R is a real, distinct return value — only the error slot
// represents "this function could not produce a value".
type MapFunc[T, R any] func(T) (R, error)

// Map applies fn to each item. Demand passes straight through to upstream
// (one item in, at most one item out), so Map's Subscription is just the
// upstream Subscription itself — there's no state machine here beyond
// forwarding and the "cancel upstream, error once" path on fn failure.
func Map[T, R any](src Producer[T], fn MapFunc[T, R]) Producer[R] {
	return ProducerFunc[R](func(c Consumer[R]) {
		src.Subscribe(&mapConsumer[T, R]{downstream: c, fn: fn})
	})
}

type mapConsumer[T, R any] struct {
	downstream Consumer[R]
	fn         MapFunc[T, R]
	upstream   Subscription
	done       bool
}

func (m *mapConsumer[T, R]) OnSubscribe(sub Subscription) {
	m.upstream = sub
	m.downstream.OnSubscribe(sub)
}

func (m *mapConsumer[T, R]) OnNext(v T) {
	if m.done {
		return
	}
	r, err := m.callFn(v)
	if err != nil {
		m.done = true
		m.upstream.Cancel()
		m.downstream.OnError(err)
		return
	}
	m.downstream.OnNext(r)
}

func (m *mapConsumer[T, R]) callFn(v T) (r R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("map", rec)
		}
	}()
	return m.fn(v)
}

func (m *mapConsumer[T, R]) OnError(err error) {
	if m.done {
		return
	}
	m.done = true
	m.downstream.OnError(err)
}

func (m *mapConsumer[T, R]) OnComplete() {
	if m.done {
		return
	}
	m.done = true
	m.downstream.OnComplete()
}
