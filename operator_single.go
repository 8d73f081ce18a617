package reactive

// Single requires upstream to emit exactly one item: zero items or more
// than one are both protocol-level failures from the consumer's point of
// view, reported as a ProtocolViolationError rather than silently taking
// the first or last value.
func Single[T any](src Producer[T]) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		src.Subscribe(&singleConsumer[T]{downstream: c})
	})
}

type singleConsumer[T any] struct {
	downstream Consumer[T]
	upstream   Subscription

	have bool
	val  T
	done bool
}

func (s *singleConsumer[T]) OnSubscribe(sub Subscription) {
	s.upstream = sub
	s.downstream.OnSubscribe(noopSubscription{})
	sub.Request(Unbounded)
}

func (s *singleConsumer[T]) OnNext(v T) {
	if s.done {
		return
	}
	if s.have {
		s.done = true
		s.upstream.Cancel()
		s.downstream.OnError(&ProtocolViolationError{Op: "single", Message: "more than one item emitted"})
		return
	}
	s.have = true
	s.val = v
}

func (s *singleConsumer[T]) OnError(err error) {
	if s.done {
		return
	}
	s.done = true
	s.downstream.OnError(err)
}

func (s *singleConsumer[T]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	if !s.have {
		s.downstream.OnError(&ProtocolViolationError{Op: "single", Message: "no item emitted"})
		return
	}
	s.downstream.OnNext(s.val)
	s.downstream.OnComplete()
}
