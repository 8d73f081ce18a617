package drain

import "sync"

type kind int

const (
	kindNext kind = iota
	kindError
	kindComplete
)

type notification[T any] struct {
	kind kind
	item T
	err  error
}

// SerializedConsumer wraps a downstream Consumer and guarantees I1 (serial
// delivery) under concurrent upstream goroutines: a single-bit "emitting"
// flag plus an append-only overflow queue under a per-instance lock,
// exactly as spec.md §4.1 describes. A goroutine that finds emitting=false
// transitions it to true, emits inline, drains any accumulated overflow,
// then releases; every other concurrent caller just appends and returns.
// Terminal events take precedence: once one is recorded, the overflow is
// discarded (not delivered — a protocol-correct upstream never emits past
// a terminal event) and the consumer shuts down.
type SerializedConsumer[T any] struct {
	downstream Consumer[T]

	mu       sync.Mutex
	emitting bool
	queue    []notification[T]
	done     bool
}

// NewSerializedConsumer wraps downstream.
func NewSerializedConsumer[T any](downstream Consumer[T]) *SerializedConsumer[T] {
	return &SerializedConsumer[T]{downstream: downstream}
}

// OnSubscribe is forwarded directly: by protocol it is only ever called
// once, by a single goroutine, before any other sink call, so it needs no
// serialization of its own.
func (s *SerializedConsumer[T]) OnSubscribe(sub Subscription) {
	s.downstream.OnSubscribe(sub)
}

func (s *SerializedConsumer[T]) OnNext(v T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	if s.emitting {
		s.queue = append(s.queue, notification[T]{kind: kindNext, item: v})
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.mu.Unlock()

	s.downstream.OnNext(v)
	s.drain()
}

func (s *SerializedConsumer[T]) OnError(err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	if s.emitting {
		s.queue = []notification[T]{{kind: kindError, err: err}}
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.queue = nil
	s.mu.Unlock()

	s.downstream.OnError(err)
}

func (s *SerializedConsumer[T]) OnComplete() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	if s.emitting {
		s.queue = []notification[T]{{kind: kindComplete}}
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.queue = nil
	s.mu.Unlock()

	s.downstream.OnComplete()
}

// drain flushes whatever accumulated in the overflow while this goroutine
// held "emitting", delivering in order. If it flushes a terminal
// notification it stops immediately (I2): no entry ever follows one.
func (s *SerializedConsumer[T]) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.emitting = false
			s.mu.Unlock()
			return
		}
		n := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		switch n.kind {
		case kindNext:
			s.downstream.OnNext(n.item)
		case kindError:
			s.downstream.OnError(n.err)
			return
		case kindComplete:
			s.downstream.OnComplete()
			return
		}
	}
}
