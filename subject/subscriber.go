package subject

import (
	"sync"

	"github.com/google/uuid"
	"github.com/joeycumines/go-reactive"
)

type notificationKind int

const (
	kindItem notificationKind = iota
	kindError
	kindComplete
)

type notification[T any] struct {
	kind notificationKind
	item T
	err  error
}

// behaviorSubscriber is the per-subscriber state a BehaviorSubject hands
// out as the Subscription for one subscribe call: an "emitting" flag plus
// an append-only overflow queue guarded by its own lock, exactly the
// SerializedConsumer idiom (spec §4.1) scoped down to a single subscriber
// instead of a single shared downstream — each subscriber of a
// BehaviorSubject gets fast-path inline delivery when it isn't already
// mid-emit, and a slow-path queue otherwise. The queue keeps deliveries
// to one subscriber serial; fast-path delivery runs on the writer's
// goroutine, so a slow subscriber delays the writer and the subscribers
// after it in the list.
//
// ID exists purely for diagnostics/logging (e.g. correlating a dropped
// emission with a specific subscriber in a log line); it plays no role in
// delivery order or correctness.
type behaviorSubscriber[T any] struct {
	id         uuid.UUID
	parent     remover[T]
	downstream reactive.Consumer[T]

	mu        sync.Mutex
	queue     []notification[T]
	emitting  bool
	done      bool
	cancelled bool
}

// remover is the subset of *BehaviorSubject this subscriber needs, kept
// as an interface so behaviorSubscriber depends only on remove, not on
// the full subject type declared in behavior.go.
type remover[T any] interface {
	remove(*behaviorSubscriber[T])
}

func newBehaviorSubscriber[T any](parent remover[T], downstream reactive.Consumer[T]) *behaviorSubscriber[T] {
	return &behaviorSubscriber[T]{id: uuid.New(), parent: parent, downstream: downstream}
}

// Request is a no-op: BehaviorSubject is a hot, non-backpressured source
// per spec §3 ("non-backpressured streams treat all subscriptions as
// unbounded") — a slow subscriber simply queues behind its own lock
// rather than ever being asked to apply backpressure to the writer.
func (s *behaviorSubscriber[T]) Request(int64) {}

// Cancel detaches this subscriber from the subject; idempotent.
func (s *behaviorSubscriber[T]) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()
	s.parent.remove(s)
}

func (s *behaviorSubscriber[T]) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// emit queues n behind any in-flight emission; the goroutine that finds
// the subscriber idle delivers inline (fast path) then drains whatever
// accumulated while it was doing so.
func (s *behaviorSubscriber[T]) emit(n notification[T]) {
	s.mu.Lock()
	if s.done || s.cancelled {
		s.mu.Unlock()
		return
	}
	if s.emitting {
		s.queue = append(s.queue, n)
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.mu.Unlock()

	s.deliver(n)
	s.drain()
}

func (s *behaviorSubscriber[T]) deliver(n notification[T]) {
	switch n.kind {
	case kindItem:
		s.downstream.OnNext(n.item)
	case kindError:
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()
		s.downstream.OnError(n.err)
	case kindComplete:
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()
		s.downstream.OnComplete()
	}
}

func (s *behaviorSubscriber[T]) drain() {
	for {
		s.mu.Lock()
		if s.done || s.cancelled || len(s.queue) == 0 {
			s.emitting = false
			s.mu.Unlock()
			return
		}
		n := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.deliver(n)
	}
}
