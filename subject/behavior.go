// Package subject implements the hot, stateful source spec.md singles out
// as its only subject with non-trivial concurrency: BehaviorSubject,
// which replays its latest value to every new subscriber and, once
// terminated, replays that terminal event synchronously to every
// subscriber that arrives afterward — including ones that show up long
// after the fact.
package subject

import (
	"sync"

	"github.com/joeycumines/go-reactive"
)

// BehaviorSubject is both a Producer[T] (it can be subscribed to) and a
// Consumer[T] (it can itself be fed by an upstream Producer), the way the
// teacher's own logiface testsuite.mocklog sinks double as both recorder
// and replay source. It holds exactly one notification at a time — the
// current value, or a terminal marker once OnError/OnComplete has fired —
// behind a single write lock, and a copy-on-write list of subscribers
// each with their own fast/slow-path emission state (subscriber.go).
type BehaviorSubject[T any] struct {
	mu       sync.Mutex
	hasValue bool
	value    T
	terminal *notification[T]
	subs     []*behaviorSubscriber[T]

	upstream reactive.Subscription
}

// New creates an empty BehaviorSubject: the first subscriber sees nothing
// until OnNext is called (directly, or by subscribing this subject to an
// upstream Producer).
func New[T any]() *BehaviorSubject[T] {
	return &BehaviorSubject[T]{}
}

// NewDefault creates a BehaviorSubject that already holds seed, so even
// the very first subscriber sees a value immediately.
func NewDefault[T any](seed T) *BehaviorSubject[T] {
	return &BehaviorSubject[T]{hasValue: true, value: seed}
}

// Value returns the currently held value and whether one has ever been
// set (false before the first OnNext, also false once terminated without
// ever having received one).
func (b *BehaviorSubject[T]) Value() (v T, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.hasValue
}

// HasObservers reports whether any subscriber is currently attached.
func (b *BehaviorSubject[T]) HasObservers() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) > 0
}

// Subscribe implements reactive.Producer[T]: it appends a new subscriber,
// then "emits first" — if the subject is already terminal, the terminal
// notification is delivered synchronously, right here, before Subscribe
// returns (spec §4.5, §9 Open Question (c): "BehaviorSubject's terminal
// emission to a late subscriber is synchronous inside the subscribe
// call"); otherwise, if a value is currently held, that value is
// delivered as the subscriber's first item.
func (b *BehaviorSubject[T]) Subscribe(c reactive.Consumer[T]) {
	sub := newBehaviorSubscriber[T](b, c)

	b.mu.Lock()
	if b.terminal != nil {
		term := *b.terminal
		b.mu.Unlock()
		c.OnSubscribe(sub)
		sub.emit(term)
		return
	}
	b.subs = append(append([]*behaviorSubscriber[T](nil), b.subs...), sub)
	hasValue, value := b.hasValue, b.value
	b.mu.Unlock()

	c.OnSubscribe(sub)
	if hasValue {
		sub.emit(notification[T]{kind: kindItem, item: value})
	}
}

func (b *BehaviorSubject[T]) remove(sub *behaviorSubscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			next := append([]*behaviorSubscriber[T](nil), b.subs[:i]...)
			b.subs = append(next, b.subs[i+1:]...)
			return
		}
	}
}

// OnSubscribe implements reactive.Consumer[T], letting a BehaviorSubject
// be subscribed directly to an upstream Producer. The subject is hot and
// non-backpressured, so it always requests Unbounded.
func (b *BehaviorSubject[T]) OnSubscribe(sub reactive.Subscription) {
	b.mu.Lock()
	b.upstream = sub
	b.mu.Unlock()
	sub.Request(reactive.Unbounded)
}

// OnNext implements reactive.Consumer[T]: publish v as the current value
// and push it to every live subscriber. A call after the subject has gone
// terminal is a protocol violation — silently dropped per I6/I2, since by
// definition no subscriber is expecting any further event.
func (b *BehaviorSubject[T]) OnNext(v T) {
	b.mu.Lock()
	if b.terminal != nil {
		b.mu.Unlock()
		return
	}
	b.hasValue = true
	b.value = v
	subs := append([]*behaviorSubscriber[T](nil), b.subs...)
	b.mu.Unlock()

	n := notification[T]{kind: kindItem, item: v}
	for _, s := range subs {
		s.emit(n)
	}
}

// OnError implements reactive.Consumer[T]: terminates the subject, so
// every current subscriber receives err now and every future subscriber
// receives it synchronously inside Subscribe.
func (b *BehaviorSubject[T]) OnError(err error) {
	b.terminate(notification[T]{kind: kindError, err: err})
}

// OnComplete implements reactive.Consumer[T]: terminates the subject with
// a completion, same disabling semantics as OnError.
func (b *BehaviorSubject[T]) OnComplete() {
	b.terminate(notification[T]{kind: kindComplete})
}

func (b *BehaviorSubject[T]) terminate(n notification[T]) {
	b.mu.Lock()
	if b.terminal != nil {
		b.mu.Unlock()
		return
	}
	term := n
	b.terminal = &term
	subs := append([]*behaviorSubscriber[T](nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		s.emit(n)
	}
}
