// Package drain collects the serialization and arbitration primitives
// shared by every operator with more than one upstream signal source:
// the missed-counter drain-claim idiom, a SerializedConsumer for the
// general multi-producer case, a HalfSerializer for the common
// item-thread-vs-terminal-thread case (debounce, timeout), and the
// FullArbiter used by timeout's primary/fallback switch.
//
// It defines its own minimal Consumer/Subscription interfaces rather than
// importing the root package, so the root package can depend on drain
// without a cycle; any reactive.Consumer[T]/reactive.Subscription value
// satisfies these structurally.
package drain

import "sync/atomic"

// Consumer is the subset of the root Consumer[T] interface this package
// needs to wrap one.
type Consumer[T any] interface {
	OnSubscribe(Subscription)
	OnNext(T)
	OnError(error)
	OnComplete()
}

// Subscription is the subset of the root Subscription interface this
// package needs to wrap one.
type Subscription interface {
	Request(n int64)
	Cancel()
}

// WIP implements the classic "missed counter" drain-claim idiom used
// throughout spec.md §5: getAndIncrement() == 0 claims the drain for the
// calling goroutine; any goroutine that loses the race has its signal
// folded into the next addAndGet(-missed) the owner performs, so no
// signal is ever lost and at most one goroutine drains at a time.
type WIP struct {
	n atomic.Int64
}

// Signal records one unit of pending work and reports whether the caller
// just became the drain owner (the counter was 0 immediately before this
// call). A caller for which Signal returns false must do nothing further:
// the current owner will observe the extra unit on its next Release.
func (w *WIP) Signal() bool {
	return w.n.Add(1) == 1
}

// Release is called by the drain owner after performing one unit of work;
// missed is normally 1. It returns the counter after subtracting missed:
// zero means the owner is caught up and may stop draining; non-zero means
// more work arrived while draining and the owner must continue (looping
// with Release(result) as the next missed value, per the idiom: "missed =
// addAndGet(-missed)").
func (w *WIP) Release(missed int64) int64 {
	return w.n.Add(-missed)
}

// Get reads the current counter without claiming or releasing anything;
// used only for diagnostics/tests.
func (w *WIP) Get() int64 {
	return w.n.Load()
}
