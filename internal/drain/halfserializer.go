package drain

import "sync"

// HalfSerializer is the lighter-weight serialization idiom used when
// exactly one item-emitting goroutine races against exactly one
// terminal-emitting goroutine (debounce's item thread vs its debouncer's
// timeout thread; timeout's item thread vs its timer thread) — the common
// case spec.md §5 calls "classic 'missed counter' pattern" without needing
// SerializedConsumer's general overflow queue, since there is at most one
// terminal event ever pending.
type HalfSerializer[T any] struct {
	downstream Consumer[T]

	wip WIP

	mu         sync.Mutex
	hasTerminal bool
	isComplete bool
	err        error
}

// NewHalfSerializer wraps downstream.
func NewHalfSerializer[T any](downstream Consumer[T]) *HalfSerializer[T] {
	return &HalfSerializer[T]{downstream: downstream}
}

// OnNext must only be called by the single item-emitting goroutine.
func (h *HalfSerializer[T]) OnNext(v T) {
	if !h.wip.Signal() {
		// A terminal is draining (or about to); per protocol no item may
		// follow a terminal event, so this one is simply not delivered.
		return
	}
	h.downstream.OnNext(v)
	if h.wip.Release(1) != 0 {
		h.drainTerminal()
	}
}

// OnError may be called by either goroutine.
func (h *HalfSerializer[T]) OnError(err error) {
	h.mu.Lock()
	if !h.hasTerminal {
		h.hasTerminal = true
		h.err = err
	}
	h.mu.Unlock()
	if h.wip.Signal() {
		h.drainTerminal()
	}
}

// OnComplete may be called by either goroutine.
func (h *HalfSerializer[T]) OnComplete() {
	h.mu.Lock()
	if !h.hasTerminal {
		h.hasTerminal = true
		h.isComplete = true
	}
	h.mu.Unlock()
	if h.wip.Signal() {
		h.drainTerminal()
	}
}

func (h *HalfSerializer[T]) drainTerminal() {
	for {
		h.mu.Lock()
		has, complete, err := h.hasTerminal, h.isComplete, h.err
		h.mu.Unlock()
		if has {
			if complete {
				h.downstream.OnComplete()
			} else {
				h.downstream.OnError(err)
			}
			return
		}
		if h.wip.Release(1) == 0 {
			return
		}
	}
}
