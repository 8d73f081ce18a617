package drain

import "sync"

type arbiterKind int

const (
	arbiterItem arbiterKind = iota
	arbiterErr
	arbiterComplete
)

type arbiterEvent[T any] struct {
	kind arbiterKind
	item T
	err  error
}

// FullArbiter multiplexes a primary and a fallback upstream into a single
// downstream while preserving demand accounting across the switch
// (spec.md §4.1 "Full arbiter"). It is itself the Subscription handed to
// the downstream: Request accumulates outstanding demand and forwards it
// to whichever upstream is currently active; Cancel tears down both the
// current active subscription and any future one.
//
// A caller drives it by:
//  1. constructing with NewFullArbiter(downstream)
//  2. calling SetActive(primarySub) to install the first upstream,
//     capturing the returned generation
//  3. tagging every notification from that upstream's Consumer with the
//     captured generation when calling Emit/EmitError/EmitComplete
//  4. on switch (e.g. a timeout firing), calling SetActive(fallbackSub)
//     again — this cancels the old subscription, bumps the generation
//     (so in-flight notifications from the retired upstream are silently
//     rejected by Emit/EmitError/EmitComplete), and re-issues any
//     outstanding demand to the new upstream so it catches up immediately.
type FullArbiter[T any] struct {
	downstream Consumer[T]

	mu          sync.Mutex
	gen         uint64
	active      Subscription
	cancelled   bool
	outstanding int64 // downstream demand not yet satisfied by an emitted item

	wip   WIP
	queue []arbiterEvent[T]
	done  bool
}

// NewFullArbiter wraps downstream. Call downstream.OnSubscribe(arbiter)
// with the returned value as part of setting up the operator that owns it.
func NewFullArbiter[T any](downstream Consumer[T]) *FullArbiter[T] {
	return &FullArbiter[T]{downstream: downstream}
}

// Gen returns the current generation; an upstream should capture this at
// subscribe time (from SetActive's return value) and stamp every
// notification it sends to Emit/EmitError/EmitComplete with it.
func (a *FullArbiter[T]) Gen() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

// SetActive installs sub as the current upstream, cancelling whatever was
// previously active and bumping the generation so any notification still
// in flight from the old upstream is rejected. If outstanding demand is
// already owed to downstream, it's immediately requested from sub so the
// switch doesn't stall a subscriber with open demand.
func (a *FullArbiter[T]) SetActive(sub Subscription) (gen uint64) {
	a.mu.Lock()
	if a.cancelled {
		a.mu.Unlock()
		if sub != nil {
			sub.Cancel()
		}
		return a.gen
	}
	a.gen++
	gen = a.gen
	old := a.active
	a.active = sub
	outstanding := a.outstanding
	a.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	if sub != nil && outstanding > 0 {
		sub.Request(outstanding)
	}
	return gen
}

// Request implements Subscription: accumulates outstanding demand and
// forwards it to the currently active upstream, if any.
func (a *FullArbiter[T]) Request(n int64) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	if a.cancelled {
		a.mu.Unlock()
		return
	}
	a.outstanding += n
	active := a.active
	a.mu.Unlock()
	if active != nil {
		active.Request(n)
	}
}

// Cancel implements Subscription: tears down the active upstream and
// marks the arbiter so any future SetActive immediately cancels its
// argument instead of installing it.
func (a *FullArbiter[T]) Cancel() {
	a.mu.Lock()
	if a.cancelled {
		a.mu.Unlock()
		return
	}
	a.cancelled = true
	active := a.active
	a.active = nil
	a.mu.Unlock()
	if active != nil {
		active.Cancel()
	}
}

// Emit queues an item from the upstream tagged gen, returning false
// without queueing it if gen is stale (a retired upstream) or the arbiter
// has already gone terminal/cancelled — the caller should silently drop a
// rejected item per I6.
func (a *FullArbiter[T]) Emit(gen uint64, item T) bool {
	a.mu.Lock()
	if a.cancelled || a.done || gen != a.gen {
		a.mu.Unlock()
		return false
	}
	a.queue = append(a.queue, arbiterEvent[T]{kind: arbiterItem, item: item})
	a.mu.Unlock()
	a.drain()
	return true
}

// EmitError queues a terminal error from the upstream tagged gen,
// returning false if gen is stale — the caller should route a rejected
// error to the global error hook per I6, since it otherwise has no
// subscriber left to receive it.
func (a *FullArbiter[T]) EmitError(gen uint64, err error) bool {
	a.mu.Lock()
	if a.cancelled || a.done || gen != a.gen {
		a.mu.Unlock()
		return false
	}
	a.done = true
	a.queue = append(a.queue, arbiterEvent[T]{kind: arbiterErr, err: err})
	a.mu.Unlock()
	a.drain()
	return true
}

// EmitComplete queues a terminal completion from the upstream tagged gen.
func (a *FullArbiter[T]) EmitComplete(gen uint64) bool {
	a.mu.Lock()
	if a.cancelled || a.done || gen != a.gen {
		a.mu.Unlock()
		return false
	}
	a.done = true
	a.queue = append(a.queue, arbiterEvent[T]{kind: arbiterComplete})
	a.mu.Unlock()
	a.drain()
	return true
}

func (a *FullArbiter[T]) drain() {
	if !a.wip.Signal() {
		return
	}
	missed := int64(1)
	for {
		for {
			a.mu.Lock()
			if len(a.queue) == 0 {
				a.mu.Unlock()
				break
			}
			ev := a.queue[0]
			a.queue = a.queue[1:]
			a.mu.Unlock()

			switch ev.kind {
			case arbiterItem:
				a.downstream.OnNext(ev.item)
				a.mu.Lock()
				if a.outstanding > 0 {
					a.outstanding--
				}
				a.mu.Unlock()
			case arbiterErr:
				a.downstream.OnError(ev.err)
				return
			case arbiterComplete:
				a.downstream.OnComplete()
				return
			}
		}
		missed = a.wip.Release(missed)
		if missed == 0 {
			return
		}
	}
}
