package reactive

import "sync"

// cancelledSubscription is the Subscription.CANCELLED sentinel (spec §5
// "SubscriptionHelper.CANCELLED sentinel for subscription references"): a
// well-known instance that silently discards every call. No operator in
// this package references it; operators that hand out an inert
// Subscription use noopSubscription{} directly.
var cancelledSubscription Subscription = noopSubscription{}

type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}

// Demand is an atomically-accumulated, saturating request counter (spec
// §3 invariant I5). It is safe for concurrent Add/Sub from any goroutine.
// The operators in this package keep their own demand fields and do not
// use it.
type Demand struct {
	mu sync.Mutex
	n  int64
}

// Add increments outstanding demand by delta (delta must be > 0),
// saturating at Unbounded (spec: "saturate at the maximum representable
// value"). Returns the demand observed immediately before this call,
// which callers use to decide whether a drain loop was already active
// (the demand was non-zero) or needs to be kicked off (it was zero).
func (d *Demand) Add(delta int64) (previous int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	previous = d.n
	d.n = AddCap(d.n, delta)
	return previous
}

// Sub decrements outstanding demand by delta, typically by 1 per item
// emitted. It never goes negative, and Unbounded demand is left untouched
// (the sentinel disables accounting entirely).
func (d *Demand) Sub(delta int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.n == Unbounded {
		return
	}
	d.n -= delta
	if d.n < 0 {
		d.n = 0
	}
}

// Get returns the current outstanding demand.
func (d *Demand) Get() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// SetUnbounded marks the demand as unconstrained, the state of an
// upstream that was requested Unbounded regardless of what downstream
// requested.
func (d *Demand) SetUnbounded() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n = Unbounded
}

// subscriptionRef holds a single mutable Subscription reference with
// cancel-wins semantics: once cancelled, any subsequent Set immediately
// cancels the incoming subscription instead of storing it, so a late
// upstream subscribe racing a downstream cancel never leaks (spec §5
// "Cancellation semantics... Races are resolved by atomic sentinels").
//
// It holds a single slot. No operator in this package uses it: each keeps
// its subscriptions in its own mutex-guarded fields or in a
// drain.FullArbiter.
type subscriptionRef struct {
	mu        sync.Mutex
	sub       Subscription
	cancelled bool
}

// Set installs sub as the current subscription. If this ref is already
// cancelled, sub is cancelled immediately instead and Set returns false.
func (r *subscriptionRef) Set(sub Subscription) bool {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		if sub != nil {
			sub.Cancel()
		}
		return false
	}
	r.sub = sub
	r.mu.Unlock()
	return true
}

// Replace swaps in a new subscription, cancelling whatever was previously
// stored, and returns false (without storing sub) if the ref is already
// cancelled.
func (r *subscriptionRef) Replace(sub Subscription) bool {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		if sub != nil {
			sub.Cancel()
		}
		return false
	}
	old := r.sub
	r.sub = sub
	r.mu.Unlock()
	if old != nil {
		old.Cancel()
	}
	return true
}

// Cancel cancels whatever is currently stored (if anything) and marks the
// ref cancelled, so every future Set/Replace cancels its argument instead
// of storing it. Idempotent.
func (r *subscriptionRef) Cancel() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// IsCancelled reports whether Cancel has been called.
func (r *subscriptionRef) IsCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}
