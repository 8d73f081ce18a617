package reactive

import (
	"sync"

	"github.com/joeycumines/go-reactive/internal/drain"
	"github.com/joeycumines/go-reactive/internal/queue"
	"github.com/joeycumines/go-reactive/observability"
)

// WindowConfig carries the spec-silent, supplemental size cap a window
// will accept before being forced closed independent of the boundary
// signal — the same size/interval dual-trigger idea as the teacher's own
// go-microbatch.BatcherConfig (MaxSize alongside FlushInterval). The
// spec's documented default, an unbounded window, is unchanged when
// SizeHint is left at 0.
type WindowConfig struct {
	SizeHint int
}

// WindowBoundary splits src into a stream of inner streams ("windows"):
// each inner collects src's items until boundary produces a signal (an
// item or its own completion), at which point that inner completes and a
// new one opens. The outer stream itself is treated as non-backpressured
// (spec §3: "non-backpressured streams treat all subscriptions as
// unbounded") — the window-producer values are emitted as soon as they
// open; it's the items *within* a window that are fully backpressured,
// via each window's own Subscription. The outer completes when src
// completes, closing whatever window is still open; boundary is
// cancelled the instant no window remains outstanding.
func WindowBoundary[T, B any](src Producer[T], boundary Producer[B], cfg *WindowConfig) Producer[Producer[T]] {
	if cfg == nil {
		cfg = &WindowConfig{}
	}
	return ProducerFunc[Producer[T]](func(c Consumer[Producer[T]]) {
		w := &windowBoundaryCoordinator[T, B]{downstream: c, sizeHint: cfg.SizeHint}
		c.OnSubscribe(w)
		w.openWindow()
		src.Subscribe(&windowBoundarySource[T, B]{coord: w})
		boundary.Subscribe(&windowBoundarySignal[T, B]{coord: w})
	})
}

type windowBoundaryCoordinator[T, B any] struct {
	downstream Consumer[Producer[T]]
	sizeHint   int

	mu          sync.Mutex
	current     *windowSubject[T]
	currentSize int
	windowCnt   int
	srcSub      Subscription
	boundarySub Subscription
	srcDone     bool
	cancelled   bool
	done        bool
}

func (w *windowBoundaryCoordinator[T, B]) Request(int64) {}

func (w *windowBoundaryCoordinator[T, B]) Cancel() {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return
	}
	w.cancelled = true
	cur := w.current
	srcSub, boundarySub := w.srcSub, w.boundarySub
	w.mu.Unlock()
	if cur != nil {
		cur.Cancel()
	}
	if srcSub != nil {
		srcSub.Cancel()
	}
	if boundarySub != nil {
		boundarySub.Cancel()
	}
}

// openWindow creates a fresh window, hands its Producer to downstream
// immediately, and makes it the active target for subsequent source
// items.
func (w *windowBoundaryCoordinator[T, B]) openWindow() {
	w.mu.Lock()
	if w.cancelled || w.done {
		w.mu.Unlock()
		return
	}
	win := newWindowSubject[T]()
	w.current = win
	w.currentSize = 0
	w.windowCnt++
	w.mu.Unlock()
	w.downstream.OnNext(win)
}

// closeWindow completes the currently open window (if any), decrements
// the outstanding window count, optionally opens the next one, and
// finishes the overall operator once source has completed and no window
// remains outstanding.
func (w *windowBoundaryCoordinator[T, B]) closeWindow(openNext bool) {
	w.mu.Lock()
	cur := w.current
	w.current = nil
	w.mu.Unlock()
	if cur != nil {
		cur.finish()
	}

	w.mu.Lock()
	w.windowCnt--
	cnt := w.windowCnt
	srcDone := w.srcDone
	w.mu.Unlock()

	if openNext && !srcDone {
		w.openWindow()
		return
	}
	if cnt == 0 && srcDone {
		w.completeOuter()
	}
}

func (w *windowBoundaryCoordinator[T, B]) onSourceNext(v T) {
	w.mu.Lock()
	if w.cancelled || w.done {
		w.mu.Unlock()
		return
	}
	cur := w.current
	w.currentSize++
	size := w.currentSize
	hint := w.sizeHint
	w.mu.Unlock()
	if cur != nil {
		cur.offer(v)
	}
	if hint > 0 && size >= hint {
		w.boundaryTick()
	}
}

func (w *windowBoundaryCoordinator[T, B]) onSourceComplete() {
	w.mu.Lock()
	if w.cancelled || w.done {
		w.mu.Unlock()
		return
	}
	w.srcDone = true
	w.mu.Unlock()
	w.closeWindow(false)
}

func (w *windowBoundaryCoordinator[T, B]) onSourceError(err error) {
	w.mu.Lock()
	if w.cancelled || w.done {
		w.mu.Unlock()
		return
	}
	w.done = true
	cur := w.current
	w.mu.Unlock()
	if cur != nil {
		cur.fail(err)
	}
	w.failAll(err)
}

// boundaryTick closes the current window and opens the next, ignored if
// source has already finished (there is nothing left to window).
func (w *windowBoundaryCoordinator[T, B]) boundaryTick() {
	w.mu.Lock()
	if w.cancelled || w.done || w.srcDone {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	w.closeWindow(true)
}

func (w *windowBoundaryCoordinator[T, B]) onBoundaryError(err error) {
	w.mu.Lock()
	if w.cancelled || w.done {
		w.mu.Unlock()
		return
	}
	cur := w.current
	w.mu.Unlock()
	if cur != nil {
		cur.fail(err)
	}
	w.failAll(err)
}

func (w *windowBoundaryCoordinator[T, B]) failAll(err error) {
	w.mu.Lock()
	w.done = true
	srcSub, boundarySub := w.srcSub, w.boundarySub
	w.mu.Unlock()
	if srcSub != nil {
		srcSub.Cancel()
	}
	if boundarySub != nil {
		boundarySub.Cancel()
	}
	w.downstream.OnError(err)
}

func (w *windowBoundaryCoordinator[T, B]) completeOuter() {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return
	}
	w.done = true
	boundarySub := w.boundarySub
	w.mu.Unlock()
	if boundarySub != nil {
		boundarySub.Cancel()
	}
	w.downstream.OnComplete()
}

type windowBoundarySource[T, B any] struct{ coord *windowBoundaryCoordinator[T, B] }

func (s *windowBoundarySource[T, B]) OnSubscribe(sub Subscription) {
	s.coord.mu.Lock()
	s.coord.srcSub = sub
	s.coord.mu.Unlock()
	sub.Request(Unbounded)
}
func (s *windowBoundarySource[T, B]) OnNext(v T)         { s.coord.onSourceNext(v) }
func (s *windowBoundarySource[T, B]) OnError(err error)  { s.coord.onSourceError(err) }
func (s *windowBoundarySource[T, B]) OnComplete()        { s.coord.onSourceComplete() }

type windowBoundarySignal[T, B any] struct{ coord *windowBoundaryCoordinator[T, B] }

func (s *windowBoundarySignal[T, B]) OnSubscribe(sub Subscription) {
	s.coord.mu.Lock()
	s.coord.boundarySub = sub
	s.coord.mu.Unlock()
	sub.Request(Unbounded)
}
func (s *windowBoundarySignal[T, B]) OnNext(B)          { s.coord.boundaryTick() }
func (s *windowBoundarySignal[T, B]) OnError(err error) { s.coord.onBoundaryError(err) }
func (s *windowBoundarySignal[T, B]) OnComplete()       { s.coord.boundaryTick() }

// windowSubject is a single-subscriber Producer backing one open window:
// a multi-producer/single-consumer linked queue (spec §4.3.5: "Windows
// use a multi-producer/single-consumer linked queue") feeding a standard
// missed-counter drain loop, so the items within a window are fully
// backpressured even though the outer stream of windows is not.
type windowSubject[T any] struct {
	queue *queue.MPSC[T]
	wip   drain.WIP

	mu         sync.Mutex
	downstream Consumer[T]
	demand     int64
	hasErr     bool
	err        error
	complete   bool
	cancelled  bool
}

func newWindowSubject[T any]() *windowSubject[T] {
	return &windowSubject[T]{queue: queue.NewMPSC[T]()}
}

// Subscribe implements Producer[T]. A window accepts at most one
// subscriber — a second Subscribe call is a protocol-level misuse, and is
// reported (not panicked) per the error model's conventions.
func (w *windowSubject[T]) Subscribe(c Consumer[T]) {
	w.mu.Lock()
	if w.downstream != nil {
		w.mu.Unlock()
		observability.ReportProtocolViolation("windowBoundary")
		c.OnSubscribe(noopSubscription{})
		c.OnError(&ProtocolViolationError{Op: "windowBoundary", Message: "window subscribed more than once"})
		return
	}
	w.downstream = c
	w.mu.Unlock()
	c.OnSubscribe(w)
}

func (w *windowSubject[T]) Request(n int64) {
	if n <= 0 {
		return
	}
	w.mu.Lock()
	w.demand = AddCap(w.demand, n)
	w.mu.Unlock()
	w.drain()
}

func (w *windowSubject[T]) Cancel() {
	w.mu.Lock()
	w.cancelled = true
	w.mu.Unlock()
}

func (w *windowSubject[T]) offer(v T) {
	w.queue.Offer(v)
	w.drain()
}

func (w *windowSubject[T]) fail(err error) {
	w.mu.Lock()
	if w.hasErr || w.complete {
		w.mu.Unlock()
		return
	}
	w.hasErr = true
	w.err = err
	w.mu.Unlock()
	w.drain()
}

func (w *windowSubject[T]) finish() {
	w.mu.Lock()
	if w.hasErr || w.complete {
		w.mu.Unlock()
		return
	}
	w.complete = true
	w.mu.Unlock()
	w.drain()
}

func (w *windowSubject[T]) drain() {
	if !w.wip.Signal() {
		return
	}
	missed := int64(1)
	iterations := int64(0)
	defer func() { observability.ObserveDrainIterations(iterations) }()
	for {
		iterations++
		w.mu.Lock()
		d := w.demand
		down := w.downstream
		cancelled := w.cancelled
		w.mu.Unlock()

		if down != nil && !cancelled {
			for d > 0 {
				v, ok := w.queue.Poll()
				if !ok {
					break
				}
				down.OnNext(v)
				d--
				w.mu.Lock()
				if w.demand != Unbounded {
					w.demand--
				}
				w.mu.Unlock()
			}
			if w.queue.IsEmpty() {
				w.mu.Lock()
				hasErr, err, complete := w.hasErr, w.err, w.complete
				w.mu.Unlock()
				if hasErr {
					down.OnError(err)
					return
				}
				if complete {
					down.OnComplete()
					return
				}
			}
		}

		missed = w.wip.Release(missed)
		if missed == 0 {
			return
		}
	}
}
