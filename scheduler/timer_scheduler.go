package scheduler

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// TimerScheduler is the default Scheduler: every NewWorker call gets its
// own goroutine and its own container/heap-ordered queue of pending
// tasks, the same data structure the teacher's eventloop.Loop uses for
// its timerHeap, but standing alone (no FD poller, no microtask ring)
// since OS-level event-loop integration is the spec's Non-goal.
type TimerScheduler struct {
	now func() time.Time
}

// NewTimerScheduler returns the default wall-clock TimerScheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{now: time.Now}
}

// NewTimerSchedulerWithClock returns a TimerScheduler driven by a custom
// clock function, letting tests inject virtual time without a trampoline
// adapter (which spec.md §1 Non-goals explicitly excludes from the
// library itself — this is just dependency injection of the clock, the
// same seam the teacher's catrate package uses for its own tests via the
// package-level timeNow variable in catrate/limiter.go).
func NewTimerSchedulerWithClock(now func() time.Time) *TimerScheduler {
	return &TimerScheduler{now: now}
}

func (s *TimerScheduler) Now() time.Time { return s.now() }

func (s *TimerScheduler) ScheduleDirect(task Task, delay time.Duration) Cancellable {
	w := s.NewWorker()
	c := w.Schedule(func() {
		defer w.Dispose()
		task()
	}, delay)
	return cancelFunc(func() {
		c.Cancel()
		w.Dispose()
	})
}

func (s *TimerScheduler) SchedulePeriodicallyDirect(task Task, initialDelay, period time.Duration) Cancellable {
	w := s.NewWorker()
	c := w.SchedulePeriodic(task, initialDelay, period)
	return cancelFunc(func() {
		c.Cancel()
		w.Dispose()
	})
}

func (s *TimerScheduler) NewWorker() Worker {
	w := &timerWorker{
		now:     s.now,
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w
}

type cancelFunc func()

func (f cancelFunc) Cancel() { f() }

// pendingTask is one entry in a timerWorker's heap.
type pendingTask struct {
	index int // heap.Interface bookkeeping
	when  time.Time
	fn    Task

	// periodic re-anchor state, per spec.md §4.4; zero value (period==0)
	// means "one-shot".
	period     time.Duration
	startTime  time.Time
	count      int64
	lastFireAt time.Time

	cancelled atomic.Bool
}

// Reanchors reports how many times this worker's periodic tasks have
// hit the drift re-anchor branch in fireNext — exposed so
// observability.WatchReanchors can publish it as a gauge without this
// package needing to depend on prometheus itself.
func (w *timerWorker) Reanchors() int64 { return w.reanchors.Load() }

func (p *pendingTask) Cancel() { p.cancelled.Store(true) }

type taskHeap []*pendingTask

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *taskHeap) Push(x any)         { t := x.(*pendingTask); t.index = len(*h); *h = append(*h, t) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// timerWorker is a single-threaded timeline: exactly one goroutine ever
// pops and runs tasks from its heap, so two tasks on the same worker
// never execute concurrently (matching spec.md §5's "single-threaded
// cooperative drain loops inside each operator" for the timer side).
type timerWorker struct {
	now func() time.Time

	mu   sync.Mutex
	heap taskHeap

	wake      chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once

	reanchors atomic.Int64
}

func (w *timerWorker) Now() time.Time { return w.now() }

func (w *timerWorker) Schedule(task Task, delay time.Duration) Cancellable {
	if delay < 0 {
		delay = 0
	}
	t := &pendingTask{when: w.now().Add(delay), fn: task}
	w.push(t)
	return t
}

func (w *timerWorker) SchedulePeriodic(task Task, initialDelay, period time.Duration) Cancellable {
	if initialDelay < 0 {
		initialDelay = 0
	}
	now := w.now()
	t := &pendingTask{
		when:      now.Add(initialDelay),
		fn:        task,
		period:    period,
		startTime: now.Add(initialDelay),
	}
	w.push(t)
	return t
}

func (w *timerWorker) push(t *pendingTask) {
	w.mu.Lock()
	heap.Push(&w.heap, t)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *timerWorker) Dispose() {
	w.closeOnce.Do(func() {
		close(w.closeCh)
	})
}

func (w *timerWorker) run() {
	for {
		w.mu.Lock()
		for len(w.heap) > 0 && w.heap[0].cancelled.Load() {
			heap.Pop(&w.heap)
		}
		if len(w.heap) == 0 {
			w.mu.Unlock()
			select {
			case <-w.wake:
				continue
			case <-w.closeCh:
				return
			}
		}
		next := w.heap[0]
		delay := next.when.Sub(w.now())
		w.mu.Unlock()

		if delay <= 0 {
			w.fireNext()
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			w.fireNext()
		case <-w.wake:
			timer.Stop()
		case <-w.closeCh:
			timer.Stop()
			return
		}
	}
}

// fireNext pops the due task (if it's still the top and actually due),
// runs it inline (the worker's own goroutine — this is the "non-suspending"
// model spec.md §5 requires), and for periodic tasks re-anchors and
// reinserts per the drift-compensation algorithm in spec.md §4.4 and §9
// Open Question (a): the behavior is preserved exactly, including its
// known over/under-compensation under adversarial clocks, rather than
// "fixed" — callers may depend on the documented behavior.
func (w *timerWorker) fireNext() {
	w.mu.Lock()
	if len(w.heap) == 0 {
		w.mu.Unlock()
		return
	}
	t := heap.Pop(&w.heap).(*pendingTask)
	w.mu.Unlock()

	if t.cancelled.Load() {
		return
	}

	if t.period <= 0 {
		t.fn()
		return
	}

	now := w.now()
	lastNow := t.lastFireAt
	t.lastFireAt = now
	t.count++
	targetTime := t.startTime.Add(t.period * time.Duration(t.count))

	if !lastNow.IsZero() && (now.Before(lastNow) || now.After(targetTime)) {
		// Clock regressed, or this firing ran so late it's already past
		// the next scheduled target (a slow consumer): re-anchor rather
		// than let a burst of zero-delay catch-up firings pile up.
		t.startTime = now
		t.count = 0
		targetTime = t.startTime.Add(t.period)
		w.reanchors.Add(1)
	}

	t.fn()

	if t.cancelled.Load() {
		return
	}
	t.when = targetTime
	w.push(t)
}
