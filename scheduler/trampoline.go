package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-reactive/internal/drain"
)

// Trampoline is the "immediate" Scheduler/Worker flavor spec.md's worker
// model implies every implementation should offer alongside a
// production timer-backed one (TimerScheduler): a delayed task waits on
// time.AfterFunc and a zero-delay task is queued at once (so it runs
// inline on the calling goroutine unless another is already draining),
// but same-Worker tasks are never run concurrently with each other, and
// a task that itself
// schedules more work on the same Trampoline is queued and drained by
// whichever goroutine is already draining — the same missed-counter
// drain loop (internal/drain.WIP) every operator in this module uses
// internally — rather than recursing into the scheduling goroutine's
// call stack.
//
// This is deliberately NOT a virtual-time test harness: delay and
// period are real wall-clock durations, never fast-forwarded or
// deterministically ordered by a test clock. A full trampolining test
// adapter (the kind that lets a test assert "at virtual time T, exactly
// these events fired") is the spec's explicit Non-goal; Trampoline only
// gives operator tests a Scheduler that doesn't need its own background
// goroutine pool.
type Trampoline struct {
	mu    sync.Mutex
	tasks []*trampolineTask
	wip   drain.WIP
}

// NewTrampoline returns a ready-to-use Trampoline.
func NewTrampoline() *Trampoline { return &Trampoline{} }

func (t *Trampoline) Now() time.Time { return time.Now() }

type trampolineTask struct {
	fn        Task
	period    time.Duration
	cancelled atomic.Bool
	timer     *time.Timer
}

func (tt *trampolineTask) Cancel() {
	tt.cancelled.Store(true)
	if tt.timer != nil {
		tt.timer.Stop()
	}
}

func (t *Trampoline) enqueue(tt *trampolineTask) {
	t.mu.Lock()
	t.tasks = append(t.tasks, tt)
	t.mu.Unlock()
	t.drain()
}

func (t *Trampoline) drain() {
	if !t.wip.Signal() {
		return
	}
	missed := int64(1)
	for {
		t.mu.Lock()
		var tt *trampolineTask
		if len(t.tasks) > 0 {
			tt = t.tasks[0]
			t.tasks = t.tasks[1:]
		}
		t.mu.Unlock()

		if tt != nil {
			if !tt.cancelled.Load() {
				tt.fn()
				if tt.period > 0 && !tt.cancelled.Load() {
					next := tt
					next.timer = time.AfterFunc(next.period, func() { t.enqueue(next) })
				}
			}
		}

		missed = t.wip.Release(missed)
		if missed == 0 {
			return
		}
	}
}

// ScheduleDirect implements Scheduler.
func (t *Trampoline) ScheduleDirect(task Task, delay time.Duration) Cancellable {
	tt := &trampolineTask{fn: task}
	if delay <= 0 {
		t.enqueue(tt)
		return tt
	}
	tt.timer = time.AfterFunc(delay, func() { t.enqueue(tt) })
	return tt
}

// SchedulePeriodicallyDirect implements Scheduler.
func (t *Trampoline) SchedulePeriodicallyDirect(task Task, initialDelay, period time.Duration) Cancellable {
	tt := &trampolineTask{fn: task, period: period}
	if initialDelay <= 0 {
		t.enqueue(tt)
		return tt
	}
	tt.timer = time.AfterFunc(initialDelay, func() { t.enqueue(tt) })
	return tt
}

// NewWorker implements Scheduler; Trampoline serves as its own single
// Worker since there is no per-worker OS resource to isolate.
func (t *Trampoline) NewWorker() Worker { return t }

// Schedule implements Worker.
func (t *Trampoline) Schedule(task Task, delay time.Duration) Cancellable {
	return t.ScheduleDirect(task, delay)
}

// SchedulePeriodic implements Worker.
func (t *Trampoline) SchedulePeriodic(task Task, initialDelay, period time.Duration) Cancellable {
	return t.SchedulePeriodicallyDirect(task, initialDelay, period)
}

// Dispose implements Worker: cancels every task still in the run queue.
// A task waiting on its delay or period timer is not in that queue; it is
// not cancelled by Dispose and runs when its timer fires. Idempotent.
func (t *Trampoline) Dispose() {
	t.mu.Lock()
	tasks := t.tasks
	t.tasks = nil
	t.mu.Unlock()
	for _, tt := range tasks {
		tt.Cancel()
	}
}

var (
	_ Scheduler = (*Trampoline)(nil)
	_ Worker    = (*Trampoline)(nil)
)
