// Package scheduler provides the Worker/Scheduler abstraction spec.md §4.4
// asks for: a timeline that schedules one-shot and periodic tasks with
// drift-compensated re-anchoring, and a disposable handle per task.
//
// This is deliberately not an OS-level event loop (epoll/kqueue/IOCP) the
// way the teacher's eventloop.Loop is — that's the spec's explicit
// "platform-specific schedulers" Non-goal. What's kept from the teacher is
// the shape: a single-threaded timeline per Worker driven by a
// container/heap-ordered queue of tasks, the same structure as
// eventloop/loop.go's timerHeap, generalized to be independently
// constructible (no FD polling, no microtask queue) so time-driven
// operators (sampleTimed, timeout, debounce) can be given a synthetic
// clock in tests.
package scheduler

import "time"

// Cancellable is returned by every scheduling call; Cancel is idempotent
// and, once it returns, guarantees the task will not run (or, if it was
// already running, that no further periodic firing will occur).
type Cancellable interface {
	Cancel()
}

// Task is a scheduled unit of work. It must not block indefinitely: a
// Worker is a single timeline, and a blocking task stalls every other
// task queued behind it, exactly as a blocking callback would stall the
// teacher's event loop goroutine.
type Task func()

// Scheduler creates Workers and offers direct (transient-worker)
// convenience methods, mirroring RxJava's Scheduler contract referenced
// by spec.md §4.4: now(unit), scheduleDirect, schedulePeriodicallyDirect,
// createWorker.
type Scheduler interface {
	// Now returns the scheduler's current time. Implementations must
	// document whether this is monotonic; TimerScheduler uses
	// time.Now(), which is monotonic within a single process per the Go
	// runtime's time package guarantees.
	Now() time.Time
	// ScheduleDirect runs task once after delay, on a transient worker
	// that's disposed automatically once the task completes (or is
	// cancelled).
	ScheduleDirect(task Task, delay time.Duration) Cancellable
	// SchedulePeriodicallyDirect runs task repeatedly, first after
	// initialDelay then every period thereafter, on a transient worker
	// that lives until cancelled.
	SchedulePeriodicallyDirect(task Task, initialDelay, period time.Duration) Cancellable
	// NewWorker returns a fresh Worker with its own timeline. Disposing
	// it cancels every task scheduled on it.
	NewWorker() Worker
}
