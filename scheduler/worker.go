package scheduler

import "time"

// Worker is a single-threaded timeline (spec.md §3 "Scheduler Worker"):
// every Task scheduled on the same Worker runs strictly one at a time, in
// the order its deadline comes due, matching the non-suspending
// "deferred work owned by a Worker's timer" model spec.md §5 describes —
// a target runtime with coroutines should model each scheduled task as a
// cancellable handle, never as a suspended coroutine.
type Worker interface {
	// Now returns the worker's current time (delegates to its Scheduler).
	Now() time.Time
	// Schedule runs task once after delay (delay <= 0 runs as soon as the
	// worker is free).
	Schedule(task Task, delay time.Duration) Cancellable
	// SchedulePeriodic runs task repeatedly: first after initialDelay,
	// then every period. TimerScheduler's workers re-anchor the schedule
	// to compensate for drift (see timerWorker.fireNext); Trampoline
	// schedules each next run one period after the previous run returns.
	SchedulePeriodic(task Task, initialDelay, period time.Duration) Cancellable
	// Dispose cancels every outstanding task on this worker and stops its
	// goroutine. Idempotent.
	Dispose()
}
