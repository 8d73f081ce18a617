package reactive

import (
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-reactive/observability"
	"github.com/joeycumines/go-reactive/scheduler"
)

// SampleTimedConfig carries optional, off-by-default tuning for
// SampleTimed — nil-able like the teacher's own microbatch.BatcherConfig,
// so the zero value (or a nil pointer) reproduces the spec's documented
// default behavior exactly.
type SampleTimedConfig struct {
	// RateLimit, if set, guards the upstream OnNext write path: a hostile
	// or buggy upstream emitting far faster than the sample period can
	// otherwise spend unbounded CPU overwriting a value nobody will ever
	// see between ticks. When the limiter refuses an event the update is
	// dropped and the previously held value (if any) is kept pending
	// instead. A tick can therefore deliver an older value than the last
	// one upstream emitted, or nothing at all if every update since the
	// previous tick was refused.
	RateLimit *catrate.Limiter
}

// SampleTimed emits the latest upstream value once per period, dropping
// any values that arrived between ticks. Upstream is requested
// unboundedly since sampling, not forwarding, governs what reaches
// downstream; a tick with nothing new to emit is silent, but a tick that
// does have a value to emit with zero downstream demand outstanding is a
// BackpressureError — sampleTimed cannot buffer its way out of that, it
// can only report it.
func SampleTimed[T any](src Producer[T], period time.Duration, worker scheduler.Worker, cfg *SampleTimedConfig) Producer[T] {
	if cfg == nil {
		cfg = &SampleTimedConfig{}
	}
	return ProducerFunc[T](func(c Consumer[T]) {
		s := &sampleTimedConsumer[T]{downstream: c, worker: worker, period: period, rateLimit: cfg.RateLimit}
		src.Subscribe(s)
	})
}

type sampleTimedConsumer[T any] struct {
	downstream Consumer[T]
	upstream   Subscription
	worker     scheduler.Worker
	period     time.Duration
	timer      scheduler.Cancellable
	rateLimit  *catrate.Limiter

	mu       sync.Mutex
	hasValue bool
	value    T
	demand   int64
	done     bool
}

func (s *sampleTimedConsumer[T]) OnSubscribe(sub Subscription) {
	s.upstream = sub
	s.downstream.OnSubscribe(s)
	sub.Request(Unbounded)
	s.timer = s.worker.SchedulePeriodic(s.tick, s.period, s.period)
}

func (s *sampleTimedConsumer[T]) Request(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.demand = AddCap(s.demand, n)
	s.mu.Unlock()
}

func (s *sampleTimedConsumer[T]) Cancel() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.upstream.Cancel()
	if s.timer != nil {
		s.timer.Cancel()
	}
}

func (s *sampleTimedConsumer[T]) OnNext(v T) {
	if s.rateLimit != nil {
		if _, ok := s.rateLimit.Allow("sampleTimed.onNext"); !ok {
			return
		}
	}
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.hasValue = true
	s.value = v
	s.mu.Unlock()
}

func (s *sampleTimedConsumer[T]) tick() {
	s.mu.Lock()
	if s.done || !s.hasValue {
		s.mu.Unlock()
		return
	}
	v := s.value
	var zero T
	s.value = zero
	s.hasValue = false

	if s.demand == 0 {
		s.done = true
		s.mu.Unlock()
		s.upstream.Cancel()
		if s.timer != nil {
			s.timer.Cancel()
		}
		observability.ReportBackpressureViolation("sampleTimed")
		s.downstream.OnError(&BackpressureError{Op: "sampleTimed"})
		return
	}
	if s.demand != Unbounded {
		s.demand--
	}
	s.mu.Unlock()
	s.downstream.OnNext(v)
}

func (s *sampleTimedConsumer[T]) OnError(err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()
	if s.timer != nil {
		s.timer.Cancel()
	}
	s.downstream.OnError(err)
}

func (s *sampleTimedConsumer[T]) OnComplete() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()
	if s.timer != nil {
		s.timer.Cancel()
	}
	s.downstream.OnComplete()
}
