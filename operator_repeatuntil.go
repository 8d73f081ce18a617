package reactive

// RepeatUntil resubscribes to src each time it completes, until stop
// returns true, at which point the overall Producer completes. stop is
// consulted after each completion rather than before the first
// subscription, so src always runs at least once.
func RepeatUntil[T any](src Producer[T], stop func() bool) Producer[T] {
	return ProducerFunc[T](func(c Consumer[T]) {
		r := &repeatUntilConsumer[T]{downstream: c, src: src, stop: stop}
		r.subscribeNext()
	})
}

type repeatUntilConsumer[T any] struct {
	downstream Consumer[T]
	src        Producer[T]
	stop       func() bool

	sub        Subscription
	demand     int64
	cancelled  bool
	done       bool
	subscribed bool
}

func (r *repeatUntilConsumer[T]) subscribeNext() {
	r.src.Subscribe(r)
}

func (r *repeatUntilConsumer[T]) OnSubscribe(sub Subscription) {
	if r.cancelled {
		sub.Cancel()
		return
	}
	r.sub = sub
	if !r.subscribed {
		r.subscribed = true
		r.downstream.OnSubscribe(r)
		return
	}
	if r.demand > 0 {
		sub.Request(r.demand)
	}
}

func (r *repeatUntilConsumer[T]) OnNext(v T) {
	if r.done {
		return
	}
	r.downstream.OnNext(v)
}

func (r *repeatUntilConsumer[T]) OnError(err error) {
	if r.done {
		return
	}
	r.done = true
	r.downstream.OnError(err)
}

func (r *repeatUntilConsumer[T]) OnComplete() {
	if r.done || r.cancelled {
		return
	}
	if r.stopNow() {
		r.done = true
		r.downstream.OnComplete()
		return
	}
	r.subscribeNext()
}

func (r *repeatUntilConsumer[T]) stopNow() (stop bool) {
	defer func() {
		if rec := recover(); rec != nil {
			stop = true
		}
	}()
	return r.stop()
}

// Request and Cancel implement Subscription, handed to downstream on the
// first OnSubscribe so it has one stable handle across resubscriptions.
func (r *repeatUntilConsumer[T]) Request(n int64) {
	if n <= 0 || r.cancelled {
		return
	}
	r.demand = AddCap(r.demand, n)
	if r.sub != nil {
		r.sub.Request(n)
	}
}

func (r *repeatUntilConsumer[T]) Cancel() {
	r.cancelled = true
	if r.sub != nil {
		r.sub.Cancel()
	}
}
