package reactive

// KeySelector and ValueSelector extract a map key/value from an upstream
// item; either may fail, which aborts the whole accumulation with an
// error (mirroring Map/Filter's one-shot-error-then-cancel contract).
type KeySelector[T any, K comparable] func(T) (K, error)
type ValueSelector[T, V any] func(T) (V, error)

// ToMap collects upstream items into a map keyed by keyFn, valued by
// valueFn, emitted as a single value on completion. A later item whose
// key collides with an earlier one overwrites it, matching the order-
// dependent associativity spec.md §8's toMap scenario exercises.
func ToMap[T any, K comparable, V any](src Producer[T], keyFn KeySelector[T, K], valueFn ValueSelector[T, V]) Producer[map[K]V] {
	return ProducerFunc[map[K]V](func(c Consumer[map[K]V]) {
		src.Subscribe(&toMapConsumer[T, K, V]{
			downstream: c,
			keyFn:      keyFn,
			valueFn:    valueFn,
			result:     make(map[K]V),
		})
	})
}

type toMapConsumer[T any, K comparable, V any] struct {
	downstream Consumer[map[K]V]
	keyFn      KeySelector[T, K]
	valueFn    ValueSelector[T, V]
	upstream   Subscription
	result     map[K]V
	done       bool
}

func (m *toMapConsumer[T, K, V]) OnSubscribe(sub Subscription) {
	m.upstream = sub
	m.downstream.OnSubscribe(noopSubscription{})
	sub.Request(Unbounded)
}

func (m *toMapConsumer[T, K, V]) OnNext(v T) {
	if m.done {
		return
	}
	k, v2, err := m.callFns(v)
	if err != nil {
		m.done = true
		m.upstream.Cancel()
		m.downstream.OnError(err)
		return
	}
	m.result[k] = v2
}

func (m *toMapConsumer[T, K, V]) callFns(v T) (k K, v2 V, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoverAsError("toMap", rec)
		}
	}()
	k, err = m.keyFn(v)
	if err != nil {
		return k, v2, err
	}
	v2, err = m.valueFn(v)
	return k, v2, err
}

func (m *toMapConsumer[T, K, V]) OnError(err error) {
	if m.done {
		return
	}
	m.done = true
	m.downstream.OnError(err)
}

func (m *toMapConsumer[T, K, V]) OnComplete() {
	if m.done {
		return
	}
	m.done = true
	m.downstream.OnNext(m.result)
	m.downstream.OnComplete()
}
