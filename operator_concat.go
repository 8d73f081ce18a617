package reactive

// ConcatProducers flattens an outer stream of Producers into one, in
// strict order: item k of inner j always precedes item 0 of inner j+1.
// It is concatMap with the identity mapper, since there is no per-item
// state beyond "subscribe to the next one in order".
func ConcatProducers[T any](outer Producer[Producer[T]], prefetch int64) Producer[T] {
	return ConcatMap(outer, prefetch, func(p Producer[T]) (Producer[T], error) {
		return p, nil
	})
}

// Concat concatenates a fixed list of sources in argument order. demand
// flows straight through via the underlying concatMap; concat(a, empty)
// is a, concat(empty, b) is b, and concat is associative since each
// inner simply runs to completion before the next is subscribed.
func Concat[T any](sources ...Producer[T]) Producer[T] {
	return ConcatProducers[T](FromIterable(sources), int64(len(sources)))
}
