// Package reactive is the runtime core of a push-based reactive dataflow
// library. See reactive.go for the producer/consumer contract these
// operators are all built on top of, and the subject/ and completable/
// subpackages for the hot-source and single-valued variants.
//
// The builder DSL a full-featured library ships on top of this core,
// platform-specific schedulers, trampolining test adapters, and
// operator-fusion hooks are all out of scope — this package is the state
// machines, not the fluent API wrapping them.
package reactive
