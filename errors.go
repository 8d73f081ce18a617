package reactive

import (
	"fmt"

	"github.com/joeycumines/go-reactive/compositeerror"
)

// NullValueError is delivered when a user function (mapper, accumulator,
// combiner, selector, supplier) returns a nil/zero Result where the
// contract requires a value (I3: "an item of value null is never
// delivered"). Go has no universal null for arbitrary T, so operators that
// accept a pointer- or interface-shaped T treat a nil return from the user
// function as this error; operators over value types rely on the function
// signature alone and never need this path.
type NullValueError struct {
	// Op names the operator that observed the null (e.g. "map", "scanSeed").
	Op string
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("reactive: %s: function returned a null value", e.Op)
}

// PanicError wraps a value recovered from a panicking user function,
// matching the teacher's promisify.go PanicError: user code is never
// allowed to crash a drain loop, so a recover() always converts to this.
type PanicError struct {
	Op    string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("reactive: %s: panic: %v", e.Op, e.Value)
}

// Unwrap supports errors.Is/errors.As against the recovered value, when it
// was itself an error (teacher precedent: eventloop/errors.go PanicError.Unwrap).
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ProtocolViolationError is delivered downstream when a stream breaks an
// operator's structural contract: Single sees zero or more than one item,
// or a windowBoundary window is subscribed more than once.
type ProtocolViolationError struct {
	Op      string
	Message string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("reactive: %s: protocol violation: %s", e.Op, e.Message)
}

// BackpressureError is delivered when an operator that must emit now
// (sampleTimed's periodic tick) finds zero outstanding downstream demand.
type BackpressureError struct {
	Op string
}

func (e *BackpressureError) Error() string {
	return fmt.Sprintf("reactive: %s: could not emit value due to lack of requests", e.Op)
}

// TimeoutError is delivered by the timeout operator when no fallback is
// configured and the configured timeout elapses without an item/signal.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reactive: %s: timed out waiting for upstream", e.Op)
}

// recoverAsError converts a recover()'d value into a *PanicError, or
// returns nil if there was nothing to recover (the common
// `if r := recover(); r != nil { err = recoverAsError(op, r) }` idiom).
func recoverAsError(op string, r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Op: op, Value: r}
}

// newCompositeError is a thin re-export so operator files don't need to
// import compositeerror directly just to build one.
func newCompositeError(causes ...error) *compositeerror.Error {
	return compositeerror.New(causes...)
}
