// Package compositeerror aggregates one or more causes into a single error,
// the way combineLatest, merge and friends report concurrent upstream
// failures in delay-error mode.
//
// The aggregate preserves insertion order, de-duplicates by identity (the
// same error instance is never recorded twice), and replaces nil causes
// with a NullCauseError so callers never have to nil-check members.
package compositeerror

import (
	"errors"
	"strings"
)

// NullCauseError stands in for a nil error added to an Error, matching the
// spec's "a user function that returns nil where a value is required
// triggers a null-pointer error" treatment applied to causes as well.
type NullCauseError struct{}

func (NullCauseError) Error() string { return "compositeerror: null cause" }

// Error is an ordered, de-duplicated aggregate of one or more causes.
//
// The zero value is not usable; construct with New or Append.
type Error struct {
	causes []error
	seen   map[error]struct{}
}

// New builds an Error from zero or more causes, de-duplicating and
// replacing nils as they're appended. Returns nil if causes is empty,
// matching the common "wrap only if non-empty" idiom used by callers that
// accumulate errors across N sources and only want to fail if any arrived.
func New(causes ...error) *Error {
	if len(causes) == 0 {
		return nil
	}
	e := &Error{seen: make(map[error]struct{}, len(causes))}
	for _, c := range causes {
		e.Append(c)
	}
	return e
}

// Append adds a cause, skipping exact duplicates (by identity/equality) and
// substituting NullCauseError for nil. Safe to call on a nil *Error — the
// result must be (re)assigned, the same way append(slice, x) must be,
// since the first call on a nil receiver allocates.
func (e *Error) Append(cause error) *Error {
	if e == nil {
		e = &Error{}
	}
	if cause == nil {
		cause = NullCauseError{}
	}
	if e.seen == nil {
		e.seen = make(map[error]struct{})
	}
	if _, dup := e.seen[cause]; dup {
		return e
	}
	e.seen[cause] = struct{}{}
	e.causes = append(e.causes, cause)
	return e
}

// Causes returns the ordered, de-duplicated list of causes. The returned
// slice must not be mutated.
func (e *Error) Causes() []error {
	if e == nil {
		return nil
	}
	return e.causes
}

// Len returns the number of distinct causes.
func (e *Error) Len() int {
	if e == nil {
		return 0
	}
	return len(e.causes)
}

// Error implements the error interface, enumerating every member.
func (e *Error) Error() string {
	if e == nil || len(e.causes) == 0 {
		return "compositeerror: (empty)"
	}
	var b strings.Builder
	b.WriteString("compositeerror: ")
	b.WriteString(itoa(len(e.causes)))
	b.WriteString(" cause(s): ")
	for i, c := range e.causes {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(c.Error())
	}
	return b.String()
}

// Unwrap exposes every cause for errors.Is / errors.As (Go 1.20+ multi-unwrap).
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	return e.causes
}

// Is reports whether target is itself a *Error (regardless of contents),
// mirroring the common "aggregate type matches any aggregate" convention,
// in addition to the standard per-cause matching errors.Is already performs
// via Unwrap.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t)
}

// Cause lazily builds the causal chain for diagnostics: the first cause,
// then its own Unwrap() chain, stopping the instant a node is revisited so
// a cycle (deliberately constructed or otherwise) can never loop forever.
func (e *Error) Cause() []error {
	if e == nil || len(e.causes) == 0 {
		return nil
	}
	var (
		chain []error
		seen  = make(map[error]struct{})
		cur   = e.causes[0]
	)
	for cur != nil {
		if _, visited := seen[cur]; visited {
			break
		}
		seen[cur] = struct{}{}
		chain = append(chain, cur)
		cur = errors.Unwrap(cur)
	}
	return chain
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}
