package compositeerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyReturnsNil(t *testing.T) {
	assert.Nil(t, New())
}

func TestNew_DeduplicatesByIdentity(t *testing.T) {
	e1 := errors.New("boom")
	ce := New(e1, e1, e1)
	require.NotNil(t, ce)
	assert.Equal(t, 1, ce.Len())
	assert.Equal(t, []error{e1}, ce.Causes())
}

func TestNew_PreservesInsertionOrder(t *testing.T) {
	e1 := errors.New("a")
	e2 := errors.New("b")
	e3 := errors.New("c")
	ce := New(e1, e2, e3)
	assert.Equal(t, []error{e1, e2, e3}, ce.Causes())
}

func TestAppend_NilBecomesNullCauseError(t *testing.T) {
	ce := New(nil)
	require.NotNil(t, ce)
	assert.Equal(t, 1, ce.Len())
	var nc NullCauseError
	assert.ErrorAs(t, ce.Causes()[0], &nc)
}

func TestAppend_OnNilReceiverAllocates(t *testing.T) {
	var ce *Error
	ce = ce.Append(errors.New("first"))
	require.NotNil(t, ce)
	assert.Equal(t, 1, ce.Len())
}

func TestUnwrap_SupportsErrorsIs(t *testing.T) {
	e1 := errors.New("first")
	e2 := errors.New("second")
	ce := New(e1, e2)
	assert.True(t, errors.Is(ce, e1))
	assert.True(t, errors.Is(ce, e2))
	assert.False(t, errors.Is(ce, errors.New("unrelated")))
}

func TestIs_MatchesAnyAggregate(t *testing.T) {
	ce1 := New(errors.New("x"))
	ce2 := New(errors.New("y"))
	assert.True(t, ce1.Is(ce2))
}

func TestCause_FollowsUnwrapChain(t *testing.T) {
	base := errors.New("root")
	wrapped := fmt.Errorf("wrap: %w", base)
	ce := New(wrapped)

	chain := ce.Cause()
	assert.Equal(t, []error{wrapped, base}, chain)
}

func TestError_NilReceiverSafe(t *testing.T) {
	var ce *Error
	assert.Equal(t, 0, ce.Len())
	assert.Nil(t, ce.Causes())
	assert.Nil(t, ce.Unwrap())
	assert.Equal(t, "compositeerror: (empty)", ce.Error())
}

func TestError_MessageEnumeratesCauses(t *testing.T) {
	ce := New(errors.New("first"), errors.New("second"))
	msg := ce.Error()
	assert.Contains(t, msg, "2 cause(s)")
	assert.Contains(t, msg, "first")
	assert.Contains(t, msg, "second")
}
