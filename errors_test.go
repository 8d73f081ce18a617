package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverAsError(t *testing.T) {
	assert.Nil(t, recoverAsError("map", nil))

	err := recoverAsError("map", "boom")
	var pe *PanicError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "map", pe.Op)
	assert.Equal(t, "boom", pe.Value)
}

func TestPanicError_UnwrapsRecoveredError(t *testing.T) {
	inner := errors.New("inner failure")
	pe := &PanicError{Op: "filter", Value: inner}
	assert.Same(t, inner, pe.Unwrap())
	assert.True(t, errors.Is(pe, inner))
}

func TestPanicError_UnwrapNonError(t *testing.T) {
	pe := &PanicError{Op: "filter", Value: 42}
	assert.Nil(t, pe.Unwrap())
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&NullValueError{Op: "scanSeed"}).Error(), "scanSeed")
	assert.Contains(t, (&ProtocolViolationError{Op: "windowBoundary", Message: "double subscribe"}).Error(), "double subscribe")
	assert.Contains(t, (&BackpressureError{Op: "sampleTimed"}).Error(), "sampleTimed")
	assert.Contains(t, (&TimeoutError{Op: "timeout"}).Error(), "timed out")
}

func TestNewCompositeError(t *testing.T) {
	e1 := errors.New("first")
	e2 := errors.New("second")
	ce := newCompositeError(e1, e2)
	assert.True(t, errors.Is(ce, e1))
	assert.True(t, errors.Is(ce, e2))
}
