package reactive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportUndeliverable_DefaultsToNoopLogger(t *testing.T) {
	t.Cleanup(func() {
		SetLogger(nil)
		ResetErrorHook()
	})
	SetLogger(nil)
	ResetErrorHook()

	assert.NotPanics(t, func() {
		reportUndeliverable(errors.New("boom"))
	})
}

func TestReportUndeliverable_IgnoresNilError(t *testing.T) {
	var called bool
	SetErrorHook(func(err error) { called = true })
	t.Cleanup(ResetErrorHook)

	reportUndeliverable(nil)
	assert.False(t, called)
}

func TestSetErrorHook_OverridesDefaultRouting(t *testing.T) {
	var got error
	SetErrorHook(func(err error) { got = err })
	t.Cleanup(ResetErrorHook)

	boom := errors.New("boom")
	reportUndeliverable(boom)
	assert.Equal(t, boom, got)
}

func TestResetErrorHook_RestoresDefault(t *testing.T) {
	SetErrorHook(func(error) {})
	ResetErrorHook()

	var gotMsg string
	SetLogger(loggerFunc{
		errorFn: func(msg string, err error, fields map[string]any) { gotMsg = msg },
	})
	t.Cleanup(func() { SetLogger(nil) })

	reportUndeliverable(errors.New("boom"))
	assert.Equal(t, "reactive: undeliverable error", gotMsg)
}

type loggerFunc struct {
	errorFn func(msg string, err error, fields map[string]any)
	warnFn  func(msg string, fields map[string]any)
}

func (l loggerFunc) Error(msg string, err error, fields map[string]any) {
	if l.errorFn != nil {
		l.errorFn(msg, err, fields)
	}
}

func (l loggerFunc) Warn(msg string, fields map[string]any) {
	if l.warnFn != nil {
		l.warnFn(msg, fields)
	}
}

func TestNewZerologLogger_WritesErrorAndWarn(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	logger := NewZerologLogger(zl)

	logger.Error("something failed", errors.New("boom"), map[string]any{"op": "test"})
	require.Contains(t, buf.String(), "something failed")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	logger.Warn("heads up", map[string]any{"op": "test"})
	assert.Contains(t, buf.String(), "heads up")
}
