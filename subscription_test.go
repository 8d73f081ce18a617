package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemand_AddSubGet(t *testing.T) {
	var d Demand
	prev := d.Add(3)
	assert.Equal(t, int64(0), prev)
	assert.Equal(t, int64(3), d.Get())

	d.Sub(1)
	assert.Equal(t, int64(2), d.Get())

	d.Sub(10)
	assert.Equal(t, int64(0), d.Get(), "Sub never goes negative")
}

func TestDemand_Unbounded(t *testing.T) {
	var d Demand
	d.SetUnbounded()
	assert.Equal(t, Unbounded, d.Get())
	d.Sub(1000)
	assert.Equal(t, Unbounded, d.Get(), "Unbounded demand is left untouched by Sub")
}

func TestDemand_AddSaturates(t *testing.T) {
	var d Demand
	d.Add(Unbounded - 1)
	d.Add(100)
	assert.Equal(t, Unbounded, d.Get())
}

type countingSubscription struct {
	cancelled int
}

func (s *countingSubscription) Request(int64) {}
func (s *countingSubscription) Cancel()       { s.cancelled++ }

func TestSubscriptionRef_SetThenCancel(t *testing.T) {
	var ref subscriptionRef
	sub := &countingSubscription{}
	assert.True(t, ref.Set(sub))
	assert.False(t, ref.IsCancelled())

	ref.Cancel()
	assert.True(t, ref.IsCancelled())
	assert.Equal(t, 1, sub.cancelled)

	ref.Cancel()
	assert.Equal(t, 1, sub.cancelled, "Cancel is idempotent")
}

func TestSubscriptionRef_SetAfterCancelIsCancelledImmediately(t *testing.T) {
	var ref subscriptionRef
	ref.Cancel()

	late := &countingSubscription{}
	assert.False(t, ref.Set(late))
	assert.Equal(t, 1, late.cancelled, "a late Set against a cancelled ref cancels its argument instead of storing it")
}

func TestSubscriptionRef_Replace(t *testing.T) {
	var ref subscriptionRef
	first := &countingSubscription{}
	second := &countingSubscription{}

	require := assert.New(t)
	require.True(ref.Set(first))
	require.True(ref.Replace(second))
	require.Equal(1, first.cancelled, "Replace cancels whatever was previously installed")
	require.Equal(0, second.cancelled)

	ref.Cancel()
	require.Equal(1, second.cancelled)
}
