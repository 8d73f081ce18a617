package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingle_ExactlyOneItemPassesThrough(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	Single(Just(42)).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Equal(t, []int{42}, items)
	assert.NoError(t, err)
	assert.True(t, completed)
}

func TestSingle_NoItemsIsProtocolViolation(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	Single(Empty[int]()).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Empty(t, items)
	assert.False(t, completed)
	var pe *ProtocolViolationError
	assert.ErrorAs(t, err, &pe)
}

func TestSingle_MoreThanOneItemIsProtocolViolation(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	Single(FromIterable([]int{1, 2})).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Empty(t, items)
	assert.False(t, completed)
	var pe *ProtocolViolationError
	assert.ErrorAs(t, err, &pe)
}

func TestSingle_UpstreamErrorPropagates(t *testing.T) {
	boom := assert.AnError
	c := newRecordingConsumer[int](Unbounded)
	Single(Err[int](boom)).Subscribe(c)

	_, err, completed := c.snapshot()
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
}
