package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToList_CollectsAllItemsIntoOneSlice(t *testing.T) {
	c := newRecordingConsumer[[]int](Unbounded)
	ToList(FromIterable([]int{1, 2, 3, 4})).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, [][]int{{1, 2, 3, 4}}, items)
}

func TestToList_EmptySourceYieldsEmptySlice(t *testing.T) {
	c := newRecordingConsumer[[]int](Unbounded)
	ToList(Empty[int]()).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.True(t, completed)
	assert.Len(t, items, 1)
	assert.Empty(t, items[0])
}

func TestToList_UpstreamErrorPropagatesWithoutEmittingList(t *testing.T) {
	boom := assert.AnError
	c := newRecordingConsumer[[]int](Unbounded)
	ToList(Err[int](boom)).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Empty(t, items)
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
}
