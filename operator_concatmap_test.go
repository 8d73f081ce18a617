package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatMap_FlattensSequentially(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	ConcatMap(FromIterable([]int{1, 2, 3}), 2, func(v int) (Producer[int], error) {
		return FromIterable([]int{v, v * 10}), nil
	}).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.Equal(t, []int{1, 10, 2, 20, 3, 30}, items)
	assert.True(t, completed)
}

func TestConcatMap_ManySynchronousInnersDoNotOverflowStack(t *testing.T) {
	vals := make([]int, 10000)
	for i := range vals {
		vals[i] = i
	}
	c := newRecordingConsumer[int](Unbounded)
	ConcatMap(FromIterable(vals), 4, func(v int) (Producer[int], error) {
		return Just(v), nil
	}).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.Len(t, items, len(vals))
	assert.True(t, completed)
}

func TestConcatMap_FnErrorPropagates(t *testing.T) {
	boom := assert.AnError
	c := newRecordingConsumer[int](Unbounded)
	ConcatMap(FromIterable([]int{1, 2}), 2, func(v int) (Producer[int], error) {
		if v == 2 {
			return nil, boom
		}
		return Just(v), nil
	}).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Equal(t, []int{1}, items)
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
}

func TestConcatMap_InnerErrorPropagates(t *testing.T) {
	boom := assert.AnError
	c := newRecordingConsumer[int](Unbounded)
	ConcatMap(FromIterable([]int{1, 2}), 2, func(v int) (Producer[int], error) {
		if v == 2 {
			return Err[int](boom), nil
		}
		return Just(v), nil
	}).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Equal(t, []int{1}, items)
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
}
