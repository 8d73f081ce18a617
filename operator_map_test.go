package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_TransformsItems(t *testing.T) {
	c := newRecordingConsumer[string](Unbounded)
	Map(FromIterable([]int{1, 2, 3}), func(v int) (string, error) {
		return string(rune('a' + v - 1)), nil
	}).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, items)
	assert.True(t, completed)
}

func TestMap_FnErrorCancelsUpstreamAndErrorsDownstream(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	boom := assert.AnError
	Map(FromIterable([]int{1, 2, 3}), func(v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	}).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Equal(t, []int{1}, items)
	assert.Equal(t, boom, err)
	assert.False(t, completed)
}

func TestMap_RecoversPanicFromFn(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	Map(Just(1), func(int) (int, error) {
		panic("boom")
	}).Subscribe(c)

	_, err, _ := c.snapshot()
	var pe *PanicError
	assert.ErrorAs(t, err, &pe)
}

func TestFilter_DropsAndRerequests(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	Filter(FromIterable([]int{1, 2, 3, 4, 5}), func(v int) (bool, error) {
		return v%2 == 0, nil
	}).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.Equal(t, []int{2, 4}, items)
	assert.True(t, completed)
}

func TestFilter_FnErrorPropagates(t *testing.T) {
	c := newRecordingConsumer[int](Unbounded)
	boom := assert.AnError
	Filter(FromIterable([]int{1, 2}), func(v int) (bool, error) {
		return false, boom
	}).Subscribe(c)

	_, err, _ := c.snapshot()
	assert.Equal(t, boom, err)
}
