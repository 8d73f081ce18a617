package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMap_KeysByLength(t *testing.T) {
	c := newRecordingConsumer[map[int]string](Unbounded)
	ToMap(FromIterable([]string{"a", "bb", "ccc", "dddd"}),
		func(s string) (int, error) { return len(s), nil },
		func(s string) (string, error) { return s, nil },
	).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, []map[int]string{{1: "a", 2: "bb", 3: "ccc", 4: "dddd"}}, items)
}

func TestToMap_LaterKeyCollisionOverwritesEarlier(t *testing.T) {
	c := newRecordingConsumer[map[int]string](Unbounded)
	ToMap(FromIterable([]string{"a", "b"}),
		func(s string) (int, error) { return 1, nil },
		func(s string) (string, error) { return s, nil },
	).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.True(t, completed)
	assert.Equal(t, []map[int]string{{1: "b"}}, items)
}

func TestToMap_KeyFnErrorAbortsAccumulation(t *testing.T) {
	boom := assert.AnError
	c := newRecordingConsumer[map[int]string](Unbounded)
	ToMap(FromIterable([]string{"a", "b"}),
		func(s string) (int, error) { return 0, boom },
		func(s string) (string, error) { return s, nil },
	).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Empty(t, items)
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
}

func TestToMap_ValueFnErrorAbortsAccumulation(t *testing.T) {
	boom := assert.AnError
	c := newRecordingConsumer[map[int]string](Unbounded)
	ToMap(FromIterable([]string{"a", "b"}),
		func(s string) (int, error) { return len(s), nil },
		func(s string) (string, error) { return "", boom },
	).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Empty(t, items)
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
}
