package reactive

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestCombineLatest_CombinesOnceAllSourcesHaveValue(t *testing.T) {
	a := FromIterable([]int{1, 2})
	b := FromIterable([]int{10, 20})

	c := newRecordingConsumer[int](Unbounded)
	CombineLatest([]Producer[int]{a, b}, 8, false, func(snapshot []int) (int, error) {
		return snapshot[0] + snapshot[1], nil
	}).Subscribe(c)

	items, _, completed := c.snapshot()
	assert.True(t, completed)
	assert.NotEmpty(t, items)
	assert.Equal(t, 22, items[len(items)-1])
}

func TestCombineLatest_SourceCompletingWithoutValueEndsEarly(t *testing.T) {
	a := Empty[int]()
	b := FromIterable([]int{1, 2, 3})

	c := newRecordingConsumer[int](Unbounded)
	CombineLatest([]Producer[int]{a, b}, 8, false, func(snapshot []int) (int, error) {
		return snapshot[0] + snapshot[1], nil
	}).Subscribe(c)

	items, err, completed := c.snapshot()
	assert.Empty(t, items)
	assert.NoError(t, err)
	assert.True(t, completed)
}

func TestCombineLatest_ErrorPropagatesWithoutDelay(t *testing.T) {
	boom := assert.AnError
	a := Err[int](boom)
	b := Never[int]()

	c := newRecordingConsumer[int](Unbounded)
	CombineLatest([]Producer[int]{a, b}, 8, false, func(snapshot []int) (int, error) {
		return snapshot[0], nil
	}).Subscribe(c)

	_, err, _ := c.snapshot()
	assert.ErrorIs(t, err, boom)
}

// TestCombineLatest_ConcurrentFeeders runs the subscription inside an
// errgroup goroutine, with each source a custom Producer that emits its
// values from its own goroutine (Subscribe waits for that goroutine to
// finish before returning).
func TestCombineLatest_ConcurrentFeeders(t *testing.T) {
	mk := func(vals []int) Producer[int] {
		return ProducerFunc[int](func(c Consumer[int]) {
			c.OnSubscribe(noopSub{})
			var wg sync.WaitGroup
			var mu sync.Mutex
			wg.Add(1)
			go func() {
				defer wg.Done()
				mu.Lock()
				defer mu.Unlock()
				for _, v := range vals {
					c.OnNext(v)
				}
				c.OnComplete()
			}()
			wg.Wait()
		})
	}

	var g errgroup.Group
	results := make(chan int, 1)
	g.Go(func() error {
		c := newRecordingConsumer[int](Unbounded)
		CombineLatest([]Producer[int]{mk([]int{1, 2}), mk([]int{3, 4})}, 4, false, func(snapshot []int) (int, error) {
			return snapshot[0] * snapshot[1], nil
		}).Subscribe(c)
		items, _, _ := c.snapshot()
		if len(items) > 0 {
			results <- items[len(items)-1]
		} else {
			results <- -1
		}
		return nil
	})
	assert.NoError(t, g.Wait())
	close(results)
	v := <-results
	assert.NotEqual(t, -1, v)
}

type noopSub struct{}

func (noopSub) Request(int64) {}
func (noopSub) Cancel()       {}
