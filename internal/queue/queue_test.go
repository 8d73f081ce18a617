package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPSC_OfferPollOrder(t *testing.T) {
	q := NewSPSC[int](4)
	for i := 0; i < 4; i++ {
		require.True(t, q.Offer(i))
	}
	assert.False(t, q.Offer(4), "ring sized to capacity 4 is full")
	assert.Equal(t, 4, q.Len())

	for i := 0; i < 4; i++ {
		v, ok := q.Poll()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
	_, ok := q.Poll()
	assert.False(t, ok)
}

func TestSPSC_CapacityRoundsUpToPowerOfTwo(t *testing.T) {
	q := NewSPSC[int](5)
	for i := 0; i < 8; i++ {
		require.True(t, q.Offer(i))
	}
	assert.False(t, q.Offer(8))
}

func TestSPSC_ClearResets(t *testing.T) {
	q := NewSPSC[string](2)
	q.Offer("a")
	q.Clear()
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Len())
	assert.True(t, q.Offer("b"))
}

func TestSPSC_WrapsAroundRing(t *testing.T) {
	q := NewSPSC[int](2)
	require.True(t, q.Offer(1))
	require.True(t, q.Offer(2))
	v, _ := q.Poll()
	assert.Equal(t, 1, v)
	require.True(t, q.Offer(3))
	v, _ = q.Poll()
	assert.Equal(t, 2, v)
	v, _ = q.Poll()
	assert.Equal(t, 3, v)
}

func TestMPSC_FIFOAcrossChunkBoundary(t *testing.T) {
	q := NewMPSC[int]()
	const n = chunkSize*2 + 7
	for i := 0; i < n; i++ {
		q.Offer(i)
	}
	assert.Equal(t, n, q.Len())
	for i := 0; i < n; i++ {
		v, ok := q.Poll()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
}

func TestMPSC_ConcurrentProducersSingleConsumer(t *testing.T) {
	q := NewMPSC[int]()
	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Offer(i)
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		_, ok := q.Poll()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, producers*perProducer, count)
}

func TestMPSC_ClearResets(t *testing.T) {
	q := NewMPSC[int]()
	q.Offer(1)
	q.Clear()
	assert.True(t, q.IsEmpty())
	_, ok := q.Poll()
	assert.False(t, ok)
}
