package completable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-reactive"
)

type recordingConsumer struct {
	sub       Subscription
	err       error
	completed bool
}

func (r *recordingConsumer) OnSubscribe(sub Subscription) { r.sub = sub }
func (r *recordingConsumer) OnError(err error)            { r.err = err }
func (r *recordingConsumer) OnComplete()                  { r.completed = true }

func TestComplete(t *testing.T) {
	r := &recordingConsumer{}
	Complete().Subscribe(r)
	assert.True(t, r.completed)
	assert.NoError(t, r.err)
}

func TestError(t *testing.T) {
	boom := errors.New("boom")
	r := &recordingConsumer{}
	Error(boom).Subscribe(r)
	assert.Equal(t, boom, r.err)
	assert.False(t, r.completed)
}

func TestNever(t *testing.T) {
	r := &recordingConsumer{}
	Never().Subscribe(r)
	assert.NoError(t, r.err)
	assert.False(t, r.completed)
	require.NotNil(t, r.sub)
}

func TestFromReactive_DiscardsItemsForwardsComplete(t *testing.T) {
	src := reactive.FromIterable([]int{1, 2, 3})
	r := &recordingConsumer{}
	FromReactive[int](src).Subscribe(r)
	assert.True(t, r.completed)
}

func TestFromReactive_ForwardsError(t *testing.T) {
	boom := errors.New("boom")
	src := reactive.Err[int](boom)
	r := &recordingConsumer{}
	FromReactive[int](src).Subscribe(r)
	assert.Equal(t, boom, r.err)
}

func TestAndThen_RunsSecondOnlyAfterFirstCompletes(t *testing.T) {
	var order []string
	first := ProducerFunc(func(c Consumer) {
		order = append(order, "first")
		c.OnSubscribe(noopSubscription{})
		c.OnComplete()
	})
	second := ProducerFunc(func(c Consumer) {
		order = append(order, "second")
		c.OnSubscribe(noopSubscription{})
		c.OnComplete()
	})

	r := &recordingConsumer{}
	AndThen(first, second).Subscribe(r)

	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, r.completed)
}

func TestAndThen_ErrorShortCircuitsSecond(t *testing.T) {
	boom := errors.New("boom")
	var secondRan bool
	first := Error(boom)
	second := ProducerFunc(func(c Consumer) {
		secondRan = true
		c.OnSubscribe(noopSubscription{})
		c.OnComplete()
	})

	r := &recordingConsumer{}
	AndThen(first, second).Subscribe(r)

	assert.Equal(t, boom, r.err)
	assert.False(t, secondRan)
}
