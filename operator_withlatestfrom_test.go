package reactive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithLatestFrom_DownstreamCancelTearsDownBothUpstreams(t *testing.T) {
	primary := &cancelTrackingProducer[int]{}
	secondary := &cancelTrackingProducer[int]{}

	c := newRecordingConsumer[int](0)
	WithLatestFrom[int, int, int](primary, secondary, func(a, b int) (int, error) {
		return a + b, nil
	}).Subscribe(c)
	require.NotNil(t, c.sub)

	c.sub.Cancel()

	require.True(t, primary.isCancelled(), "cancelling downstream must cancel the primary subscription")
	require.True(t, secondary.isCancelled(), "cancelling downstream must cancel the secondary subscription too, not just primary")
}
