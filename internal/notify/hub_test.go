package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishesInSubscriptionOrder(t *testing.T) {
	var hub Hub[int]
	var got []string

	hub.Subscribe(func(v int) { got = append(got, "a") })
	hub.Subscribe(func(v int) { got = append(got, "b") })
	hub.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSubscriptionCancel(t *testing.T) {
	var hub Hub[string]
	calls := 0

	sub := hub.Subscribe(func(string) { calls++ })
	hub.Publish("x")
	sub.Cancel()
	sub.Cancel()
	hub.Publish("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, hub.Len())
}

func TestCancelDuringPublishSkipsLaterSubscriber(t *testing.T) {
	var hub Hub[int]
	var second *Subscription
	secondCalls := 0

	hub.Subscribe(func(int) { second.Cancel() })
	second = hub.Subscribe(func(int) { secondCalls++ })
	hub.Publish(1)

	assert.Equal(t, 0, secondCalls)
}

func TestSubscribeFromCallbackDoesNotDeadlock(t *testing.T) {
	var hub Hub[int]
	hub.Subscribe(func(int) {
		hub.Subscribe(func(int) {})
	})

	hub.Publish(1)
	require.Equal(t, 2, hub.Len())
}

func TestPublishFromCallbackDeliversAfterCurrentValue(t *testing.T) {
	var hub Hub[int]
	var got []int

	hub.Subscribe(func(v int) {
		got = append(got, v)
		if v == 1 {
			hub.Publish(2)
			got = append(got, -1)
		}
	})
	hub.Publish(1)

	assert.Equal(t, []int{1, -1, 2}, got)
}

func TestEnqueueWaitsForFlush(t *testing.T) {
	var hub Hub[string]
	var got []string
	hub.Subscribe(func(v string) { got = append(got, v) })

	hub.Enqueue("a")
	hub.Enqueue("b")
	assert.Empty(t, got)

	hub.Flush()
	assert.Equal(t, []string{"a", "b"}, got)

	hub.Flush()
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestNilSubscriptionCancel(t *testing.T) {
	var sub *Subscription
	assert.NotPanics(t, sub.Cancel)
}
