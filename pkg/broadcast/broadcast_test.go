package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miplata/core/pkg/broadcast"
)

func recvOne[T any](t *testing.T, sub *broadcast.Subscriber[T]) T {
	t.Helper()

	select {
	case v, ok := <-sub.Receive():
		require.True(t, ok, "channel closed before a value arrived")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

func TestSubscribeReplaysLatest(t *testing.T) {
	t.Parallel()

	b := broadcast.NewBroadcaster[int](4)
	defer b.Close()

	b.Publish(1)
	b.Publish(2)

	sub := b.Subscribe(context.Background())
	assert.Equal(t, 2, recvOne(t, sub), "late joiner must get the latest value immediately")
}

func TestSubscribeBeforeFirstPublish(t *testing.T) {
	t.Parallel()

	b := broadcast.NewBroadcaster[string](1)
	defer b.Close()

	sub := b.Subscribe(context.Background())
	select {
	case <-sub.Receive():
		t.Fatal("no value should arrive before the first publish")
	case <-time.After(20 * time.Millisecond):
	}

	b.Publish("hello")
	assert.Equal(t, "hello", recvOne(t, sub))
}

func TestFanOut(t *testing.T) {
	t.Parallel()

	b := broadcast.NewBroadcaster[int](4)
	defer b.Close()

	first := b.Subscribe(context.Background())
	second := b.Subscribe(context.Background())

	b.Publish(7)

	assert.Equal(t, 7, recvOne(t, first))
	assert.Equal(t, 7, recvOne(t, second))
}

func TestLast(t *testing.T) {
	t.Parallel()

	b := broadcast.NewBroadcaster[int](1)
	defer b.Close()

	_, ok := b.Last()
	assert.False(t, ok)

	b.Publish(42)
	v, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestContextCancelUnsubscribes(t *testing.T) {
	t.Parallel()

	b := broadcast.NewBroadcaster[int](1)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	cancel()

	// Channel closes once the cancellation is observed.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Receive():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestCloseIsIdempotentAndTerminal(t *testing.T) {
	t.Parallel()

	b := broadcast.NewBroadcaster[int](1)
	sub := b.Subscribe(context.Background())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-sub.Receive()
	assert.False(t, ok, "subscriber channel must be closed")

	// Post-close subscriptions come back already closed.
	late := b.Subscribe(context.Background())
	_, ok = <-late.Receive()
	assert.False(t, ok)

	// Publishing after close is a no-op.
	b.Publish(1)
	_, found := b.Last()
	assert.False(t, found)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	b := broadcast.NewBroadcaster[int](1)
	defer b.Close()

	sub := b.Subscribe(context.Background())

	b.Publish(1) // fills the buffer
	b.Publish(2) // overflows: subscriber is dropped and closed

	assert.Equal(t, 1, recvOne(t, sub))
	_, ok := <-sub.Receive()
	assert.False(t, ok, "dropped subscriber must be closed")
}
