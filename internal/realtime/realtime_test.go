package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerDeliversToSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch, cancel, err := b.Subscribe(ctx, 1)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Publish(ctx, VoteEvent{ElectionID: 1, OptionID: 10}))

	select {
	case event := <-ch:
		assert.Equal(t, 1, event.ElectionID)
		assert.Equal(t, 10, event.OptionID)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestMemoryBrokerScopesByElection(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch, cancel, err := b.Subscribe(ctx, 2)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Publish(ctx, VoteEvent{ElectionID: 1, OptionID: 10}))

	select {
	case event := <-ch:
		t.Fatalf("event for another election leaked: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBrokerUnsubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	ch, cancel, err := b.Subscribe(ctx, 1)
	require.NoError(t, err)

	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")

	// Publishing after teardown must not panic.
	require.NoError(t, b.Publish(ctx, VoteEvent{ElectionID: 1, OptionID: 10}))
}

func TestCoalesceCollapsesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan VoteEvent, 16)
	out := Coalesce(ctx, in, 30*time.Millisecond)

	for i := 0; i < 10; i++ {
		in <- VoteEvent{ElectionID: 1, OptionID: i}
	}

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("no flush signal")
	}

	// The whole burst collapsed into the one signal.
	select {
	case <-out:
		t.Fatal("burst produced a second flush")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCoalesceSeparateBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan VoteEvent, 16)
	out := Coalesce(ctx, in, 10*time.Millisecond)

	in <- VoteEvent{ElectionID: 1}
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("no flush for first burst")
	}

	in <- VoteEvent{ElectionID: 1}
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("no flush for second burst")
	}
}

func TestCoalesceClosesOnInputClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan VoteEvent)
	out := Coalesce(ctx, in, 10*time.Millisecond)

	close(in)

	select {
	case _, open := <-out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestCoalesceClosesOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan VoteEvent)
	out := Coalesce(ctx, in, 10*time.Millisecond)

	cancel()

	select {
	case _, open := <-out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}
