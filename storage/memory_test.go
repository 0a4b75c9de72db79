package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_GetMissing(t *testing.T) {
	s := NewMemoryStorage()

	data, err := s.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryStorage_SetGetRemove(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	require.NoError(t, s.Set(ctx, "k", []byte("v2")))

	data, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Remove(ctx, "k"))

	data, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryStorage_ValuesAreCopied(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	out[1] = 'y'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryNotifier_SkipsOrigin(t *testing.T) {
	n := NewMemoryNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tabA, err := n.Subscribe(ctx, "tab-a")
	require.NoError(t, err)
	tabB, err := n.Subscribe(ctx, "tab-b")
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, ChangeEvent{Key: "ticketshub_user", Origin: "tab-a"}))

	select {
	case ev := <-tabB:
		assert.Equal(t, "ticketshub_user", ev.Key)
		assert.Equal(t, "tab-a", ev.Origin)
	case <-time.After(time.Second):
		t.Fatal("tab-b did not receive the change")
	}

	select {
	case ev := <-tabA:
		t.Fatalf("origin tab received its own change: %+v", ev)
	default:
	}
}

func TestMemoryNotifier_UnsubscribeOnCancel(t *testing.T) {
	n := NewMemoryNotifier()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := n.Subscribe(ctx, "tab-a")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel was not closed")
	}

	assert.NoError(t, n.Publish(context.Background(), ChangeEvent{Key: "k", Origin: "tab-b"}))
}

func TestMemoryNotifier_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	n := NewMemoryNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := n.Subscribe(ctx, "tab-a")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, n.Publish(ctx, ChangeEvent{Key: "k", Origin: "tab-b"}))
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestMemoryNotifier_Close(t *testing.T) {
	n := NewMemoryNotifier()

	ch, err := n.Subscribe(context.Background(), "tab-a")
	require.NoError(t, err)
	require.NoError(t, n.Close())

	_, ok := <-ch
	assert.False(t, ok)

	assert.Error(t, n.Publish(context.Background(), ChangeEvent{Key: "k"}))
	_, err = n.Subscribe(context.Background(), "tab-b")
	assert.Error(t, err)
}
