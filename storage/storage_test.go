package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	events []ChangeEvent
	err    error
}

func (r *recordingNotifier) Publish(_ context.Context, ev ChangeEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingNotifier) Subscribe(context.Context, string) (<-chan ChangeEvent, error) {
	return nil, errors.New("not supported")
}

func (r *recordingNotifier) Close() error { return nil }

func TestWithNotifier_PublishesAfterWrites(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	s := WithNotifier(NewMemoryStorage(), n, "tab-a", nil)

	require.NoError(t, s.Set(ctx, "ticketshub_user", []byte(`{}`)))
	require.NoError(t, s.Remove(ctx, "ticketshub_user"))

	require.Len(t, n.events, 2)
	for _, ev := range n.events {
		assert.Equal(t, "ticketshub_user", ev.Key)
		assert.Equal(t, "tab-a", ev.Origin)
		assert.WithinDuration(t, time.Now(), ev.At, time.Minute)
	}
}

func TestWithNotifier_NoPublishOnFailedWrite(t *testing.T) {
	n := &recordingNotifier{}
	s := WithNotifier(failingStorage{err: errors.New("quota exceeded")}, n, "tab-a", nil)

	assert.Error(t, s.Set(context.Background(), "k", []byte("v")))
	assert.Error(t, s.Remove(context.Background(), "k"))
	assert.Empty(t, n.events)
}

func TestWithNotifier_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStorage()
	s := WithNotifier(mem, &recordingNotifier{err: errors.New("pubsub down")}, "tab-a", nil)

	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	data, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
}

func TestWithNotifier_NilNotifier(t *testing.T) {
	mem := NewMemoryStorage()
	assert.Same(t, mem, WithNotifier(mem, nil, "tab-a", nil))
}

func TestWithNotifier_CrossTabDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shared := NewMemoryStorage()
	hub := NewMemoryNotifier()
	tabA := WithNotifier(shared, hub, "tab-a", nil)

	events, err := hub.Subscribe(ctx, "tab-b")
	require.NoError(t, err)

	require.NoError(t, tabA.Set(ctx, "selected_location", []byte(`{"city":"Pune"}`)))

	select {
	case ev := <-events:
		assert.Equal(t, "selected_location", ev.Key)
	case <-time.After(time.Second):
		t.Fatal("change was not delivered to the other tab")
	}
}
