package storage

import (
	"context"
	"sync"

	"ticketshub/internal/status"
)

// MemoryStorage keeps values in process memory. Several tabs inside one
// process share a single instance, the way browser tabs share local storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

type memorySubscriber struct {
	origin string
	ch     chan ChangeEvent
}

// MemoryNotifier fans change events out to in-process subscribers.
type MemoryNotifier struct {
	mu     sync.Mutex
	subs   map[*memorySubscriber]struct{}
	closed bool
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[*memorySubscriber]struct{})}
}

func (n *MemoryNotifier) Publish(_ context.Context, ev ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return status.ErrStorageClosed
	}

	for sub := range n.subs {
		if sub.origin == ev.Origin {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(ctx context.Context, origin string) (<-chan ChangeEvent, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, status.ErrStorageClosed
	}

	sub := &memorySubscriber{origin: origin, ch: make(chan ChangeEvent, subscriberBuffer)}
	n.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		n.remove(sub)
	}()

	return sub.ch, nil
}

func (n *MemoryNotifier) remove(sub *memorySubscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.subs[sub]; !ok {
		return
	}
	delete(n.subs, sub)
	close(sub.ch)
}

// Close drops every subscriber and rejects further use.
func (n *MemoryNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for sub := range n.subs {
		delete(n.subs, sub)
		close(sub.ch)
	}
	return nil
}
