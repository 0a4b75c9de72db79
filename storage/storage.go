// Package storage is the persisted key/value layer shared by every tab of a
// profile, plus the change notifications that keep those tabs in step.
//
// A Storage behaves like browser local storage: string keys, opaque values,
// no transactions across keys. A Notifier plays the role of the platform
// "storage" event: every write is announced to the other tabs of the same
// profile, never back to the tab that made it.
package storage

import (
	"context"
	"log/slog"
	"time"
)

// Storage is a string-keyed value store.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns (nil, nil) when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// ChangeEvent announces that Key was written or removed by the tab Origin.
type ChangeEvent struct {
	Key    string    `json:"key"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// Notifier carries change events between tabs.
type Notifier interface {
	Publish(ctx context.Context, ev ChangeEvent) error

	// Subscribe delivers events published by any origin other than the
	// given one. The channel is closed once ctx is done.
	Subscribe(ctx context.Context, origin string) (<-chan ChangeEvent, error)

	Close() error
}

// subscriberBuffer bounds pending events per subscriber. A full buffer
// already guarantees a later reconcile, so extra events are dropped.
const subscriberBuffer = 16

type notifyingStorage struct {
	Storage
	notifier Notifier
	origin   string
	now      func() time.Time
	logger   *slog.Logger
}

// WithNotifier wraps s so that every successful write is published on n
// under the given origin. Publish failures are logged, not returned: the
// write itself already landed and the next focus signal reconciles anyway.
func WithNotifier(s Storage, n Notifier, origin string, logger *slog.Logger) Storage {
	if n == nil {
		return s
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &notifyingStorage{
		Storage:  s,
		notifier: n,
		origin:   origin,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

func (s *notifyingStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.Storage.Set(ctx, key, value); err != nil {
		return err
	}
	s.announce(ctx, key)
	return nil
}

func (s *notifyingStorage) Remove(ctx context.Context, key string) error {
	if err := s.Storage.Remove(ctx, key); err != nil {
		return err
	}
	s.announce(ctx, key)
	return nil
}

func (s *notifyingStorage) announce(ctx context.Context, key string) {
	ev := ChangeEvent{Key: key, Origin: s.origin, At: s.now()}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish storage change", "error", err, "key", key, "origin", s.origin)
	}
}
