package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"ticketshub/internal/status"
)

// ReadJSON decodes the value stored under key into v.
// It reports false with a nil error when the key is missing, and false with
// an error wrapping status.ErrCorruptRecord when the value does not parse.
// Backend failures are returned as they are.
func ReadJSON(ctx context.Context, s Storage, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if raw == nil {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", status.ErrCorruptRecord, key, err)
	}
	return true, nil
}

func WriteJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SyncJSON writes v under key only when the stored bytes differ from its
// encoding, so converged tabs stop announcing changes to each other.
// It reports whether a write happened.
func SyncJSON(ctx context.Context, s Storage, key string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}

	current, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if current != nil && bytes.Equal(current, data) {
		return false, nil
	}

	if err := s.Set(ctx, key, data); err != nil {
		return false, fmt.Errorf("write %s: %w", key, err)
	}
	return true, nil
}
