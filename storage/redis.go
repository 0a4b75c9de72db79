package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "ticketshub:profile:"

// RedisStorage stores one Redis string per key, namespaced by profile:
// "<prefix><profile>:<key>". Values never expire.
type RedisStorage struct {
	Redis   *redis.Client
	prefix  string
	profile string
}

func NewRedisStorage(redisClient *redis.Client, prefix, profile string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStorage{Redis: redisClient, prefix: prefix, profile: profile}
}

func (s *RedisStorage) key(name string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, s.profile, name)
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Redis.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	return s.Redis.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	return s.Redis.Del(ctx, s.key(key)).Err()
}

// RedisNotifier publishes change events on the profile's pub/sub channel.
type RedisNotifier struct {
	Redis   *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisNotifier(redisClient *redis.Client, prefix, profile string, logger *slog.Logger) *RedisNotifier {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNotifier{
		Redis:   redisClient,
		channel: fmt.Sprintf("%s%s:changes", prefix, profile),
		logger:  logger,
	}
}

func (n *RedisNotifier) Channel() string {
	return n.channel
}

func (n *RedisNotifier) Publish(ctx context.Context, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.Redis.Publish(ctx, n.channel, string(data)).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, origin string) (<-chan ChangeEvent, error) {
	pubsub := n.Redis.Subscribe(ctx, n.channel)

	// Wait for the subscription confirmation so no write is missed between
	// Subscribe returning and the first read.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	out := make(chan ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				ev, err := decodeChangeEvent(msg.Payload)
				if err != nil {
					n.logger.Warn("Dropping malformed change event", "error", err, "channel", msg.Channel)
					continue
				}
				if ev.Origin == origin {
					continue
				}

				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return out, nil
}

// Close is a no-op: the Redis client is shared and closed by its owner.
func (n *RedisNotifier) Close() error {
	return nil
}

func decodeChangeEvent(payload string) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ChangeEvent{}, err
	}
	if ev.Key == "" {
		return ChangeEvent{}, fmt.Errorf("change event without key")
	}
	return ev, nil
}
