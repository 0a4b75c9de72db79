package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"ticketshub/config"
	"ticketshub/monitoring"
	"ticketshub/services"
	"ticketshub/storage"
	"ticketshub/utils"

	"github.com/redis/go-redis/v9"
)

// tab is one open "browser tab": its own stores over the profile's shared
// storage, announcing writes under its own origin.
type tab struct {
	id       string
	stores   *services.Stores
	notifier storage.Notifier
	feed     storage.Notifier
	breaker  *utils.CircuitBreaker
	logger   *slog.Logger

	redis *redis.Client
}

// openTab wires storage, the change notifier and both stores from cfg.
// A non-nil base replaces the configured backend, so in-process tabs can
// share one storage.
func openTab(ctx context.Context, cfg *config.Config, logger *slog.Logger, monitor *monitoring.Monitor, base storage.Storage, notifier storage.Notifier) (*tab, error) {
	t := &tab{
		id:     cfg.TabID,
		logger: logger,
	}
	if t.id == "" {
		t.id = utils.NewTabID()
	}
	t.logger = logger.With("tab", t.id, "profile", cfg.ProfileID)

	if base == nil {
		var err error
		base, notifier, err = t.openBackend(cfg)
		if err != nil {
			t.Close()
			return nil, err
		}
		// only notifiers this tab created are closed with it
		t.notifier = notifier
	}
	t.feed = notifier

	auth, err := services.NewDemoAuthenticator(cfg.DemoEmail, cfg.DemoPassword)
	if err != nil {
		t.Close()
		return nil, err
	}

	t.breaker = utils.NewCircuitBreaker("location-detector")

	stores, err := services.NewStores(ctx,
		storage.WithNotifier(base, notifier, t.id, t.logger),
		services.WithLogger(t.logger),
		services.WithMonitor(monitor),
		services.WithAuthenticator(auth),
		services.WithDetectionBreaker(t.breaker),
		services.WithDetectTimeout(cfg.LocationDetectTimeout),
	)
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("open stores: %w", err)
	}
	t.stores = stores

	t.logger.Debug("Tab opened", "backend", cfg.StorageBackend, "sync", cfg.SyncTransport)
	return t, nil
}

func (t *tab) openBackend(cfg *config.Config) (storage.Storage, storage.Notifier, error) {
	var base storage.Storage

	switch cfg.StorageBackend {
	case config.BackendRedis:
		client, err := utils.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		t.redis = client
		base = storage.NewRedisStorage(client, cfg.RedisKeyPrefix, cfg.ProfileID)
	case config.BackendMemory:
		base = storage.NewMemoryStorage()
	}

	switch cfg.SyncTransport {
	case config.TransportRedis:
		return base, storage.NewRedisNotifier(t.redis, cfg.RedisKeyPrefix, cfg.ProfileID, t.logger), nil
	case config.TransportPubNub:
		return base, storage.NewPubNubNotifier(storage.PubNubConfig{
			PublishKey:    cfg.PubNubPublishKey,
			SubscribeKey:  cfg.PubNubSubscribeKey,
			SecretKey:     cfg.PubNubSecretKey,
			ChannelPrefix: cfg.PubNubChannelPrefix,
		}, cfg.ProfileID, t.id, t.logger), nil
	default:
		return base, nil, nil
	}
}

func (t *tab) Close() {
	if t.notifier != nil {
		if err := t.notifier.Close(); err != nil {
			t.logger.Warn("Failed to close notifier", "error", err)
		}
	}
	if t.redis != nil {
		if err := t.redis.Close(); err != nil {
			t.logger.Warn("Failed to close redis client", "error", err)
		}
	}
}

func (t *tab) session() *services.SessionStore {
	return t.stores.Session
}

func (t *tab) location() *services.LocationStore {
	return t.stores.Location
}
