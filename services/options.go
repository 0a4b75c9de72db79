package services

import (
	"context"
	"log/slog"
	"time"

	"ticketshub/monitoring"
	"ticketshub/utils"
)

// Persisted keys, scoped to one profile by the storage backend.
const (
	KeyUser     = "ticketshub_user"
	KeyTickets  = "ticketshub_tickets"
	KeyLocation = "selected_location"
)

type storeOptions struct {
	logger        *slog.Logger
	monitor       *monitoring.Monitor
	clock         utils.Clock
	auth          Authenticator
	resetHook     func(ctx context.Context) error
	breaker       *utils.CircuitBreaker
	detectTimeout time.Duration
}

// Option configures a SessionStore or LocationStore. Options that do not
// apply to a store are ignored by it.
type Option func(*storeOptions)

func WithLogger(logger *slog.Logger) Option {
	return func(o *storeOptions) { o.logger = logger }
}

func WithMonitor(m *monitoring.Monitor) Option {
	return func(o *storeOptions) { o.monitor = m }
}

func WithClock(c utils.Clock) Option {
	return func(o *storeOptions) { o.clock = c }
}

// WithAuthenticator replaces the demo credential rule used by Login.
func WithAuthenticator(a Authenticator) Option {
	return func(o *storeOptions) { o.auth = a }
}

// WithResetHook sets the function Logout calls once the user is signed out.
func WithResetHook(hook func(ctx context.Context) error) Option {
	return func(o *storeOptions) { o.resetHook = hook }
}

// WithDetectionBreaker guards location detection with cb.
func WithDetectionBreaker(cb *utils.CircuitBreaker) Option {
	return func(o *storeOptions) { o.breaker = cb }
}

func WithDetectTimeout(d time.Duration) Option {
	return func(o *storeOptions) { o.detectTimeout = d }
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{
		logger:        slog.Default(),
		clock:         utils.NewSystemClock(),
		detectTimeout: DefaultDetectTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.clock == nil {
		o.clock = utils.NewSystemClock()
	}
	if o.detectTimeout <= 0 {
		o.detectTimeout = DefaultDetectTimeout
	}
	return o
}
