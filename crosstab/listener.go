// Package crosstab keeps a tab's in-memory state in step with storage that
// other tabs write to.
package crosstab

import (
	"context"
	"log/slog"

	"ticketshub/monitoring"
	"ticketshub/storage"
)

const (
	TriggerStorage = "storage"
	TriggerFocus   = "focus"
)

// Feed delivers change events written by tabs other than origin.
type Feed interface {
	Subscribe(ctx context.Context, origin string) (<-chan storage.ChangeEvent, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context) error
}

type ReconcilerFunc func(ctx context.Context) error

func (f ReconcilerFunc) Reconcile(ctx context.Context) error { return f(ctx) }

// Listener reconciles its target whenever a watched key changes in another
// tab or the tab regains focus. Both triggers are handled the same way.
type Listener struct {
	name    string
	feed    Feed
	origin  string
	target  Reconciler
	keys    map[string]struct{}
	focus   chan struct{}
	logger  *slog.Logger
	monitor *monitoring.Monitor
}

type Option func(*Listener)

// WithKeys limits storage triggers to the given keys. Without it every
// change triggers a reconcile.
func WithKeys(keys ...string) Option {
	return func(l *Listener) {
		for _, k := range keys {
			l.keys[k] = struct{}{}
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMonitor(m *monitoring.Monitor) Option {
	return func(l *Listener) { l.monitor = m }
}

// NewListener builds a listener for target. A nil feed leaves focus as the
// only trigger.
func NewListener(name string, feed Feed, origin string, target Reconciler, opts ...Option) *Listener {
	l := &Listener{
		name:   name,
		feed:   feed,
		origin: origin,
		target: target,
		keys:   make(map[string]struct{}),
		focus:  make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("listener", name, "origin", origin)
	return l
}

// NotifyFocus signals that the tab regained focus. Signals sent while one
// is already pending collapse into it.
func (l *Listener) NotifyFocus() {
	select {
	case l.focus <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done. Reconcile failures are logged and the loop
// keeps going; only a failed subscription is returned.
func (l *Listener) Run(ctx context.Context) error {
	var events <-chan storage.ChangeEvent
	if l.feed != nil {
		ch, err := l.feed.Subscribe(ctx, l.origin)
		if err != nil {
			l.logger.Error("Failed to subscribe to storage changes", "error", err)
			return err
		}
		events = ch
	}

	l.logger.Debug("Cross-tab listener started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("Cross-tab listener stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				// feed is gone; focus still works
				l.logger.Warn("Storage change feed closed")
				events = nil
				continue
			}
			if !l.watches(ev.Key) {
				continue
			}
			l.logger.Debug("Storage changed in another tab", "key", ev.Key, "from", ev.Origin)
			l.reconcile(ctx, TriggerStorage)

		case <-l.focus:
			l.reconcile(ctx, TriggerFocus)
		}
	}
}

func (l *Listener) watches(key string) bool {
	if len(l.keys) == 0 {
		return true
	}
	_, ok := l.keys[key]
	return ok
}

func (l *Listener) reconcile(ctx context.Context, trigger string) {
	if err := l.target.Reconcile(ctx); err != nil {
		l.monitor.TrackReconcile(l.name, trigger, "error")
		l.logger.Error("Failed to reconcile", "error", err, "trigger", trigger)
		return
	}
	l.monitor.TrackReconcile(l.name, trigger, "success")
}
