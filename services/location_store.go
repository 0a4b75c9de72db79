package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ticketshub/internal/status"
	"ticketshub/models"
	"ticketshub/monitoring"
	"ticketshub/storage"
	"ticketshub/utils"
)

const (
	DefaultDetectTimeout = 5 * time.Second

	// CurrentLocationLabel is selected by every detection attempt.
	CurrentLocationLabel = "Current Location"
)

// LocationStore owns the selected city for one tab and whether the city
// picker should be shown. Only the selection is persisted; visibility is
// recomputed from it on every load.
type LocationStore struct {
	storage       storage.Storage
	logger        *slog.Logger
	monitor       *monitoring.Monitor
	breaker       *utils.CircuitBreaker
	detectTimeout time.Duration

	mu           sync.Mutex
	city         string
	stateName    *string
	showSelector bool
}

func NewLocationStore(ctx context.Context, s storage.Storage, opts ...Option) (*LocationStore, error) {
	if s == nil {
		return nil, status.ErrStorageRequired
	}

	o := buildOptions(opts)
	if o.breaker == nil {
		o.breaker = utils.NewCircuitBreaker("location-detector")
	}

	store := &LocationStore{
		storage:       s,
		logger:        o.logger.With("store", "location"),
		monitor:       o.monitor,
		breaker:       o.breaker,
		detectTimeout: o.detectTimeout,
	}

	if err := store.Reload(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Reload reads the persisted selection again. A missing, corrupt or empty
// record leaves no city and opens the selector.
func (l *LocationStore) Reload(ctx context.Context) error {
	var sel models.LocationSelection
	found, err := storage.ReadJSON(ctx, l.storage, KeyLocation, &sel)
	if errors.Is(err, status.ErrCorruptRecord) {
		l.logger.Warn("Ignoring corrupt persisted value", "error", err, "key", KeyLocation)
		l.monitor.TrackCorruptRead(KeyLocation)
		found, err = false, nil
	}
	if err != nil {
		l.logger.Error("Failed to load location", "error", err)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !found || sel.City == "" {
		l.city, l.stateName = "", nil
		l.showSelector = true
		return nil
	}

	l.city = sel.City
	l.stateName = cloneString(sel.StateName)
	l.showSelector = false
	return nil
}

// SelectCity persists the selection and closes the selector. An empty
// stateName is stored as null. An empty city clears the selection instead.
func (l *LocationStore) SelectCity(ctx context.Context, city, stateName string) error {
	if city == "" {
		return l.ClearCity(ctx)
	}

	sel := models.LocationSelection{City: city}
	if stateName != "" {
		sel.StateName = &stateName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := storage.WriteJSON(ctx, l.storage, KeyLocation, sel); err != nil {
		l.logger.Error("Failed to persist location", "error", err, "city", city)
		return err
	}

	l.city = sel.City
	l.stateName = cloneString(sel.StateName)
	l.showSelector = false
	l.monitor.TrackLocationChange("select")
	l.logger.Info("City selected", "city", city, "state", stateName)
	return nil
}

// ClearCity removes the persisted selection and opens the selector.
func (l *LocationStore) ClearCity(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.storage.Remove(ctx, KeyLocation); err != nil {
		l.logger.Error("Failed to clear location", "error", err)
		return fmt.Errorf("remove %s: %w", KeyLocation, err)
	}

	l.city, l.stateName = "", nil
	l.showSelector = true
	l.monitor.TrackLocationChange("clear")
	return nil
}

func (l *LocationStore) OpenSelector() {
	l.mu.Lock()
	l.showSelector = true
	l.mu.Unlock()
}

func (l *LocationStore) CloseSelector() {
	l.mu.Lock()
	l.showSelector = false
	l.mu.Unlock()
}

func (l *LocationStore) City() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.city
}

// StateName returns "" when no state is on record.
func (l *LocationStore) StateName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stateName == nil {
		return ""
	}
	return *l.stateName
}

// Selection reports the current selection and whether there is one.
func (l *LocationStore) Selection() (models.LocationSelection, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.city == "" {
		return models.LocationSelection{}, false
	}
	return models.LocationSelection{City: l.city, StateName: cloneString(l.stateName)}, true
}

func (l *LocationStore) SelectorVisible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.showSelector
}

// DetectLocation runs a bounded, best-effort detection and then selects
// CurrentLocationLabel whatever the outcome. Only storage errors are returned.
func (l *LocationStore) DetectLocation(ctx context.Context, detector LocationDetector) error {
	start := time.Now()
	label, err := l.detect(ctx, detector)
	outcome := detectionOutcome(err)
	l.monitor.TrackDetection(outcome, time.Since(start).Seconds())

	if err != nil {
		l.logger.Warn("Location detection failed, using placeholder", "error", err, "outcome", outcome)
	} else {
		l.logger.Debug("Location detected", "label", label)
	}

	return l.SelectCity(ctx, CurrentLocationLabel, "")
}

func (l *LocationStore) detect(ctx context.Context, detector LocationDetector) (string, error) {
	if detector == nil {
		return "", status.ErrDetectorUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, l.detectTimeout)
	defer cancel()

	result, err := l.breaker.Execute(ctx, func() (any, error) {
		return detectWithin(ctx, detector)
	})
	if err != nil {
		return "", err
	}
	label, _ := result.(string)
	return label, nil
}

type detectResult struct {
	label string
	err   error
}

// detectWithin returns when the detector does or when ctx is done, whichever
// comes first. A detector that ignores ctx finishes in the background.
func detectWithin(ctx context.Context, detector LocationDetector) (string, error) {
	done := make(chan detectResult, 1)
	go func() {
		label, err := detector.Detect(ctx)
		done <- detectResult{label: label, err: err}
	}()

	select {
	case res := <-done:
		return res.label, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func detectionOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, status.ErrDetectorUnavailable):
		return "unavailable"
	case errors.Is(err, status.ErrCircuitOpen), errors.Is(err, status.ErrTooManyHalfOpenCalls):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "failure"
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
