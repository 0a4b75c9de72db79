package status

import "errors"

var (
	ErrStorageRequired = errors.New("store: persisted storage is required")
	ErrCorruptRecord   = errors.New("storage: persisted record is not valid json")
	ErrStorageClosed   = errors.New("storage: storage is closed")
)

var (
	ErrDetectionFailed      = errors.New("location: detection failed")
	ErrDetectorUnavailable  = errors.New("location: no detector available")
	ErrCircuitOpen          = errors.New("circuit breaker: circuit breaker is open")
	ErrTooManyHalfOpenCalls = errors.New("circuit breaker: too many requests when circuit breaker is half open")
)

var (
	ErrUnknownBackend   = errors.New("config: unknown storage backend")
	ErrUnknownTransport = errors.New("config: unknown sync transport")
)
