package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ticketshub/models"
	"ticketshub/storage"
	"ticketshub/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBackendDown = errors.New("backend down")

var testAuth = sync.OnceValue(func() *DemoAuthenticator {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &DemoAuthenticator{email: DemoEmail, passwordHash: hash}
})

var bookedAt = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestSession(t *testing.T, s storage.Storage, opts ...Option) *SessionStore {
	t.Helper()
	opts = append([]Option{WithAuthenticator(testAuth()), WithClock(utils.NewFixedClock(bookedAt))}, opts...)
	store, err := NewSessionStore(context.Background(), s, opts...)
	require.NoError(t, err)
	return store
}

func newTicketInput(eventID int, title string) models.TicketInput {
	return models.TicketInput{
		EventID:     eventID,
		EventTitle:  title,
		EventDate:   "2024-06-15",
		EventTime:   "19:30",
		Venue:       "NSCI Dome",
		Location:    "Mumbai",
		Quantity:    2,
		TotalAmount: decimal.NewFromInt(3000),
		SeatNumbers: []string{"A1", "A2"},
	}
}

// flakyStorage wraps a MemoryStorage and fails chosen operations on demand.
type flakyStorage struct {
	*storage.MemoryStorage

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	failDel  bool
	setCalls int
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{MemoryStorage: storage.NewMemoryStorage()}
}

func (f *flakyStorage) fail(get, set, del bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet, f.failSet, f.failDel = get, set, del
}

func (f *flakyStorage) sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *flakyStorage) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, errBackendDown
	}
	return f.MemoryStorage.Get(ctx, key)
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failSet
	f.setCalls++
	f.mu.Unlock()
	if fail {
		return errBackendDown
	}
	return f.MemoryStorage.Set(ctx, key, value)
}

func (f *flakyStorage) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDel
	f.mu.Unlock()
	if fail {
		return errBackendDown
	}
	return f.MemoryStorage.Remove(ctx, key)
}
