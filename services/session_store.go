package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ticketshub/internal/status"
	"ticketshub/models"
	"ticketshub/monitoring"
	"ticketshub/storage"
	"ticketshub/utils"
)

// SessionStore owns the signed-in user and the user's tickets for one tab.
//
// Two keys back it: the user record, which embeds the tickets, and a
// standalone ticket list that outlives sign-out. Every mutating operation
// starts from the freshest persisted snapshot, so a tab that missed a change
// notification still acts on what other tabs wrote.
type SessionStore struct {
	storage   storage.Storage
	auth      Authenticator
	clock     utils.Clock
	logger    *slog.Logger
	monitor   *monitoring.Monitor
	resetHook func(ctx context.Context) error

	mu   sync.Mutex
	user *models.User
}

// NewSessionStore builds the store and reconciles it with storage once,
// the way a freshly opened tab reads what earlier tabs left behind.
func NewSessionStore(ctx context.Context, s storage.Storage, opts ...Option) (*SessionStore, error) {
	if s == nil {
		return nil, status.ErrStorageRequired
	}

	o := buildOptions(opts)
	if o.auth == nil {
		auth, err := defaultAuthenticator()
		if err != nil {
			return nil, err
		}
		o.auth = auth
	}

	store := &SessionStore{
		storage:   s,
		auth:      o.auth,
		clock:     o.clock,
		logger:    o.logger.With("store", "session"),
		monitor:   o.monitor,
		resetHook: o.resetHook,
	}

	if err := store.Reconcile(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// User returns a copy of the signed-in user, or nil when signed out.
func (s *SessionStore) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Tickets returns a copy of the signed-in user's tickets. It is empty when
// signed out even if tickets are persisted for the next sign-in.
func (s *SessionStore) Tickets() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return []models.Ticket{}
	}
	return models.CloneTickets(s.user.Tickets)
}

// Reconcile re-derives the in-memory session from storage. It runs on
// construction, when the tab regains focus and when another tab writes.
func (s *SessionStore) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.refreshLocked(ctx)
	if err != nil {
		s.logger.Error("Failed to reconcile session", "error", err)
		return err
	}
	return nil
}

// Login signs in when the authenticator accepts the pair. The error is
// non-nil only when storage fails.
func (s *SessionStore) Login(ctx context.Context, email, password string) (bool, error) {
	profile, ok := s.auth.Authenticate(ctx, email, password)
	if !ok {
		s.monitor.TrackSessionOperation("login", "rejected")
		return false, nil
	}

	if err := s.signIn(ctx, profile); err != nil {
		s.monitor.TrackSessionOperation("login", "error")
		s.logger.Error("Failed to persist login", "error", err, "user_id", profile.ID)
		return false, err
	}

	s.monitor.TrackSessionOperation("login", "success")
	s.logger.Info("User signed in", "user_id", profile.ID)
	return true, nil
}

// Signup accepts any input and signs in with a fresh identity.
func (s *SessionStore) Signup(ctx context.Context, in models.SignupInput) (bool, error) {
	profile := &models.User{
		ID:      newUserID(),
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Tickets: []models.Ticket{},
	}

	if err := s.signIn(ctx, profile); err != nil {
		s.monitor.TrackSessionOperation("signup", "error")
		s.logger.Error("Failed to persist signup", "error", err, "user_id", profile.ID)
		return false, err
	}

	s.monitor.TrackSessionOperation("signup", "success")
	s.logger.Info("User signed up", "user_id", profile.ID)
	return true, nil
}

// signIn attaches the persisted ticket list to profile and persists both keys.
func (s *SessionStore) signIn(ctx context.Context, profile *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.readTickets(ctx)
	if err != nil {
		return err
	}

	next := profile.Clone()
	next.Tickets = tickets
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}

	s.setUserLocked(next)
	return nil
}

// Logout keeps the tickets on their own key, removes the user record and
// then runs the reset hook outside the lock.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		s.monitor.TrackSessionOperation("logout", "error")
		return err
	}

	if current != nil && len(current.Tickets) > 0 {
		if err := storage.WriteJSON(ctx, s.storage, KeyTickets, current.Tickets); err != nil {
			s.mu.Unlock()
			s.monitor.TrackSessionOperation("logout", "error")
			return err
		}
	}

	if err := s.storage.Remove(ctx, KeyUser); err != nil {
		s.mu.Unlock()
		s.monitor.TrackSessionOperation("logout", "error")
		return fmt.Errorf("remove %s: %w", KeyUser, err)
	}

	s.setUserLocked(nil)
	hook := s.resetHook
	s.mu.Unlock()

	s.monitor.TrackSessionOperation("logout", "success")
	s.logger.Info("User signed out")

	if hook == nil {
		return nil
	}
	if err := hook(ctx); err != nil {
		return fmt.Errorf("reset after logout: %w", err)
	}
	return nil
}

// AddTicket issues a confirmed ticket to the signed-in user. It returns nil
// without error when storage holds no signed-in user.
func (s *SessionStore) AddTicket(ctx context.Context, in models.TicketInput) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.refreshLocked(ctx)
	if err != nil {
		s.monitor.TrackSessionOperation("add_ticket", "error")
		return nil, err
	}
	if current == nil {
		s.monitor.TrackSessionOperation("add_ticket", "signed_out")
		s.logger.Debug("Ignoring ticket issuance without a signed-in user")
		return nil, nil
	}

	ticket := models.Ticket{
		ID:          newTicketID(),
		EventID:     in.EventID,
		EventTitle:  in.EventTitle,
		EventDate:   in.EventDate,
		EventTime:   in.EventTime,
		Venue:       in.Venue,
		Location:    in.Location,
		Quantity:    in.Quantity,
		TotalAmount: in.TotalAmount,
		BookingDate: s.clock.Now(),
		QRCode:      GenerateQRCode(in),
		Status:      models.TicketConfirmed,
	}
	if in.SeatNumbers != nil {
		ticket.SeatNumbers = append([]string(nil), in.SeatNumbers...)
	}

	next := current.Clone()
	next.Tickets = append(next.Tickets, ticket)
	if err := s.persistLocked(ctx, next); err != nil {
		s.monitor.TrackSessionOperation("add_ticket", "error")
		s.logger.Error("Failed to persist ticket", "error", err, "ticket_id", ticket.ID)
		return nil, err
	}

	s.setUserLocked(next)
	s.monitor.TrackSessionOperation("add_ticket", "success")
	s.monitor.TrackTicketIssued()
	s.logger.Info("Ticket issued", "ticket_id", ticket.ID, "event_id", ticket.EventID, "quantity", ticket.Quantity)

	out := models.CloneTickets([]models.Ticket{ticket})[0]
	return &out, nil
}

// refreshLocked loads the merged snapshot, converges the ticket key on it and
// adopts it as in-memory state. It returns the adopted user.
func (s *SessionStore) refreshLocked(ctx context.Context) (*models.User, error) {
	current, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	if current != nil {
		if _, err := storage.SyncJSON(ctx, s.storage, KeyTickets, current.Tickets); err != nil {
			return nil, err
		}
	}

	s.setUserLocked(current)
	return current.Clone(), nil
}

// loadLocked reads the user record and the ticket list independently and
// merges them. A nil user means storage holds no usable user record.
func (s *SessionStore) loadLocked(ctx context.Context) (*models.User, error) {
	var user models.User
	found, err := s.readRecord(ctx, KeyUser, &user)
	if err != nil {
		return nil, err
	}

	tickets, err := s.readTickets(ctx)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	user.Tickets = mergeTickets(tickets, user.Tickets)
	return &user, nil
}

// readTickets returns the standalone ticket list, empty when absent or corrupt.
func (s *SessionStore) readTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	found, err := s.readRecord(ctx, KeyTickets, &tickets)
	if err != nil {
		return nil, err
	}
	if !found || tickets == nil {
		return []models.Ticket{}, nil
	}
	return tickets, nil
}

// readRecord treats a corrupt value as missing. Backend errors pass through.
func (s *SessionStore) readRecord(ctx context.Context, key string, v any) (bool, error) {
	found, err := storage.ReadJSON(ctx, s.storage, key, v)
	if errors.Is(err, status.ErrCorruptRecord) {
		s.logger.Warn("Ignoring corrupt persisted value", "error", err, "key", key)
		s.monitor.TrackCorruptRead(key)
		return false, nil
	}
	return found, err
}

func (s *SessionStore) persistLocked(ctx context.Context, user *models.User) error {
	if err := storage.WriteJSON(ctx, s.storage, KeyUser, user); err != nil {
		return err
	}
	return storage.WriteJSON(ctx, s.storage, KeyTickets, user.Tickets)
}

func (s *SessionStore) setUserLocked(user *models.User) {
	s.user = user.Clone()
	if s.user == nil {
		s.monitor.TrackSession(false, 0)
		return
	}
	s.monitor.TrackSession(true, len(s.user.Tickets))
}

// mergeTickets picks the standalone list when it holds anything, otherwise
// the list embedded in the user record.
func mergeTickets(standalone, embedded []models.Ticket) []models.Ticket {
	if len(standalone) > 0 {
		return models.CloneTickets(standalone)
	}
	return models.CloneTickets(embedded)
}
