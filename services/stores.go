package services

import (
	"context"
	"errors"

	"ticketshub/storage"
)

// Stores is the per-tab pair of state managers sharing one storage.
type Stores struct {
	Session  *SessionStore
	Location *LocationStore
}

// NewStores builds the session store first and the location store second.
// The session store's reset hook is bound to Reset, so logging out brings
// both stores back to their freshly loaded state.
func NewStores(ctx context.Context, s storage.Storage, opts ...Option) (*Stores, error) {
	st := &Stores{}

	sessionOpts := append(append([]Option(nil), opts...), WithResetHook(st.Reset))
	session, err := NewSessionStore(ctx, s, sessionOpts...)
	if err != nil {
		return nil, err
	}

	location, err := NewLocationStore(ctx, s, opts...)
	if err != nil {
		return nil, err
	}

	st.Session = session
	st.Location = location
	return st, nil
}

// Reset reloads both stores from storage.
func (st *Stores) Reset(ctx context.Context) error {
	var errs []error
	if st.Session != nil {
		errs = append(errs, st.Session.Reconcile(ctx))
	}
	if st.Location != nil {
		errs = append(errs, st.Location.Reload(ctx))
	}
	return errors.Join(errs...)
}
