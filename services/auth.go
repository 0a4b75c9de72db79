package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ticketshub/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DemoEmail    = "demo@ticketshub.com"
	DemoPassword = "demo123"

	demoPhone  = "+91 98765 43210"
	demoAvatar = "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=150"
)

// Authenticator decides whether a credential pair signs in, and with which
// profile. The returned profile carries no tickets.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, bool)
}

// DemoAuthenticator accepts the demo account with its canned profile and any
// other non-empty email and password with a synthesized one.
type DemoAuthenticator struct {
	email        string
	passwordHash []byte
}

// NewDemoAuthenticator keeps only a bcrypt hash of the demo password.
func NewDemoAuthenticator(email, password string) (*DemoAuthenticator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	return &DemoAuthenticator{email: email, passwordHash: hash}, nil
}

// defaultAuthenticator is shared by stores built without WithAuthenticator,
// so the demo password is hashed once per process.
var defaultAuthenticator = sync.OnceValues(func() (*DemoAuthenticator, error) {
	return NewDemoAuthenticator(DemoEmail, DemoPassword)
})

func (a *DemoAuthenticator) Authenticate(_ context.Context, email, password string) (*models.User, bool) {
	if email == "" || password == "" {
		return nil, false
	}

	if email == a.email && bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil {
		return &models.User{
			ID:      "demo-user-1",
			Name:    "John Doe",
			Email:   a.email,
			Phone:   demoPhone,
			Avatar:  demoAvatar,
			Tickets: []models.Ticket{},
		}, true
	}

	name, _, _ := strings.Cut(email, "@")
	return &models.User{
		ID:      newUserID(),
		Name:    name,
		Email:   email,
		Phone:   demoPhone,
		Tickets: []models.Ticket{},
	}, true
}

func newUserID() string {
	return "user-" + uuid.NewString()
}

func newTicketID() string {
	return "ticket-" + uuid.NewString()
}
