// Package store defines the persistence contract shared by the postgres and
// sqlite backends.
package store

import (
	"context"
	"time"

	"event-management-api/internal/model"
)

// Store is the data-store handle injected into the services. Lookups return
// the model.Err*NotFound sentinels when a row is absent.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListUpcoming(ctx context.Context, after time.Time) ([]model.Event, error)
	EventRegistrants(ctx context.Context, eventID string) ([]model.PublicUser, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)

	// InTx runs fn inside a transaction. Event rows read through
	// Tx.LockEvent stay locked against other writers until fn returns, so
	// check-then-insert sequences for the same event never interleave.
	InTx(ctx context.Context, fn func(Tx) error) error

	Ping(ctx context.Context) error
	Close()
}

// Tx is the set of operations available inside InTx.
type Tx interface {
	LockEvent(ctx context.Context, id string) (*model.Event, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	RegistrationExists(ctx context.Context, eventID, userID string) (bool, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)
	// InsertRegistration returns model.ErrAlreadyRegistered when the pair
	// already exists.
	InsertRegistration(ctx context.Context, r *model.Registration) error
	DeleteRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error)
}
