package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"event-management-api/internal/model"
)

type pgTx struct {
	tx pgx.Tx
}

// LockEvent takes a row lock on the event; concurrent registrations for the
// same event queue here until the holder commits or rolls back.
func (t *pgTx) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, t.tx, id, true)
}

func (t *pgTx) UserByID(ctx context.Context, id string) (*model.User, error) {
	return userByID(ctx, t.tx, id)
}

func (t *pgTx) RegistrationExists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2
		)`, eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

func (t *pgTx) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	return countRegistrations(ctx, t.tx, eventID)
}

func (t *pgTx) InsertRegistration(ctx context.Context, r *model.Registration) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO event_registrations (event_id, user_id, registered_at) VALUES ($1,$2,$3)`,
		r.EventID, r.UserID, r.RegisteredAt,
	)
	if isUniqueViolation(err) {
		return model.ErrAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	r := &model.Registration{}
	err := t.tx.QueryRow(ctx,
		`DELETE FROM event_registrations
		 WHERE event_id = $1 AND user_id = $2
		 RETURNING event_id, user_id, registered_at`, eventID, userID,
	).Scan(&r.EventID, &r.UserID, &r.RegisteredAt)
	if err != nil {
		return nil, notFound(err, model.ErrRegistrationNotFound, "delete registration")
	}
	r.RegisteredAt = r.RegisteredAt.UTC()
	return r, nil
}
