package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"event-management-api/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, toMillis(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return model.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
		return nil, notFound(err, model.ErrUserNotFound, "select user")
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, datetime, location, capacity, created_at) VALUES (?,?,?,?,?,?)`,
		e.ID, e.Title, toMillis(e.Datetime), e.Location, e.Capacity, toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, s.db, id)
}

const eventColumns = `id, title, datetime, location, capacity, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (model.Event, error) {
	var (
		e                 model.Event
		datetime, created int64
	)
	if err := sc.Scan(&e.ID, &e.Title, &datetime, &e.Location, &e.Capacity, &created); err != nil {
		return e, err
	}
	e.Datetime = fromMillis(datetime)
	e.CreatedAt = fromMillis(created)
	return e, nil
}

func getEvent(ctx context.Context, q querier, id string) (*model.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, model.ErrEventNotFound, "select event")
	}
	return &e, nil
}

func (s *Store) ListUpcoming(ctx context.Context, after time.Time) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE datetime > ?
		 ORDER BY datetime ASC, location ASC`, toMillis(after))
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EventRegistrants(ctx context.Context, eventID string) ([]model.PublicUser, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email
		 FROM users u
		 JOIN event_registrations er ON er.user_id = u.id
		 WHERE er.event_id = ?`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	defer rows.Close()

	out := []model.PublicUser{}
	for rows.Next() {
		var u model.PublicUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan registrant: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	return countRegistrations(ctx, s.db, eventID)
}

func countRegistrations(ctx context.Context, q querier, eventID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = ?`, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

// LockEvent is a plain read: the transaction already owns the only
// connection, so no other writer can observe or change the event meanwhile.
func (t *sqliteTx) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, t.tx, id)
}

func (t *sqliteTx) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(t.tx.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (t *sqliteTx) RegistrationExists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM event_registrations WHERE event_id = ? AND user_id = ?)`,
		eventID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

func (t *sqliteTx) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	return countRegistrations(ctx, t.tx, eventID)
}

func (t *sqliteTx) InsertRegistration(ctx context.Context, r *model.Registration) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO event_registrations (event_id, user_id, registered_at) VALUES (?,?,?)`,
		r.EventID, r.UserID, toMillis(r.RegisteredAt))
	if isUniqueViolation(err) {
		return model.ErrAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	var (
		r          = &model.Registration{}
		registered int64
	)
	err := t.tx.QueryRowContext(ctx,
		`DELETE FROM event_registrations
		 WHERE event_id = ? AND user_id = ?
		 RETURNING event_id, user_id, registered_at`, eventID, userID,
	).Scan(&r.EventID, &r.UserID, &registered)
	if err != nil {
		return nil, notFound(err, model.ErrRegistrationNotFound, "delete registration")
	}
	r.RegisteredAt = fromMillis(registered)
	return r, nil
}
