package postgres

import (
	"context"
	"fmt"
	"time"

	"event-management-api/internal/model"
)

const eventColumns = `id, title, datetime, location, capacity, created_at`

func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, title, datetime, location, capacity, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Title, e.Datetime, e.Location, e.Capacity, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, s.pool, id, false)
}

// getEvent reads one event; with lock set the row is held FOR UPDATE until
// the surrounding transaction ends.
func getEvent(ctx context.Context, q querier, id string, lock bool) (*model.Event, error) {
	sql := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	e := &model.Event{}
	err := q.QueryRow(ctx, sql, id).
		Scan(&e.ID, &e.Title, &e.Datetime, &e.Location, &e.Capacity, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err, model.ErrEventNotFound, "select event")
	}
	e.Datetime = e.Datetime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (s *Store) ListUpcoming(ctx context.Context, after time.Time) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE datetime > $1
		 ORDER BY datetime ASC, location ASC`, after,
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Datetime, &e.Location, &e.Capacity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Datetime = e.Datetime.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EventRegistrants(ctx context.Context, eventID string) ([]model.PublicUser, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email
		 FROM users u
		 JOIN event_registrations er ON er.user_id = u.id
		 WHERE er.event_id = $1`, eventID,
	)
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
	return countRegistrations(ctx, s.pool, eventID)
}

func countRegistrations(ctx context.Context, q querier, eventID string) (int, error) {
	var n int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}
