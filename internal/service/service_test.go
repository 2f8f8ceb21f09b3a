package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-management-api/internal/auth"
	"event-management-api/internal/model"
	"event-management-api/internal/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func newServices(t *testing.T) (*AuthService, *EventService, *sqlite.Store) {
	t.Helper()
	st := newStore(t)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour, "test")
	return NewAuthService(st, tokens, zerolog.Nop()), NewEventService(st, zerolog.Nop()), st
}

// seedUser writes a user straight to the store, skipping bcrypt.
func seedUser(t *testing.T, st *sqlite.Store, n int) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Name:         fmt.Sprintf("user %d", n),
		Email:        fmt.Sprintf("user-%d-%s@test.com", n, uuid.New().String()[:8]),
		PasswordHash: "x",
		CreatedAt:    stamp(time.Now()),
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func seedEvent(t *testing.T, svc *EventService, in time.Duration, capacity int) *model.Event {
	t.Helper()
	e, err := svc.CreateEvent(context.Background(), CreateEventInput{
		Title:    "Go meetup",
		Datetime: time.Now().Add(in).UTC().Format(time.RFC3339),
		Location: "Hall A",
		Capacity: capacity,
	})
	require.NoError(t, err)
	return e
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}
