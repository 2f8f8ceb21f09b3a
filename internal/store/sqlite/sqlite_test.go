package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-management-api/internal/model"
	"event-management-api/internal/store"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func newUser(email string) *model.User {
	return &model.User{
		ID:           uuid.New().String(),
		Name:         "u",
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestUserRoundTrip(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	u := newUser("a@x.com")
	require.NoError(t, st.CreateUser(ctx, u))

	got, err := st.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	assert.ErrorIs(t, st.CreateUser(ctx, newUser("a@x.com")), model.ErrDuplicateEmail)

	_, err = st.UserByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestRegistrationConstraints(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	u := newUser("a@x.com")
	require.NoError(t, st.CreateUser(ctx, u))
	e := &model.Event{
		ID:        uuid.New().String(),
		Title:     "t",
		Datetime:  time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond),
		Location:  "l",
		Capacity:  5,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, st.CreateEvent(ctx, e))

	r := &model.Registration{EventID: e.ID, UserID: u.ID, RegisteredAt: time.Now().UTC().Truncate(time.Millisecond)}
	insert := func(tx store.Tx) error { return tx.InsertRegistration(ctx, r) }

	require.NoError(t, st.InTx(ctx, insert))
	// the primary key catches a duplicate that slipped past the exists check
	assert.ErrorIs(t, st.InTx(ctx, insert), model.ErrAlreadyRegistered)

	n, err := st.CountRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var deleted *model.Registration
	require.NoError(t, st.InTx(ctx, func(tx store.Tx) error {
		var err error
		deleted, err = tx.DeleteRegistration(ctx, e.ID, u.ID)
		return err
	}))
	assert.Equal(t, u.ID, deleted.UserID)
	assert.True(t, r.RegisteredAt.Equal(deleted.RegisteredAt))
}

func TestCapacityCheckConstraint(t *testing.T) {
	st := openTest(t)
	e := &model.Event{ID: uuid.New().String(), Title: "t", Location: "l", Capacity: 0}
	assert.Error(t, st.CreateEvent(context.Background(), e))
}

func TestInTxRollsBack(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	u := newUser("a@x.com")
	require.NoError(t, st.CreateUser(ctx, u))
	e := &model.Event{
		ID: uuid.New().String(), Title: "t", Location: "l", Capacity: 1,
		Datetime: time.Now().UTC(), CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateEvent(ctx, e))

	err := st.InTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertRegistration(ctx, &model.Registration{EventID: e.ID, UserID: u.ID, RegisteredAt: time.Now()}); err != nil {
			return err
		}
		return model.ErrEventFull
	})
	assert.ErrorIs(t, err, model.ErrEventFull)

	n, err := st.CountRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
