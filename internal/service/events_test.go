package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-management-api/internal/model"
)

func TestCreateEvent(t *testing.T) {
	_, events, _ := newServices(t)
	ctx := context.Background()

	e, err := events.CreateEvent(ctx, CreateEventInput{
		Title:    " <b>Launch</b> & party ",
		Datetime: "2031-05-01T18:30:00Z",
		Location: "Berlin",
		Capacity: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "<b>Launch</b> & party", e.Title)
	assert.Equal(t, time.Date(2031, 5, 1, 18, 30, 0, 0, time.UTC), e.Datetime)

	got, err := events.store.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Datetime, got.Datetime)
	assert.Equal(t, 1000, got.Capacity)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, "Berlin", got.Location)
}

func TestCreateEventValidation(t *testing.T) {
	_, events, _ := newServices(t)

	valid := CreateEventInput{Title: "T", Datetime: "2031-05-01 10:00", Location: "L", Capacity: 10}
	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
	}{
		{"zero capacity", func(in *CreateEventInput) { in.Capacity = 0 }},
		{"negative capacity", func(in *CreateEventInput) { in.Capacity = -3 }},
		{"capacity over limit", func(in *CreateEventInput) { in.Capacity = 1001 }},
		{"missing title", func(in *CreateEventInput) { in.Title = "" }},
		{"missing location", func(in *CreateEventInput) { in.Location = " " }},
		{"missing datetime", func(in *CreateEventInput) { in.Datetime = "" }},
		{"unparseable datetime", func(in *CreateEventInput) { in.Datetime = "next tuesday" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := events.CreateEvent(context.Background(), in)
			assertValidation(t, err)
		})
	}
}

func TestRegisterUserToEvent(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()
	u := seedUser(t, st, 1)
	e := seedEvent(t, events, 24*time.Hour, 2)

	reg, err := events.RegisterUserToEvent(ctx, e.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, reg.Event.ID)
	assert.Equal(t, u.ID, reg.User.ID)
	assert.Equal(t, u.Email, reg.User.Email)
	assert.False(t, reg.RegisteredAt.IsZero())

	_, err = events.RegisterUserToEvent(ctx, e.ID, u.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyRegistered)

	n, err := st.CountRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegisterGateOrder(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()
	u1, u2 := seedUser(t, st, 1), seedUser(t, st, 2)

	t.Run("unknown event", func(t *testing.T) {
		_, err := events.RegisterUserToEvent(ctx, uuid.New().String(), u1.ID)
		assert.ErrorIs(t, err, model.ErrEventNotFound)
	})

	t.Run("past event wins over capacity", func(t *testing.T) {
		past := seedEvent(t, events, -time.Hour, 5)
		_, err := events.RegisterUserToEvent(ctx, past.ID, u1.ID)
		assert.ErrorIs(t, err, model.ErrPastEvent)
	})

	t.Run("already registered wins over full", func(t *testing.T) {
		e := seedEvent(t, events, time.Hour, 1)
		_, err := events.RegisterUserToEvent(ctx, e.ID, u1.ID)
		require.NoError(t, err)

		_, err = events.RegisterUserToEvent(ctx, e.ID, u1.ID)
		assert.ErrorIs(t, err, model.ErrAlreadyRegistered)

		_, err = events.RegisterUserToEvent(ctx, e.ID, u2.ID)
		assert.ErrorIs(t, err, model.ErrEventFull)
	})

	t.Run("unknown user", func(t *testing.T) {
		e := seedEvent(t, events, time.Hour, 1)
		_, err := events.RegisterUserToEvent(ctx, e.ID, uuid.New().String())
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})
}

func TestRegisterCapacityUnderContention(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()

	const capacity, contenders = 5, 25
	e := seedEvent(t, events, 24*time.Hour, capacity)
	users := make([]*model.User, contenders)
	for i := range users {
		users[i] = seedUser(t, st, i)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		full    int
		unknown []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := events.RegisterUserToEvent(ctx, e.ID, uid)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, model.ErrEventFull):
				full++
			default:
				unknown = append(unknown, err)
			}
		}(u.ID)
	}
	wg.Wait()

	require.Empty(t, unknown)
	assert.Equal(t, capacity, ok)
	assert.Equal(t, contenders-capacity, full)

	n, err := st.CountRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, n)
}

func TestCancelRegistration(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()
	u := seedUser(t, st, 1)
	e := seedEvent(t, events, 24*time.Hour, 1)

	_, err := events.CancelRegistration(ctx, e.ID, u.ID)
	assert.ErrorIs(t, err, model.ErrRegistrationNotFound)

	_, err = events.RegisterUserToEvent(ctx, e.ID, u.ID)
	require.NoError(t, err)

	reg, err := events.CancelRegistration(ctx, e.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, reg.Event.ID)
	assert.Equal(t, u.ID, reg.User.ID)

	n, err := st.CountRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// the freed seat can be taken again
	_, err = events.RegisterUserToEvent(ctx, e.ID, u.ID)
	require.NoError(t, err)

	_, err = events.CancelRegistration(ctx, uuid.New().String(), u.ID)
	assert.ErrorIs(t, err, model.ErrRegistrationNotFound)
}

func TestCancelLeavesOtherRegistrations(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()
	stay, leave := seedUser(t, st, 1), seedUser(t, st, 2)
	e := seedEvent(t, events, 24*time.Hour, 5)

	for _, u := range []*model.User{stay, leave} {
		_, err := events.RegisterUserToEvent(ctx, e.ID, u.ID)
		require.NoError(t, err)
	}

	_, err := events.CancelRegistration(ctx, e.ID, leave.ID)
	require.NoError(t, err)

	d, err := events.GetEventDetails(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.PublicUser{stay.Public()}, d.Registrations)

	n, err := st.CountRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = events.CancelRegistration(ctx, e.ID, leave.ID)
	assert.ErrorIs(t, err, model.ErrRegistrationNotFound)
}

func TestCancelPastEvent(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()
	u := seedUser(t, st, 1)
	e := seedEvent(t, events, time.Hour, 3)

	_, err := events.RegisterUserToEvent(ctx, e.ID, u.ID)
	require.NoError(t, err)

	events.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = events.CancelRegistration(ctx, e.ID, u.ID)
	assert.NoError(t, err)
}

func TestGetEventDetails(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()
	e := seedEvent(t, events, time.Hour, 3)

	d, err := events.GetEventDetails(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Registrations)

	u1, u2 := seedUser(t, st, 1), seedUser(t, st, 2)
	for _, u := range []*model.User{u1, u2} {
		_, err := events.RegisterUserToEvent(ctx, e.ID, u.ID)
		require.NoError(t, err)
	}

	d, err = events.GetEventDetails(ctx, e.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.PublicUser{u1.Public(), u2.Public()}, d.Registrations)

	_, err = events.GetEventDetails(ctx, uuid.New().String())
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestListUpcoming(t *testing.T) {
	_, events, _ := newServices(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Minute)
	create := func(title string, at time.Time, location string) {
		_, err := events.CreateEvent(ctx, CreateEventInput{
			Title: title, Datetime: at.Format(time.RFC3339), Location: location, Capacity: 10,
		})
		require.NoError(t, err)
	}
	create("later", base.Add(2*time.Hour), "A")
	create("tie-b", base, "B")
	create("tie-a", base, "A")
	create("gone", time.Now().Add(-time.Hour), "A")

	got, err := events.ListUpcoming(ctx)
	require.NoError(t, err)

	titles := make([]string, 0, len(got))
	for _, e := range got {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"tie-a", "tie-b", "later"}, titles)
}

func TestGetEventStats(t *testing.T) {
	_, events, st := newServices(t)
	ctx := context.Background()
	e := seedEvent(t, events, time.Hour, 10)

	for i := 0; i < 4; i++ {
		_, err := events.RegisterUserToEvent(ctx, e.ID, seedUser(t, st, i).ID)
		require.NoError(t, err)
	}

	stats, err := events.GetEventStats(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRegistrations)
	assert.Equal(t, 6, stats.RemainingCapacity)
	assert.Equal(t, "40.00%", stats.PercentFilled)

	_, err = events.GetEventStats(ctx, uuid.New().String())
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestPercentFilled(t *testing.T) {
	tests := []struct {
		count, capacity int
		want            string
	}{
		{0, 7, "0.00%"},
		{4, 10, "40.00%"},
		{1, 3, "33.33%"},
		{2, 3, "66.67%"},
		{1000, 1000, "100.00%"},
		// exact halves round up
		{1, 32, "3.13%"},
		{5, 32, "15.63%"},
		{13, 32, "40.63%"},
		{1, 800, "0.13%"},
		{1, 8, "12.50%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentFilled(tt.count, tt.capacity), "%d/%d", tt.count, tt.capacity)
	}
}
