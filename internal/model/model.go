package model

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the projection of a user that leaves the service boundary.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Datetime  time.Time `json:"datetime"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

type Registration struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegistrationDetails is a registration together with the event and user
// snapshots taken inside the same transaction.
type RegistrationDetails struct {
	Event        Event      `json:"event"`
	User         PublicUser `json:"user"`
	RegisteredAt time.Time  `json:"registered_at,omitzero"`
}

type EventDetails struct {
	Event         Event        `json:"event"`
	Registrations []PublicUser `json:"registrations"`
}

type EventStats struct {
	Event              Event  `json:"event"`
	TotalRegistrations int    `json:"total_registrations"`
	RemainingCapacity  int    `json:"remaining_capacity"`
	PercentFilled      string `json:"percent_filled"`
}
