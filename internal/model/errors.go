package model

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	ErrDuplicateEmail    = errors.New("email already exists")
	ErrAlreadyRegistered = errors.New("user already registered")

	ErrInvalidPassword = errors.New("incorrect password")
	ErrPastEvent       = errors.New("event already took place")
	ErrEventFull       = errors.New("event is full")
)

// ValidationError reports malformed or out-of-range input. Message is safe to
// show to the caller; Fields names the inputs that failed.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string { return e.Message }
