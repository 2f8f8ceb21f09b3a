package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"event-management-api/internal/metrics"
	"event-management-api/internal/model"
	"event-management-api/internal/store"
	"event-management-api/internal/telemetry"
)

const msgInvalidEvent = "Invalid input data for event creation"

// EventService owns event creation and the capacity-checked registration
// flow. Registration and cancellation run inside store transactions that
// lock the event, so registrations(event) never exceeds capacity.
type EventService struct {
	store    store.Store
	validate *validator.Validate
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewEventService(st store.Store, logger zerolog.Logger) *EventService {
	return &EventService{
		store:    st,
		validate: validator.New(),
		logger:   logger.With().Str("component", "events").Logger(),
		tracer:   telemetry.Tracer("event-management-api/internal/service"),
		now:      time.Now,
	}
}

type CreateEventInput struct {
	Title    string `validate:"required"`
	Datetime string `validate:"required"`
	Location string `validate:"required"`
	Capacity int    `validate:"gt=0,lte=1000"`
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*model.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	if err := check(s.validate, in, msgInvalidEvent); err != nil {
		return nil, err
	}
	at, ok := parseDatetime(in.Datetime)
	if !ok {
		return nil, &model.ValidationError{Message: msgInvalidEvent, Fields: []string{"datetime"}}
	}

	e := &model.Event{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Datetime:  stamp(at),
		Location:  in.Location,
		Capacity:  in.Capacity,
		CreatedAt: stamp(s.now()),
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info().Str("event_id", e.ID).Int("capacity", e.Capacity).Msg("event created")
	return e, nil
}

func (s *EventService) GetEventDetails(ctx context.Context, eventID string) (*model.EventDetails, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	users, err := s.store.EventRegistrants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &model.EventDetails{Event: *e, Registrations: users}, nil
}

// ListUpcoming returns events strictly in the future, soonest first, ties
// broken by location.
func (s *EventService) ListUpcoming(ctx context.Context) ([]model.Event, error) {
	return s.store.ListUpcoming(ctx, s.now())
}

// RegisterUserToEvent applies the gates in order: event exists, event not
// past, pair not registered, seats left. All of them and the insert run under
// the event lock.
func (s *EventService) RegisterUserToEvent(ctx context.Context, eventID, userID string) (*model.RegistrationDetails, error) {
	ctx, span := s.tracer.Start(ctx, "events.register", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	now := s.now()
	var out *model.RegistrationDetails
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		e, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if e.Datetime.Before(now) {
			return model.ErrPastEvent
		}

		exists, err := tx.RegistrationExists(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrAlreadyRegistered
		}

		n, err := tx.CountRegistrations(ctx, eventID)
		if err != nil {
			return err
		}
		if n >= e.Capacity {
			return model.ErrEventFull
		}

		u, err := tx.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		r := &model.Registration{EventID: eventID, UserID: userID, RegisteredAt: stamp(now)}
		if err := tx.InsertRegistration(ctx, r); err != nil {
			return err
		}

		out = &model.RegistrationDetails{Event: *e, User: u.Public(), RegisteredAt: r.RegisteredAt}
		return nil
	})

	outcome := registrationOutcome(err)
	metrics.RegistrationOutcomes.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("registration.outcome", outcome))
	if err != nil {
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, "registration failed")
		}
		return nil, err
	}

	s.logger.Info().Str("event_id", eventID).Str("user_id", userID).Msg("user registered for event")
	return out, nil
}

// CancelRegistration removes the (event, user) pair. It does not look at the
// event date.
func (s *EventService) CancelRegistration(ctx context.Context, eventID, userID string) (*model.RegistrationDetails, error) {
	ctx, span := s.tracer.Start(ctx, "events.cancel", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	var out *model.RegistrationDetails
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		// same lock order as registration: event first, then the pair
		e, err := tx.LockEvent(ctx, eventID)
		if errors.Is(err, model.ErrEventNotFound) {
			return model.ErrRegistrationNotFound
		}
		if err != nil {
			return err
		}
		r, err := tx.DeleteRegistration(ctx, eventID, userID)
		if err != nil {
			return err
		}
		u, err := tx.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		out = &model.RegistrationDetails{Event: *e, User: u.Public(), RegisteredAt: r.RegisteredAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CancellationsTotal.Inc()
	s.logger.Info().Str("event_id", eventID).Str("user_id", userID).Msg("registration cancelled")
	return out, nil
}

func (s *EventService) GetEventStats(ctx context.Context, eventID string) (*model.EventStats, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	n, err := s.store.CountRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &model.EventStats{
		Event:              *e,
		TotalRegistrations: n,
		RemainingCapacity:  e.Capacity - n,
		PercentFilled:      percentFilled(n, e.Capacity),
	}, nil
}

// percentFilled formats count/capacity as a percentage with two decimals,
// rounding exact halves up.
func percentFilled(count, capacity int) string {
	if capacity <= 0 || count <= 0 {
		return "0.00%"
	}
	pct := new(big.Rat).SetFloat64(float64(count) / float64(capacity) * 100)
	pct.Mul(pct, big.NewRat(100, 1))
	pct.Add(pct, big.NewRat(1, 2))
	hundredths := new(big.Int).Quo(pct.Num(), pct.Denom()).Int64()
	return fmt.Sprintf("%d.%02d%%", hundredths/100, hundredths%100)
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrEventNotFound), errors.Is(err, model.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, model.ErrPastEvent):
		return "past_event"
	case errors.Is(err, model.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, model.ErrEventFull):
		return "full"
	default:
		return "error"
	}
}
