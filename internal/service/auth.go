package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"event-management-api/internal/auth"
	"event-management-api/internal/model"
	"event-management-api/internal/store"
)

const (
	msgInvalidRegister = "Invalid input. Name, valid email, and password (min 6 chars) are required."
	msgInvalidLogin    = "Invalid login input. Email and password are required."
)

// AuthService creates accounts and exchanges credentials for session tokens.
type AuthService struct {
	store    store.Store
	tokens   *auth.TokenIssuer
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

func NewAuthService(st store.Store, tokens *auth.TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:    st,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,contains=@"`
	Password string `validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `validate:"required,contains=@"`
	Password string `validate:"required"`
}

type LoginResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// Register stores a new account. The email is lowercased and must be unique;
// only the bcrypt hash of the password is kept.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := check(s.validate, in, msgInvalidRegister); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &model.ValidationError{Message: msgInvalidRegister, Fields: []string{"password"}}
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    stamp(s.now()),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID).Msg("user registered")
	pub := u.Public()
	return &pub, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := check(s.validate, in, msgInvalidLogin); err != nil {
		return nil, err
	}

	u, err := s.store.UserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, model.ErrInvalidPassword
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: tok, User: u.Public()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
