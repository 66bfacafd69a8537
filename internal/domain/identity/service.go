package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/auth"
	"github.com/relief/relief/internal/platform/notification"
	"github.com/relief/relief/internal/platform/validation"
)

const (
	MinAge = 18
	MaxAge = 100
)

type Service struct {
	repo   Repository
	store  auth.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, store auth.Store, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		logger: logger.With().Str("component", "identity").Logger(),
		now:    time.Now,
	}
}

// Result is what a login, registration or logout hands back to the caller.
type Result struct {
	Identity *auth.Identity      `json:"identity,omitempty"`
	Notice   notification.Notice `json:"notice"`
	Redirect string              `json:"redirect"`
}

// -- Login --

// Login validates the credentials, signs in against the backend and records
// the login marker. The marker carries a cached copy of the identity.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	if err := validation.Phone("phoneNumber", in.PhoneNumber); err != nil {
		return nil, err
	}
	if err := validation.Password("password", in.Password); err != nil {
		return nil, err
	}

	user, err := s.repo.Login(ctx, LoginBody{PhoneNumber: in.PhoneNumber, Password: in.Password, Role: Role})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	id := auth.Identity{PhoneNumber: in.PhoneNumber}
	if user != nil {
		id = user.identity()
		if id.PhoneNumber == "" {
			id.PhoneNumber = in.PhoneNumber
		}
	}
	if err := s.store.Login(ctx, id); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	s.logger.Info().Str("user_id", id.UserID).Msg("logged in")
	return &Result{
		Identity: &id,
		Notice:   notification.Success("Login successful", ""),
		Redirect: auth.HomeRoute,
	}, nil
}

// -- Register --

// Register creates a patient account. It does not log in; the caller is sent
// to the login route afterwards.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	in.Name = validation.Clean(in.Name)
	if err := validation.Required("name", in.Name); err != nil {
		return nil, err
	}
	if err := validation.Phone("phoneNumber", in.PhoneNumber); err != nil {
		return nil, err
	}
	if err := s.validateDOB(in.DOB); err != nil {
		return nil, err
	}
	if err := validation.Password("password", in.Password); err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, validation.New("confirmPassword", "Passwords don't match")
	}

	_, err := s.repo.Register(ctx, RegisterBody{
		Name:        in.Name,
		PhoneNumber: in.PhoneNumber,
		DOB:         in.DOB,
		Password:    in.Password,
		Role:        Role,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Msg("patient registered")
	return &Result{
		Notice:   notification.Success("Registration successful", "Please login to continue."),
		Redirect: auth.LoginRoute,
	}, nil
}

func (s *Service) validateDOB(v string) error {
	if v == "" {
		return validation.New("dob", "Date of birth is required")
	}
	dob, err := time.Parse(DateLayout, v)
	if err != nil {
		return validation.New("dob", "Date of birth must be YYYY-MM-DD")
	}
	today := s.now().UTC()
	if dob.After(today.AddDate(-MinAge, 0, 0)) {
		return validation.New("dob", fmt.Sprintf("You must be at least %d years old", MinAge))
	}
	if dob.Before(today.AddDate(-MaxAge, 0, 0)) {
		return validation.New("dob", fmt.Sprintf("Age must be at most %d years", MaxAge))
	}
	return nil
}

// -- Logout / Me --

// Logout clears the login marker. It never calls the backend.
func (s *Service) Logout(ctx context.Context) (*Result, error) {
	if err := s.store.Logout(ctx); err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}
	return &Result{
		Notice:   notification.Info("Logged out", ""),
		Redirect: auth.LoginRoute,
	}, nil
}

// Me returns the identity cached in the login marker.
func (s *Service) Me(ctx context.Context) (auth.Identity, error) {
	return s.store.Identity(ctx)
}
