package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clubhub-io/event-registration/internal/auth"
	"github.com/clubhub-io/event-registration/internal/config"
	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/repository"
)

// ErrInvalidCredentials is returned for bad email/password combinations.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when an email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// AuthService handles account signup and login.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Session is the result of a successful signup or login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an attendee account and returns a session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         domain.RoleAttendee,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.session(user)
}

// Login verifies credentials and returns a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// LoginStaff verifies credentials and additionally requires a scanning role.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !session.User.CanScan() {
		return nil, ErrInvalidCredentials
	}
	return session, nil
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
