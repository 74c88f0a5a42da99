package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/clubhub-io/event-registration/internal/api/dto"
	"github.com/clubhub-io/event-registration/internal/service"
	apperrors "github.com/clubhub-io/event-registration/pkg/util"
)

// UsersHandler manages account endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register POST /auth/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		return apperrors.NewValidationError("name, email and a password of at least 8 characters required", nil)
	}

	session, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return apperrors.NewConflict("email already registered", nil)
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login POST /auth/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	session, err := h.login(c, h.auth.Login)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// LoginStaff POST /auth/staff/login.
func (h *UsersHandler) LoginStaff(c *fiber.Ctx) error {
	session, err := h.login(c, h.auth.LoginStaff)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

func (h *UsersHandler) login(c *fiber.Ctx, fn func(ctx context.Context, email, password string) (*service.Session, error)) (*service.Session, error) {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	session, err := fn(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	return session, nil
}

func sessionResponse(session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		UserID:    session.User.ID,
		Name:      session.User.Name,
		Email:     session.User.Email,
		Role:      string(session.User.Role),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}
}
