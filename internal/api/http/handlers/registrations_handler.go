package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/clubhub-io/event-registration/internal/api/dto"
	"github.com/clubhub-io/event-registration/internal/auth"
	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/repository"
	"github.com/clubhub-io/event-registration/internal/service"
	apperrors "github.com/clubhub-io/event-registration/pkg/util"
)

// RegistrationsHandler manages registration start and the my-ticket view.
type RegistrationsHandler struct {
	admission *service.AdmissionService
}

// NewRegistrationsHandler constructs handler.
func NewRegistrationsHandler(admission *service.AdmissionService) *RegistrationsHandler {
	return &RegistrationsHandler{admission: admission}
}

// Start POST /events/:id/registrations.
func (h *RegistrationsHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.StartRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contact := service.ContactInput{Name: req.Name, Email: req.Email}
	if contact.Name == "" {
		contact.Name = principal.User.Name
	}
	if contact.Email == "" {
		contact.Email = principal.User.Email
	}

	reg, err := h.admission.StartRegistration(c.Context(), c.Params("id"), principal.User.ID, contact)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound("event", nil)
		case errors.Is(err, service.ErrEventNotOpen):
			return apperrors.NewConflict("event is not open for registration", nil)
		case errors.Is(err, service.ErrEventFull):
			return apperrors.NewConflict("event is at capacity", nil)
		}
		return err
	}

	state, err := h.admission.Resolve(c.Context(), reg.EventID, reg.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": registrationResponse(reg, state)})
}

// GetMine GET /events/:id/registrations/me.
func (h *RegistrationsHandler) GetMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	reg, ticket, err := h.admission.GetMyRegistration(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("registration", nil)
		}
		return err
	}
	state, err := h.admission.Resolve(c.Context(), reg.EventID, reg.UserID)
	if err != nil {
		return err
	}

	resp := dto.MyRegistrationResponse{Registration: registrationResponse(reg, state)}
	if ticket != nil {
		resp.Ticket = &dto.TicketResponse{
			Code:        ticket.Code,
			EventID:     ticket.EventID,
			IssuedAt:    ticket.IssuedAt,
			CheckedIn:   ticket.CheckedIn,
			CheckedInAt: ticket.CheckedInAt,
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}

func registrationResponse(reg *domain.Registration, state domain.RegistrationState) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:           reg.ID,
		EventID:      reg.EventID,
		PaymentState: reg.PaymentState,
		State:        state,
		TicketCode:   reg.TicketCode,
		CreatedAt:    reg.CreatedAt,
	}
}
