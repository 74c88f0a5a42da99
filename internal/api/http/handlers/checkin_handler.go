package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/clubhub-io/event-registration/internal/api/dto"
	"github.com/clubhub-io/event-registration/internal/service"
	apperrors "github.com/clubhub-io/event-registration/pkg/util"
)

// CheckinHandler serves the door-scanning station.
type CheckinHandler struct {
	checkin *service.CheckinService
}

// NewCheckinHandler constructs handler.
func NewCheckinHandler(checkin *service.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkin: checkin}
}

// Scan POST /events/:id/checkin.
//
// Every outcome is a 200 with an explicit status; AlreadyUsed and NotFound
// are legitimate terminal answers for the staff, not errors to retry.
func (h *CheckinHandler) Scan(c *fiber.Ctx) error {
	var req dto.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Payload) == "" {
		return apperrors.NewValidationError("payload required", nil)
	}

	outcome, err := h.checkin.CheckIn(c.Context(), c.Params("id"), req.Payload)
	if err != nil {
		// store unreachable: fail closed, the staff must not admit
		return err
	}

	return c.JSON(fiber.Map{"data": dto.ScanResponse{
		Status:        string(outcome.Status),
		TicketCode:    outcome.TicketCode,
		AttendeeName:  outcome.AttendeeName,
		AttendeeEmail: outcome.AttendeeEmail,
		CheckedInAt:   outcome.CheckedInAt,
	}})
}
