package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/clubhub-io/event-registration/internal/api/dto"
	"github.com/clubhub-io/event-registration/internal/auth"
	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/repository"
	"github.com/clubhub-io/event-registration/internal/service"
	apperrors "github.com/clubhub-io/event-registration/pkg/util"
)

// EventsHandler serves the public event browsing endpoints. Every "what
// button do I show" surface renders the admission service's resolved state.
type EventsHandler struct {
	admission *service.AdmissionService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(admission *service.AdmissionService) *EventsHandler {
	return &EventsHandler{admission: admission}
}

// List GET /events.
func (h *EventsHandler) List(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	events, err := h.admission.ListEvents(c.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}

	items := make([]dto.EventSummary, 0, len(events))
	for i := range events {
		items = append(items, eventSummary(&events[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /events/:id.
func (h *EventsHandler) Get(c *fiber.Ctx) error {
	eventID := c.Params("id")
	event, err := h.admission.GetEvent(c.Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("event", nil)
		}
		return err
	}

	var userID *string
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		userID = &principal.User.ID
	}
	state, err := h.admission.Resolve(c.Context(), eventID, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.EventDetailResponse{
		EventSummary:      eventSummary(event),
		Description:       event.Description,
		RegistrationState: state,
	}})
}

func eventSummary(event *domain.Event) dto.EventSummary {
	return dto.EventSummary{
		ID:         event.ID,
		Title:      event.Title,
		Venue:      event.Venue,
		StartsAt:   event.StartsAt,
		EndsAt:     event.EndsAt,
		Capacity:   event.Capacity,
		PriceMinor: event.PriceMinor,
		Free:       event.Free(),
		Status:     event.Status,
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
