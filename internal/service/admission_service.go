package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/events"
	"github.com/clubhub-io/event-registration/internal/repository"
)

// ErrEventNotOpen is returned when an event is not accepting registrations
// (not approved, cancelled, or already ended).
var ErrEventNotOpen = errors.New("event is not open for registration")

// ErrEventFull is returned when the event has no remaining capacity.
var ErrEventFull = errors.New("event is at capacity")

// AdmissionService is the single decision engine behind every "what can this
// user do with this event" surface. It computes the derived registration
// state fresh on each call and drives registration start.
type AdmissionService struct {
	eventRepo  repository.EventRepository
	regRepo    repository.RegistrationRepository
	ticketRepo repository.TicketRepository
	issuer     *TicketIssuer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AdmissionDependencies bundles collaborators for the admission service.
type AdmissionDependencies struct {
	EventRepo  repository.EventRepository
	RegRepo    repository.RegistrationRepository
	TicketRepo repository.TicketRepository
	Issuer     *TicketIssuer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ContactInput carries the attendee contact captured at registration.
type ContactInput struct {
	Name  string
	Email string
}

// NewAdmissionService constructs the service.
func NewAdmissionService(deps AdmissionDependencies) *AdmissionService {
	return &AdmissionService{
		eventRepo:  deps.EventRepo,
		regRepo:    deps.RegRepo,
		ticketRepo: deps.TicketRepo,
		issuer:     deps.Issuer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// ListEvents returns browsable (approved) events.
func (s *AdmissionService) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	return s.eventRepo.ListApproved(ctx, limit, offset)
}

// GetEvent returns one event descriptor.
func (s *AdmissionService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.eventRepo.GetByID(ctx, eventID)
}

// Resolve computes the registration state for a user against an event.
// userID is nil for anonymous browsers, who only ever see Unregistered,
// Full or Completed.
func (s *AdmissionService) Resolve(ctx context.Context, eventID string, userID *string) (domain.RegistrationState, error) {
	event, reg, count, err := s.loadStateInputs(ctx, eventID, userID)
	if err != nil {
		return "", err
	}
	return domain.ResolveState(event, reg, count, s.now()), nil
}

// StartRegistration begins (or idempotently resumes) a registration.
//
// Free events finalize synchronously: the registration, capacity check and
// ticket land in one store transaction. Paid events leave the row pending for
// the payment reconciler. A lost race against a concurrent duplicate request
// returns the winner's row instead of an error.
func (s *AdmissionService) StartRegistration(ctx context.Context, eventID, userID string, contact ContactInput) (*domain.Registration, error) {
	event, reg, count, err := s.loadStateInputs(ctx, eventID, &userID)
	if err != nil {
		return nil, err
	}
	if !event.Registrable(s.now()) {
		return nil, ErrEventNotOpen
	}

	switch domain.ResolveState(event, reg, count, s.now()) {
	case domain.StateCompleted:
		return nil, ErrEventNotOpen
	case domain.StateFull:
		return nil, ErrEventFull
	case domain.StateRegistered, domain.StatePendingPayment:
		// idempotent resume
		return reg, nil
	}

	newReg := &domain.Registration{
		EventID:       eventID,
		UserID:        &userID,
		AttendeeName:  strings.TrimSpace(contact.Name),
		AttendeeEmail: strings.TrimSpace(contact.Email),
	}

	if event.Free() {
		return s.startFree(ctx, event, newReg)
	}
	return s.startPaid(ctx, newReg)
}

func (s *AdmissionService) startFree(ctx context.Context, event *domain.Event, reg *domain.Registration) (*domain.Registration, error) {
	ticket, err := s.issuer.IssueForNewRegistration(ctx, reg)
	if errors.Is(err, repository.ErrDuplicateRegistration) {
		// concurrent duplicate won the insert; its row is authoritative
		return s.regRepo.GetByEventAndUser(ctx, reg.EventID, *reg.UserID)
	}
	if errors.Is(err, repository.ErrEventFull) {
		return nil, ErrEventFull
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:           events.EventRegistrationConfirmed,
		EventID:        event.ID,
		RegistrationID: reg.ID,
		Payload: events.RegistrationConfirmedPayload{
			TicketCode:    ticket.Code,
			AttendeeName:  reg.AttendeeName,
			AttendeeEmail: reg.AttendeeEmail,
			Free:          true,
		},
	})
	return reg, nil
}

func (s *AdmissionService) startPaid(ctx context.Context, reg *domain.Registration) (*domain.Registration, error) {
	reg.PaymentState = domain.PaymentStatePending
	err := s.regRepo.Create(ctx, reg)
	if errors.Is(err, repository.ErrDuplicateRegistration) {
		return s.regRepo.GetByEventAndUser(ctx, reg.EventID, *reg.UserID)
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// GetMyRegistration returns the caller's registration and, when finalized,
// its ticket.
func (s *AdmissionService) GetMyRegistration(ctx context.Context, eventID, userID string) (*domain.Registration, *domain.Ticket, error) {
	reg, err := s.regRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, nil, err
	}
	if reg.TicketCode == nil {
		return reg, nil, nil
	}
	ticket, err := s.ticketRepo.GetByRegistration(ctx, reg.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// back-reference without a ticket row would be an integrity bug
			s.logger.Error("registration has ticket code but no ticket row",
				zap.String("registration_id", reg.ID))
			return reg, nil, nil
		}
		return nil, nil, err
	}
	return reg, ticket, nil
}

func (s *AdmissionService) loadStateInputs(ctx context.Context, eventID string, userID *string) (*domain.Event, *domain.Registration, int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, 0, err
	}

	var reg *domain.Registration
	if userID != nil {
		reg, err = s.regRepo.GetByEventAndUser(ctx, eventID, *userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, 0, err
		}
	}

	count, err := s.regRepo.CountFinalized(ctx, eventID)
	if err != nil {
		return nil, nil, 0, err
	}
	return event, reg, count, nil
}

func (s *AdmissionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
