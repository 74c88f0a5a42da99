package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhub-io/event-registration/internal/domain"
	"github.com/clubhub-io/event-registration/internal/events"
	"github.com/clubhub-io/event-registration/internal/gateway/payment"
	"github.com/clubhub-io/event-registration/internal/repository"
)

// ErrInvalidSignature is returned for callbacks whose signature does not
// verify. Nothing is mutated; the rejection is security-relevant and logged
// distinctly from ordinary outcomes.
var ErrInvalidSignature = errors.New("payment signature verification failed")

// ErrUnknownOrder is returned when a callback references no known order.
var ErrUnknownOrder = errors.New("unknown payment order")

// ErrNotPayable is returned when an order is requested for a registration
// that needs no payment (free event, or already paid).
var ErrNotPayable = errors.New("registration requires no payment")

// ErrNotOwner is returned when a caller touches someone else's registration.
var ErrNotOwner = errors.New("registration belongs to another user")

// PaymentService drives the paid-registration path: create a provider order,
// verify the provider callback, and only then finalize the registration.
type PaymentService struct {
	regRepo    repository.RegistrationRepository
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	gateway    payment.Gateway
	issuer     *TicketIssuer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// PaymentDependencies bundles collaborators for the payment service.
type PaymentDependencies struct {
	RegRepo    repository.RegistrationRepository
	EventRepo  repository.EventRepository
	TicketRepo repository.TicketRepository
	Gateway    payment.Gateway
	Issuer     *TicketIssuer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		regRepo:    deps.RegRepo,
		eventRepo:  deps.EventRepo,
		ticketRepo: deps.TicketRepo,
		gateway:    deps.Gateway,
		issuer:     deps.Issuer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// ConfirmResult reports the outcome of a verified callback.
type ConfirmResult struct {
	Registration *domain.Registration
	Ticket       *domain.Ticket
	// AlreadyPaid is true when the callback was a duplicate; the original
	// ticket is returned and nothing new was issued.
	AlreadyPaid bool
}

// CreateOrder registers a gateway order for a pending registration and
// stores the order id. A gateway failure leaves the registration pending
// with no order; the caller may simply retry.
func (s *PaymentService) CreateOrder(ctx context.Context, registrationID, userID string) (*payment.Order, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID == nil || *reg.UserID != userID {
		return nil, ErrNotOwner
	}
	if reg.PaymentState == domain.PaymentStatePaid {
		return nil, ErrNotPayable
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event.Free() {
		return nil, ErrNotPayable
	}
	if !event.Registrable(s.now()) {
		return nil, ErrEventNotOpen
	}

	order, err := s.gateway.CreateOrder(ctx, event.PriceMinor, reg.ID)
	if err != nil {
		s.logger.Warn("gateway order creation failed",
			zap.String("registration_id", reg.ID), zap.Error(err))
		return nil, err
	}

	// a retried payment replaces any previous unconfirmed order
	if err := s.regRepo.SetPaymentOrder(ctx, reg.ID, order.ID); err != nil {
		return nil, err
	}

	s.logger.Info("payment order created",
		zap.String("registration_id", reg.ID),
		zap.String("order_id", order.ID),
		zap.Int64("amount_minor", order.AmountMinor))
	return order, nil
}

// ConfirmPayment handles the gateway callback. The signature is recomputed
// locally and compared in constant time before any lookup; a mismatch mutates
// nothing. A verified duplicate callback is answered with the original
// ticket and AlreadyPaid=true.
func (s *PaymentService) ConfirmPayment(ctx context.Context, orderID, paymentID, signature string) (*ConfirmResult, error) {
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		s.logger.Warn("rejected payment callback with invalid signature",
			zap.String("order_id", orderID), zap.String("payment_id", paymentID))
		return nil, ErrInvalidSignature
	}

	reg, err := s.regRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownOrder
		}
		return nil, err
	}

	if reg.PaymentState == domain.PaymentStatePaid {
		ticket, err := s.ticketRepo.GetByRegistration(ctx, reg.ID)
		if err != nil {
			return nil, err
		}
		return &ConfirmResult{Registration: reg, Ticket: ticket, AlreadyPaid: true}, nil
	}

	ticket, err := s.issuer.Issue(ctx, reg.ID)
	if errors.Is(err, repository.ErrEventFull) {
		// the event filled while this payment was in flight; keep the
		// registration pending, refunds happen out of band
		return nil, ErrEventFull
	}
	if err != nil {
		return nil, err
	}

	reg.PaymentState = domain.PaymentStatePaid
	reg.TicketCode = &ticket.Code

	amount, err := s.orderAmount(ctx, reg.EventID)
	if err != nil {
		amount = 0
	}
	s.publish(ctx, events.Event{
		Type:           events.EventPaymentConfirmed,
		EventID:        reg.EventID,
		RegistrationID: reg.ID,
		Payload: events.PaymentConfirmedPayload{
			OrderID:       orderID,
			PaymentID:     paymentID,
			AmountMinor:   amount,
			TicketCode:    ticket.Code,
			AttendeeName:  reg.AttendeeName,
			AttendeeEmail: reg.AttendeeEmail,
		},
	})

	s.logger.Info("payment confirmed, ticket issued",
		zap.String("registration_id", reg.ID),
		zap.String("order_id", orderID),
		zap.String("ticket_code", ticket.Code))
	return &ConfirmResult{Registration: reg, Ticket: ticket}, nil
}

// RecordFailure logs a gateway-reported payment failure. The order is dead
// but the registration stays pending and payable via a new order.
func (s *PaymentService) RecordFailure(ctx context.Context, orderID, reason string) {
	reg, err := s.regRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Warn("payment failure for unknown order", zap.String("order_id", orderID))
		return
	}
	s.logger.Info("payment failed, registration remains pending",
		zap.String("registration_id", reg.ID),
		zap.String("order_id", orderID),
		zap.String("reason", reason))
}

func (s *PaymentService) orderAmount(ctx context.Context, eventID string) (int64, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return event.PriceMinor, nil
}

func (s *PaymentService) publish(ctx context.Context, event events.Event) {
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
