package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/clubhub-io/event-registration/internal/api/dto"
	"github.com/clubhub-io/event-registration/internal/auth"
	"github.com/clubhub-io/event-registration/internal/repository"
	"github.com/clubhub-io/event-registration/internal/service"
	apperrors "github.com/clubhub-io/event-registration/pkg/util"
)

// PaymentsHandler exposes order creation and the gateway callback.
type PaymentsHandler struct {
	payments *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(payments *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: payments}
}

// CreateOrder POST /events/:id/orders.
func (h *PaymentsHandler) CreateOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RegistrationID == "" {
		return apperrors.NewValidationError("registration_id required", nil)
	}

	order, err := h.payments.CreateOrder(c.Context(), req.RegistrationID, principal.User.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound("registration", nil)
		case errors.Is(err, service.ErrNotOwner):
			return apperrors.NewForbidden("registration belongs to another user")
		case errors.Is(err, service.ErrNotPayable):
			return apperrors.NewConflict("registration requires no payment", nil)
		case errors.Is(err, service.ErrEventNotOpen):
			return apperrors.NewConflict("event is not open for registration", nil)
		}
		// gateway unreachable: retryable by the client
		return apperrors.NewDomainError("GATEWAY_UNAVAILABLE", "payment gateway unavailable, retry later", http.StatusBadGateway, nil)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.OrderResponse{
		OrderID:     order.ID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
	}})
}

// Callback POST /payments/callback.
//
// The gateway is the caller here, not a user; authenticity comes from the
// signature, not a bearer token.
func (h *PaymentsHandler) Callback(c *fiber.Ctx) error {
	var req dto.PaymentCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OrderID == "" || req.PaymentID == "" {
		return apperrors.NewValidationError("order_id and payment_id required", nil)
	}

	if req.Status == "failed" {
		h.payments.RecordFailure(c.Context(), req.OrderID, req.Reason)
		return c.JSON(fiber.Map{"data": dto.PaymentCallbackResponse{Status: "failure_recorded"}})
	}

	result, err := h.payments.ConfirmPayment(c.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			return apperrors.NewDomainError("SIGNATURE_INVALID", "signature verification failed", http.StatusBadRequest, nil)
		case errors.Is(err, service.ErrUnknownOrder):
			return apperrors.NewNotFound("order", nil)
		case errors.Is(err, service.ErrEventFull):
			return apperrors.NewConflict("event filled before payment completed", nil)
		}
		return err
	}

	code := result.Ticket.Code
	return c.JSON(fiber.Map{"data": dto.PaymentCallbackResponse{
		Status:      "confirmed",
		TicketCode:  &code,
		AlreadyPaid: result.AlreadyPaid,
	}})
}
