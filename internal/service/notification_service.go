package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/clubhub-io/event-registration/internal/config"
	"github.com/clubhub-io/event-registration/internal/events"
)

// NotificationService sends fire-and-forget receipts and webhooks for domain
// events. Delivery failure is logged and never affects registration or
// ticket validity.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRegistrationConfirmed, n.handleRegistrationConfirmed)
	n.dispatcher.Subscribe(events.EventPaymentConfirmed, n.handlePaymentConfirmed)
	n.dispatcher.Subscribe(events.EventTicketCheckedIn, n.handleTicketCheckedIn)
}

func (n *NotificationService) handleRegistrationConfirmed(ctx context.Context, event events.Event) error {
	n.logger.Info("RegistrationConfirmed",
		zap.String("registration_id", event.RegistrationID), zap.Any("payload", event.Payload))
	n.sendEmailReceiptStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePaymentConfirmed(ctx context.Context, event events.Event) error {
	n.logger.Info("PaymentConfirmed",
		zap.String("registration_id", event.RegistrationID), zap.Any("payload", event.Payload))
	n.sendEmailReceiptStub(ctx, event)
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketCheckedIn(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCheckedIn",
		zap.String("registration_id", event.RegistrationID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailReceiptStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailReceiptStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("registration_id", event.RegistrationID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("registration_id", event.RegistrationID),
		zap.String("event_type", string(event.Type)))
}
