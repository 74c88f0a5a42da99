package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhub-io/event-registration/internal/events"
	"github.com/clubhub-io/event-registration/internal/observability"
	"github.com/clubhub-io/event-registration/internal/repository"
)

// ScanStatus enumerates the mutually exclusive scan outcomes.
type ScanStatus string

const (
	ScanSuccess     ScanStatus = "SUCCESS"
	ScanAlreadyUsed ScanStatus = "ALREADY_USED"
	ScanNotFound    ScanStatus = "NOT_FOUND"
)

// ScanOutcome is what the door staff sees after a scan.
type ScanOutcome struct {
	Status        ScanStatus
	TicketCode    string
	AttendeeName  string
	AttendeeEmail string
	// CheckedInAt is the moment of this check-in on Success, or the original
	// check-in time on AlreadyUsed.
	CheckedInAt *time.Time
}

// CheckinService consumes decoded ticket payloads at the venue door.
type CheckinService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewCheckinService constructs the service.
func NewCheckinService(tickets repository.TicketRepository, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *CheckinService {
	return &CheckinService{
		tickets:    tickets,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// scanEnvelope is the optional JSON wrapper some scanning hardware emits.
// Only the ticket code is trusted; any embedded check-in claim is ignored.
type scanEnvelope struct {
	TicketCode     string `json:"ticket_code"`
	RegistrationID string `json:"registration_id"`
}

// CheckIn atomically transitions a ticket from issued to used at the station
// configured for eventID. The flip is a single conditional update in the
// store, so two simultaneous scans of the same code have exactly one winner;
// the loser deterministically reads back AlreadyUsed.
func (s *CheckinService) CheckIn(ctx context.Context, eventID, payload string) (*ScanOutcome, error) {
	code := parseScanPayload(payload)
	if code == "" {
		s.recordScan(eventID, ScanNotFound)
		return &ScanOutcome{Status: ScanNotFound}, nil
	}

	at := s.now()
	row, err := s.tickets.MarkCheckedIn(ctx, code, eventID, at)
	if err == nil {
		s.recordScan(eventID, ScanSuccess)
		s.publish(ctx, events.Event{
			Type:           events.EventTicketCheckedIn,
			EventID:        eventID,
			RegistrationID: row.Ticket.RegistrationID,
			Payload: events.TicketCheckedInPayload{
				TicketCode:   row.Ticket.Code,
				AttendeeName: row.AttendeeName,
				CheckedInAt:  at,
			},
		})
		return &ScanOutcome{
			Status:        ScanSuccess,
			TicketCode:    row.Ticket.Code,
			AttendeeName:  row.AttendeeName,
			AttendeeEmail: row.AttendeeEmail,
			CheckedInAt:   row.Ticket.CheckedInAt,
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		// store unreachable: fail closed, never admit on an unverified code
		return nil, err
	}

	existing, err := s.tickets.GetScanRow(ctx, code, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		// unknown code, or a ticket for a different event; both are
		// security-relevant and logged apart from ordinary reuse
		s.logger.Warn("scan rejected: unknown or cross-event ticket code",
			zap.String("event_id", eventID))
		s.recordScan(eventID, ScanNotFound)
		return &ScanOutcome{Status: ScanNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	s.recordScan(eventID, ScanAlreadyUsed)
	return &ScanOutcome{
		Status:        ScanAlreadyUsed,
		TicketCode:    existing.Ticket.Code,
		AttendeeName:  existing.AttendeeName,
		AttendeeEmail: existing.AttendeeEmail,
		CheckedInAt:   existing.Ticket.CheckedInAt,
	}, nil
}

// parseScanPayload accepts either a bare ticket code or the JSON envelope.
// The store remains the only authority on the code's validity.
func parseScanPayload(payload string) string {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, "{") {
		return payload
	}
	var envelope scanEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.TicketCode)
}

func (s *CheckinService) recordScan(eventID string, status ScanStatus) {
	if s.metrics != nil {
		s.metrics.RecordScan(eventID, string(status))
	}
}

func (s *CheckinService) publish(ctx context.Context, event events.Event) {
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
