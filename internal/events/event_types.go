package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRegistrationConfirmed EventType = "registration_confirmed"
	EventPaymentConfirmed      EventType = "payment_confirmed"
	EventTicketCheckedIn       EventType = "ticket_checked_in"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	EventID        string      `json:"event_id"`
	RegistrationID string      `json:"registration_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// RegistrationConfirmedPayload payload.
type RegistrationConfirmedPayload struct {
	TicketCode    string `json:"ticket_code"`
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
	Free          bool   `json:"free"`
}

// PaymentConfirmedPayload payload.
type PaymentConfirmedPayload struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	AmountMinor   int64  `json:"amount_minor"`
	TicketCode    string `json:"ticket_code"`
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
}

// TicketCheckedInPayload payload.
type TicketCheckedInPayload struct {
	TicketCode   string    `json:"ticket_code"`
	AttendeeName string    `json:"attendee_name"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}
