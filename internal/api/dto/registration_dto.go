package dto

import (
	"time"

	"github.com/clubhub-io/event-registration/internal/domain"
)

// StartRegistrationRequest payload.
type StartRegistrationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegistrationResponse describes a registration row.
type RegistrationResponse struct {
	ID           string                   `json:"id"`
	EventID      string                   `json:"event_id"`
	PaymentState domain.PaymentState      `json:"payment_state"`
	State        domain.RegistrationState `json:"state"`
	TicketCode   *string                  `json:"ticket_code,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// TicketResponse is the attendee's digital ticket.
type TicketResponse struct {
	Code        string     `json:"code"`
	EventID     string     `json:"event_id"`
	IssuedAt    time.Time  `json:"issued_at"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// MyRegistrationResponse bundles registration and ticket for the dashboard view.
type MyRegistrationResponse struct {
	Registration RegistrationResponse `json:"registration"`
	Ticket       *TicketResponse      `json:"ticket,omitempty"`
}
