package domain

import "time"

// PaymentState enumerates registration payment states.
type PaymentState string

const (
	PaymentStateUnpaid  PaymentState = "UNPAID"
	PaymentStatePending PaymentState = "PENDING"
	PaymentStatePaid    PaymentState = "PAID"
)

// Registration ties a user (or guest contact) to an event. At most one row
// exists per (event, user) pair; the store's unique index enforces it.
type Registration struct {
	ID      string
	EventID string
	// UserID is nil for guest registrations.
	UserID        *string
	AttendeeName  string
	AttendeeEmail string
	PaymentState  PaymentState
	// PaymentOrderID is set once a gateway order has been created.
	PaymentOrderID *string
	// TicketCode back-references the issued ticket; nil until finalized.
	TicketCode *string
	CreatedAt  time.Time
}

// Finalized reports whether the registration entitles the holder to a ticket:
// paid, or confirmed on a free event.
func (r *Registration) Finalized(event *Event) bool {
	if r == nil {
		return false
	}
	if r.PaymentState == PaymentStatePaid {
		return true
	}
	return event != nil && event.Free()
}
