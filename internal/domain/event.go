package domain

import "time"

// EventStatus enumerates event lifecycle states.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPending   EventStatus = "PENDING"
	EventStatusApproved  EventStatus = "APPROVED"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusEnded     EventStatus = "ENDED"
)

// Event is a read-only descriptor of a club event. Organizer workflows own
// the lifecycle; this subsystem only reads it.
type Event struct {
	ID          string
	Title       string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	// Capacity is nil for unlimited events.
	Capacity *int
	// PriceMinor is the ticket price in minor currency units; 0 means free.
	PriceMinor int64
	Status     EventStatus
	CreatedAt  time.Time
}

// Free reports whether registration requires no payment.
func (e *Event) Free() bool {
	return e.PriceMinor <= 0
}

// Ended reports whether the event is past its end timestamp.
func (e *Event) Ended(now time.Time) bool {
	return !now.Before(e.EndsAt)
}

// Registrable reports whether new registrations are accepted at all.
func (e *Event) Registrable(now time.Time) bool {
	return e.Status == EventStatusApproved && !e.Ended(now)
}
