package domain

import "time"

// Ticket is the unique, scannable proof of a finalized registration.
type Ticket struct {
	ID             string
	Code           string
	RegistrationID string
	EventID        string
	IssuedAt       time.Time
	CheckedIn      bool
	// CheckedInAt is set exactly once, by the door scanner.
	CheckedInAt *time.Time
}
