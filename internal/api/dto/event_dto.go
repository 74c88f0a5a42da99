package dto

import (
	"time"

	"github.com/clubhub-io/event-registration/internal/domain"
)

// EventSummary response.
type EventSummary struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Venue      string             `json:"venue"`
	StartsAt   time.Time          `json:"starts_at"`
	EndsAt     time.Time          `json:"ends_at"`
	Capacity   *int               `json:"capacity,omitempty"`
	PriceMinor int64              `json:"price_minor"`
	Free       bool               `json:"free"`
	Status     domain.EventStatus `json:"status"`
}

// EventDetailResponse adds the caller's resolved registration state, which is
// the single source for "what button do I show".
type EventDetailResponse struct {
	EventSummary
	Description       string                   `json:"description"`
	RegistrationState domain.RegistrationState `json:"registration_state"`
}
