package dto

import "time"

// CheckInRequest carries the decoded scan payload: a bare ticket code or the
// JSON envelope some scanners emit.
type CheckInRequest struct {
	Payload string `json:"payload"`
}

// ScanResponse is shown on the scanning station's screen.
type ScanResponse struct {
	Status        string     `json:"status"`
	TicketCode    string     `json:"ticket_code,omitempty"`
	AttendeeName  string     `json:"attendee_name,omitempty"`
	AttendeeEmail string     `json:"attendee_email,omitempty"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
}
