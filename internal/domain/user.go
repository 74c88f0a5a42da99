package domain

import "time"

// UserRole separates attendees from door staff and organizers.
type UserRole string

const (
	RoleAttendee  UserRole = "ATTENDEE"
	RoleStaff     UserRole = "STAFF"
	RoleOrganizer UserRole = "ORGANIZER"
)

// User is a platform account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}

// CanScan reports whether the user may operate a check-in station.
func (u *User) CanScan() bool {
	return u.Role == RoleStaff || u.Role == RoleOrganizer
}
