package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateRegistration is returned when the (event, user) unique index
// rejects a second registration. Callers re-read and return the winner.
var ErrDuplicateRegistration = errors.New("registration already exists for event and user")

// ErrDuplicateTicketCode is returned on a ticket code collision; the issuer
// regenerates and retries.
var ErrDuplicateTicketCode = errors.New("ticket code already in use")

// ErrDuplicateEmail is returned when an account email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrEventFull is returned when a finalization transaction finds no capacity left.
var ErrEventFull = errors.New("event is at capacity")

// ErrAlreadyFinalized is returned when a registration already carries a ticket.
var ErrAlreadyFinalized = errors.New("registration already finalized")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
