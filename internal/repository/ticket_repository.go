package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub-io/event-registration/internal/domain"
)

// ScanRow joins a ticket with the attendee contact the door staff sees.
type ScanRow struct {
	Ticket        domain.Ticket
	AttendeeName  string
	AttendeeEmail string
}

// TicketRepository encapsulates ticket persistence. Issuance lives on
// RegistrationRepository because it must share a transaction with the
// registration back-reference.
type TicketRepository interface {
	GetByRegistration(ctx context.Context, registrationID string) (*domain.Ticket, error)
	// GetScanRow fetches a ticket by code scoped to a single event. Codes
	// belonging to other events are reported as ErrNotFound so a replayed
	// ticket cannot pass at a foreign station.
	GetScanRow(ctx context.Context, code, eventID string) (*ScanRow, error)
	// MarkCheckedIn flips checked_in in a single conditional update; of two
	// simultaneous scans only one can win, the other gets ErrNotFound and
	// re-reads via GetScanRow.
	MarkCheckedIn(ctx context.Context, code, eventID string, at time.Time) (*ScanRow, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByRegistration(ctx context.Context, registrationID string) (*domain.Ticket, error) {
	const query = `
        SELECT id, code, registration_id, event_id, issued_at, checked_in, checked_in_at
        FROM tickets WHERE registration_id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, registrationID).Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.RegistrationID,
		&ticket.EventID,
		&ticket.IssuedAt,
		&ticket.CheckedIn,
		&ticket.CheckedInAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetScanRow(ctx context.Context, code, eventID string) (*ScanRow, error) {
	const query = `
        SELECT t.id, t.code, t.registration_id, t.event_id, t.issued_at, t.checked_in, t.checked_in_at,
               r.attendee_name, r.attendee_email
        FROM tickets t
        JOIN registrations r ON r.id = t.registration_id
        WHERE t.code=$1 AND t.event_id=$2`
	return r.scanSingle(ctx, query, code, eventID)
}

func (r *ticketRepository) MarkCheckedIn(ctx context.Context, code, eventID string, at time.Time) (*ScanRow, error) {
	const query = `
        WITH flipped AS (
            UPDATE tickets SET checked_in=TRUE, checked_in_at=$3
            WHERE code=$1 AND event_id=$2 AND checked_in=FALSE
            RETURNING id, code, registration_id, event_id, issued_at, checked_in, checked_in_at
        )
        SELECT f.id, f.code, f.registration_id, f.event_id, f.issued_at, f.checked_in, f.checked_in_at,
               r.attendee_name, r.attendee_email
        FROM flipped f
        JOIN registrations r ON r.id = f.registration_id`
	return r.scanSingle(ctx, query, code, eventID, at)
}

func (r *ticketRepository) scanSingle(ctx context.Context, query string, args ...any) (*ScanRow, error) {
	var row ScanRow
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&row.Ticket.ID,
		&row.Ticket.Code,
		&row.Ticket.RegistrationID,
		&row.Ticket.EventID,
		&row.Ticket.IssuedAt,
		&row.Ticket.CheckedIn,
		&row.Ticket.CheckedInAt,
		&row.AttendeeName,
		&row.AttendeeEmail,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}
