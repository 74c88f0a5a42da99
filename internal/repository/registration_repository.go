package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub-io/event-registration/internal/domain"
)

// RegistrationRepository encapsulates registration persistence, including the
// two finalization transactions that must be atomic across registrations and
// tickets. All contention is resolved here by the store (unique indexes, row
// locks), never by in-process mutexes.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	GetByID(ctx context.Context, id string) (*domain.Registration, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Registration, error)
	CountFinalized(ctx context.Context, eventID string) (int, error)
	SetPaymentOrder(ctx context.Context, registrationID, orderID string) error
	// CreateFinalizedWithTicket inserts a registration already in PAID state
	// together with its ticket, guarding event capacity under a row lock.
	// Free-event registration start uses this so a registration row can never
	// exist finalized but ticketless.
	CreateFinalizedWithTicket(ctx context.Context, reg *domain.Registration, ticket *domain.Ticket) error
	// FinalizeWithTicket transitions an existing registration to PAID and
	// issues its ticket in one transaction.
	FinalizeWithTicket(ctx context.Context, registrationID string, ticket *domain.Ticket) error
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository instantiates repository.
func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const registrationColumns = `id, event_id, user_id, attendee_name, attendee_email, payment_state, payment_order_id, ticket_code, created_at`

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	const query = `
        INSERT INTO registrations (event_id, user_id, attendee_name, attendee_email, payment_state)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		reg.EventID,
		reg.UserID,
		reg.AttendeeName,
		reg.AttendeeEmail,
		reg.PaymentState,
	).Scan(&reg.ID, &reg.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateRegistration
	}
	return err
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *registrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id=$1 AND user_id=$2`
	return r.fetchSingle(ctx, query, eventID, userID)
}

func (r *registrationRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE payment_order_id=$1`
	return r.fetchSingle(ctx, query, orderID)
}

func (r *registrationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Registration, error) {
	var reg domain.Registration
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.AttendeeName,
		&reg.AttendeeEmail,
		&reg.PaymentState,
		&reg.PaymentOrderID,
		&reg.TicketCode,
		&reg.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) CountFinalized(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE event_id=$1 AND payment_state=$2`
	var count int
	err := r.pool.QueryRow(ctx, query, eventID, domain.PaymentStatePaid).Scan(&count)
	return count, err
}

func (r *registrationRepository) SetPaymentOrder(ctx context.Context, registrationID, orderID string) error {
	const query = `UPDATE registrations SET payment_order_id=$2 WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, registrationID, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *registrationRepository) CreateFinalizedWithTicket(ctx context.Context, reg *domain.Registration, ticket *domain.Ticket) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockEventAndCheckCapacity(ctx, tx, reg.EventID); err != nil {
			return err
		}

		const insertReg = `
            INSERT INTO registrations (event_id, user_id, attendee_name, attendee_email, payment_state, ticket_code)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING id, created_at`
		err := tx.QueryRow(ctx, insertReg,
			reg.EventID,
			reg.UserID,
			reg.AttendeeName,
			reg.AttendeeEmail,
			domain.PaymentStatePaid,
			ticket.Code,
		).Scan(&reg.ID, &reg.CreatedAt)
		if isUniqueViolation(err) {
			return ErrDuplicateRegistration
		}
		if err != nil {
			return err
		}
		reg.PaymentState = domain.PaymentStatePaid
		code := ticket.Code
		reg.TicketCode = &code

		ticket.RegistrationID = reg.ID
		ticket.EventID = reg.EventID
		return insertTicket(ctx, tx, ticket)
	})
}

func (r *registrationRepository) FinalizeWithTicket(ctx context.Context, registrationID string, ticket *domain.Ticket) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		const lockReg = `SELECT event_id, ticket_code FROM registrations WHERE id=$1 FOR UPDATE`
		var eventID string
		var existingCode *string
		if err := tx.QueryRow(ctx, lockReg, registrationID).Scan(&eventID, &existingCode); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if existingCode != nil {
			return ErrAlreadyFinalized
		}

		if err := lockEventAndCheckCapacity(ctx, tx, eventID); err != nil {
			return err
		}

		const update = `UPDATE registrations SET payment_state=$2, ticket_code=$3 WHERE id=$1`
		if _, err := tx.Exec(ctx, update, registrationID, domain.PaymentStatePaid, ticket.Code); err != nil {
			return err
		}

		ticket.RegistrationID = registrationID
		ticket.EventID = eventID
		return insertTicket(ctx, tx, ticket)
	})
}

// lockEventAndCheckCapacity serializes concurrent finalizations on the event
// row so the finalized count can never overshoot a finite capacity.
func lockEventAndCheckCapacity(ctx context.Context, tx pgx.Tx, eventID string) error {
	const lockEvent = `SELECT capacity FROM events WHERE id=$1 FOR UPDATE`
	var capacity *int
	if err := tx.QueryRow(ctx, lockEvent, eventID).Scan(&capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}
	if capacity == nil {
		return nil
	}

	const countPaid = `SELECT COUNT(*) FROM registrations WHERE event_id=$1 AND payment_state=$2`
	var finalized int
	if err := tx.QueryRow(ctx, countPaid, eventID, domain.PaymentStatePaid).Scan(&finalized); err != nil {
		return fmt.Errorf("count finalized: %w", err)
	}
	if finalized >= *capacity {
		return ErrEventFull
	}
	return nil
}

func insertTicket(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, registration_id, event_id)
        VALUES ($1,$2,$3)
        RETURNING id, issued_at`
	err := tx.QueryRow(ctx, query, ticket.Code, ticket.RegistrationID, ticket.EventID).
		Scan(&ticket.ID, &ticket.IssuedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateTicketCode
	}
	return err
}

func (r *registrationRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
