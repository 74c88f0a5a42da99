package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub-io/event-registration/internal/domain"
)

// EventRepository provides read access to event descriptors. Events are
// owned by the organizer workflows; this subsystem never mutates them.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListApproved(ctx context.Context, limit, offset int) ([]domain.Event, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository instantiates repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventColumns = `id, title, description, venue, starts_at, ends_at, capacity, price_minor, status, created_at`

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id=$1`
	var event domain.Event
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Venue,
		&event.StartsAt,
		&event.EndsAt,
		&event.Capacity,
		&event.PriceMinor,
		&event.Status,
		&event.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) ListApproved(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + eventColumns + `
        FROM events WHERE status=$1
        ORDER BY starts_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, domain.EventStatusApproved, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.Venue,
			&event.StartsAt,
			&event.EndsAt,
			&event.Capacity,
			&event.PriceMinor,
			&event.Status,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
