package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clubhub-io/event-registration/internal/domain"
)

// cachedEventRepository is a read-through cache in front of the Postgres
// event repository. Event descriptors are read-only to this subsystem, so a
// short TTL bounds staleness without risking state drift; registration counts
// and states are never cached.
type cachedEventRepository struct {
	inner  EventRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEventRepository wraps repo with a Redis read-through cache.
// A nil client or non-positive TTL disables caching.
func NewCachedEventRepository(inner EventRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) EventRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	return &cachedEventRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func eventCacheKey(id string) string {
	return "event:" + id
}

func (r *cachedEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	raw, err := r.client.Get(ctx, eventCacheKey(id)).Bytes()
	if err == nil {
		var event domain.Event
		if unmarshalErr := json.Unmarshal(raw, &event); unmarshalErr == nil {
			return &event, nil
		}
		// corrupt entry, fall through to the store
		r.client.Del(ctx, eventCacheKey(id))
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("event cache read failed", zap.String("event_id", id), zap.Error(err))
	}

	event, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, marshalErr := json.Marshal(event); marshalErr == nil {
		if setErr := r.client.Set(ctx, eventCacheKey(id), encoded, r.ttl).Err(); setErr != nil {
			r.logger.Warn("event cache write failed", zap.String("event_id", id), zap.Error(setErr))
		}
	}
	return event, nil
}

func (r *cachedEventRepository) ListApproved(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	return r.inner.ListApproved(ctx, limit, offset)
}
