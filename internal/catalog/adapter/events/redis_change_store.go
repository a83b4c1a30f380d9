package events

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/catalog/domain/repository"
	apperrors "franchise-catalog/internal/shared/errors"
	"franchise-catalog/internal/shared/logger"
	"franchise-catalog/internal/shared/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultFeedLimit int64 = 100
	MaxFeedLimit     int64 = 1000
)

var streamIDPattern = regexp.MustCompile(`^\d+(-\d+)?$`)

var (
	_ repository.EventPublisher = (*RedisChangeStore)(nil)
	_ repository.ChangeFeed     = (*RedisChangeStore)(nil)
)

// RedisChangeStore keeps the catalog change trail in a single capped Redis stream.
// Stream entry ids double as event ids and feed cursors.
type RedisChangeStore struct {
	client *redis.Client
	stream string
	maxLen int64
	logger logger.Logger
}

// NewRedisChangeStore creates a store appending to stream, capped at maxLen entries
func NewRedisChangeStore(client *redis.Client, stream string, maxLen int64, log logger.Logger) *RedisChangeStore {
	return &RedisChangeStore{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: log.WithComponent("change_store"),
	}
}

// Publish appends the event and sets its ID to the stream entry id
func (s *RedisChangeStore) Publish(ctx context.Context, event *model.ChangeEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Values: map[string]interface{}{
			"entity":      event.Entity,
			"action":      string(event.Action),
			"entityId":    event.EntityID,
			"franchiseId": event.FranchiseID,
			"branchId":    event.BranchID,
			"subject":     event.Subject,
			"occurredAt":  event.OccurredAt.Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		metrics.ChangeEventsPublished.WithLabelValues(event.Entity, string(event.Action), metrics.OutcomeError).Inc()
		s.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"stream":     s.stream,
			"event_type": event.EventType(),
			"error":      err.Error(),
		}).Error("Failed to append change event")
		return apperrors.NewInfrastructureError("failed to append change event").
			WithComponent("change_store").
			WithCause(err)
	}

	event.ID = id
	metrics.ChangeEventsPublished.WithLabelValues(event.Entity, string(event.Action), metrics.OutcomeOK).Inc()
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"stream":     s.stream,
		"event_id":   id,
		"event_type": event.EventType(),
	}).Debug("Change event appended")
	return nil
}

// Since returns up to limit events recorded after cursor, oldest first. An empty cursor
// reads from the start of the trail.
func (s *RedisChangeStore) Since(ctx context.Context, cursor string, limit int64) ([]*model.ChangeEvent, error) {
	if cursor != "" && !streamIDPattern.MatchString(cursor) {
		return nil, apperrors.NewValidationError("invalid change cursor").
			WithCode("INVALID_CURSOR").
			WithDetail("cursor", cursor)
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	start, count := "-", limit
	if cursor != "" {
		// the range is inclusive, so the cursor entry itself comes back first
		start, count = cursor, limit+1
	}

	messages, err := s.client.XRangeN(ctx, s.stream, start, "+", count).Result()
	if err != nil {
		return nil, apperrors.NewInfrastructureError("failed to read change events").
			WithComponent("change_store").
			WithCause(err)
	}

	out := make([]*model.ChangeEvent, 0, len(messages))
	for _, msg := range messages {
		if msg.ID == cursor {
			continue
		}
		event, err := parseChangeEvent(msg)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"message_id": msg.ID,
				"error":      err.Error(),
			}).Warn("Skipping unreadable change event")
			continue
		}
		out = append(out, event)
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of retained events
func (s *RedisChangeStore) Len(ctx context.Context) (int64, error) {
	return s.client.XLen(ctx, s.stream).Result()
}

func parseChangeEvent(msg redis.XMessage) (*model.ChangeEvent, error) {
	str := func(key string) string {
		v, _ := msg.Values[key].(string)
		return v
	}

	entity, action := str("entity"), str("action")
	if entity == "" || action == "" {
		return nil, fmt.Errorf("message %s has no entity or action", msg.ID)
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, str("occurredAt"))
	if err != nil {
		return nil, fmt.Errorf("message %s: occurredAt: %w", msg.ID, err)
	}

	return &model.ChangeEvent{
		ID:          msg.ID,
		Entity:      entity,
		Action:      model.ChangeAction(action),
		EntityID:    str("entityId"),
		FranchiseID: str("franchiseId"),
		BranchID:    str("branchId"),
		Subject:     str("subject"),
		OccurredAt:  occurredAt,
	}, nil
}
