package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/repository"
)

const sessionPrefix = "auraplan:session:"

type sessionRepository struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository. Keys expire
// together with the session.
func NewSessionRepository(client *redislib.Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	result, err := r.client.Get(ctx, sessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, domain.StorageError(sessionPrefix+id, err)
	}

	var session domain.Session
	if err := json.Unmarshal(result, &session); err != nil {
		return nil, domain.DeserializationError(sessionPrefix+id, err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, sessionPrefix+session.ID, payload, ttl).Err(); err != nil {
		return domain.StorageError(sessionPrefix+session.ID, err)
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionPrefix+id).Err()
}

// Extend pushes the expiry out. A session that already expired cannot be extended.
func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}
	ok, err := r.client.Expire(ctx, sessionPrefix+id, duration).Result()
	if err != nil {
		return domain.StorageError(sessionPrefix+id, err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}
