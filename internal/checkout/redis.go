package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"digistore/internal/domain"
)

// redisStore keeps checkout sessions in Redis so an auto-expiring TTL and a
// bot restart both clean up abandoned checkouts.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a SessionStore over an existing Redis client. A zero
// ttl means sessions never expire on the Redis side.
func NewRedisStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisStore{client: client, ttl: ttl}
}

func sessionRedisKey(userID int64) string {
	return fmt.Sprintf("checkout:session:%d", userID)
}

func (s *redisStore) Put(ctx context.Context, userID int64, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionRedisKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session for %d: %w", userID, err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, userID int64) (domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionRedisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrNoActiveCheckout
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session for %d: %w", userID, err)
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("decode session for %d: %w", userID, err)
	}
	return sess, nil
}

func (s *redisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionRedisKey(userID)).Err(); err != nil {
		return fmt.Errorf("drop session for %d: %w", userID, err)
	}
	return nil
}
