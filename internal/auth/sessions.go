package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionRegistry tracks live session ids in Redis. A session cookie is only
// accepted while its sid key exists; logout deletes the key, which is the
// revocation mechanism.
type SessionRegistry struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionRegistry creates a registry whose entries expire alongside the
// session cookies they back.
func NewSessionRegistry(rdb *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{rdb: rdb, ttl: ttl}
}

// Register records a freshly issued session.
func (r *SessionRegistry) Register(ctx context.Context, sid, uid string) error {
	return r.rdb.Set(ctx, sessionKeyPrefix+sid, uid, r.ttl).Err()
}

// Active reports whether the session has not been revoked or expired.
func (r *SessionRegistry) Active(ctx context.Context, sid string) (bool, error) {
	n, err := r.rdb.Exists(ctx, sessionKeyPrefix+sid).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke invalidates the session immediately.
func (r *SessionRegistry) Revoke(ctx context.Context, sid string) error {
	return r.rdb.Del(ctx, sessionKeyPrefix+sid).Err()
}
