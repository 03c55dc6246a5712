package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wricardo/hexbuzz/game/service"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "hexbuzz:session:"

// RedisOptions configures the Redis connection
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Prefix   string
	// TTL expires idle sessions. 0 keeps them forever.
	TTL time.Duration
}

// RedisPersistence implements SessionPersistence on top of Redis strings
type RedisPersistence struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	ctx    context.Context
}

// ConnectRedis opens a client and checks the connection
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("Connected to Redis at %s", opts.Address)
	return client, nil
}

// NewRedisPersistence stores sessions under prefix+id
func NewRedisPersistence(ctx context.Context, client *redis.Client, prefix string, ttl time.Duration) *RedisPersistence {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisPersistence{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		ctx:    ctx,
	}
}

func (rp *RedisPersistence) key(id string) string {
	return rp.prefix + strings.ToLower(id)
}

// Save persists a session as a JSON string
func (rp *RedisPersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data, err := json.Marshal(encodeSession(session))
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	if err := rp.client.Set(rp.ctx, rp.key(session.ID), data, rp.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.ID, err)
	}
	return nil
}

// Load retrieves a session from Redis
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	raw, err := rp.client.Get(rp.ctx, rp.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return decodeSession(data)
}

// Delete removes a session key
func (rp *RedisPersistence) Delete(id string) error {
	removed, err := rp.client.Del(rp.ctx, rp.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll scans the prefix for session IDs
func (rp *RedisPersistence) ListAll() ([]string, error) {
	var ids []string
	iter := rp.client.Scan(rp.ctx, 0, rp.prefix+"*", 100).Iterator()
	for iter.Next(rp.ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), rp.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return ids, nil
}

// Exists checks if a session key exists
func (rp *RedisPersistence) Exists(id string) bool {
	n, err := rp.client.Exists(rp.ctx, rp.key(id)).Result()
	if err != nil {
		log.Printf("Warning: Failed to check session %s: %v", id, err)
		return false
	}
	return n > 0
}
