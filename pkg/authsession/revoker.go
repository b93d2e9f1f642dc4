package authsession

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker is a server-side revocation set. Revoking a subject invalidates
// every token issued to it at or before the revocation instant; entries
// expire after the TTL since by then all such tokens are past their own
// expiry anyway.
type Revoker interface {
	// Revoke marks the subject revoked as of now, keeping the mark for ttl.
	Revoke(ctx context.Context, subjectID string, ttl time.Duration) error

	// RevokedAt returns the most recent revocation instant for the subject
	// and whether one exists.
	RevokedAt(ctx context.Context, subjectID string) (time.Time, bool, error)
}

const redisRevokePrefix = "session:revoked:"

// RedisRevoker stores revocation marks in Redis so all instances enforce
// logout-everywhere consistently.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker creates a Redis-backed revocation set.
func NewRedisRevoker(client *redis.Client) (*RedisRevoker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &RedisRevoker{client: client}, nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, subjectID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, redisRevokePrefix+subjectID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("authsession: revoke: %w", err)
	}
	return nil
}

func (r *RedisRevoker) RevokedAt(ctx context.Context, subjectID string) (time.Time, bool, error) {
	raw, err := r.client.Get(ctx, redisRevokePrefix+subjectID).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("authsession: revocation lookup: %w", err)
	}

	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("authsession: bad revocation mark: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

// MemoryRevoker is an in-process revocation set for tests and
// single-instance deployments.
type MemoryRevoker struct {
	mu      sync.RWMutex
	entries map[string]memoryRevocation
}

type memoryRevocation struct {
	revokedAt time.Time
	expiresAt time.Time
}

// NewMemoryRevoker creates an empty in-memory revocation set.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{entries: make(map[string]memoryRevocation)}
}

func (r *MemoryRevoker) Revoke(ctx context.Context, subjectID string, ttl time.Duration) error {
	now := time.Now()
	r.mu.Lock()
	// Sweep lapsed marks so the set stays bounded in long-lived processes
	for id, entry := range r.entries {
		if now.After(entry.expiresAt) {
			delete(r.entries, id)
		}
	}
	r.entries[subjectID] = memoryRevocation{
		revokedAt: now,
		expiresAt: now.Add(ttl),
	}
	r.mu.Unlock()
	return nil
}

func (r *MemoryRevoker) RevokedAt(ctx context.Context, subjectID string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[subjectID]
	if !ok {
		return time.Time{}, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(r.entries, subjectID)
		return time.Time{}, false, nil
	}
	return entry.revokedAt, true, nil
}
