package connstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/assistkit/pkg/broadcast"
)

const (
	redisKeyPrefix     = "connstatus:"
	redisChannelPrefix = "connstatus:patch:"
)

// RedisStore persists statuses in Redis and distributes patches over Redis
// pub/sub, so event streams served by different instances all observe writes
// from the background sync job.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, subjectID string) (ConnectionStatus, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+subjectID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ConnectionStatus{}, nil
		}
		return ConnectionStatus{}, fmt.Errorf("connstatus: redis get: %w", err)
	}

	var status ConnectionStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: decode status: %w", err)
	}
	return status, nil
}

func (s *RedisStore) Apply(ctx context.Context, subjectID string, p Patch) (ConnectionStatus, error) {
	key := redisKeyPrefix + subjectID
	var merged ConnectionStatus

	// Optimistic concurrency: retry the read-merge-write when another writer
	// touches the key between our read and write.
	txn := func(tx *redis.Tx) error {
		var status ConnectionStatus
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// First write for this subject
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &status); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}
		}

		merged = status.Merge(p)
		merged.UpdatedAt = time.Now()

		out, err := json.Marshal(merged)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	applied := false
	for range 3 {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			applied = true
			break
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return ConnectionStatus{}, fmt.Errorf("connstatus: redis apply: %w", err)
		}
	}
	if !applied {
		return ConnectionStatus{}, fmt.Errorf("connstatus: redis apply: %w", ErrTooMuchContention)
	}

	patchJSON, err := json.Marshal(p)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: encode patch: %w", err)
	}
	if err := s.client.Publish(ctx, redisChannelPrefix+subjectID, patchJSON).Err(); err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: publish patch: %w", err)
	}

	return merged, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, subjectID string) broadcast.Subscriber[Patch] {
	pubsub := s.client.Subscribe(ctx, redisChannelPrefix+subjectID)
	sub := &redisSubscriber{
		pubsub: pubsub,
		ch:     make(chan broadcast.Message[Patch], 16),
	}
	go sub.pump(ctx)
	return sub
}

// redisSubscriber adapts a Redis pub/sub subscription to the broadcast
// Subscriber interface, decoding JSON patches as they arrive.
type redisSubscriber struct {
	pubsub    *redis.PubSub
	ch        chan broadcast.Message[Patch]
	closeOnce sync.Once
}

func (s *redisSubscriber) Receive() <-chan broadcast.Message[Patch] { return s.ch }

func (s *redisSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscriber) pump(ctx context.Context) {
	defer close(s.ch)

	msgs := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var p Patch
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				// A single undecodable message is dropped, the
				// subscription stays up
				continue
			}
			select {
			case s.ch <- broadcast.Message[Patch]{Data: p}:
			default:
				// Slow consumer, drop
			}
		}
	}
}
