package connstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/assistkit/pkg/broadcast"
)

// PostgresStore persists statuses in Postgres. Patch fan-out happens through
// an in-process hub, so stream endpoints must run in the same instance as the
// sync job writing through this store (use RedisStore for multi-instance
// deployments).
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS mailbox_status (
//	    subject_id  TEXT PRIMARY KEY,
//	    status      JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
	hub  *broadcast.MemoryHub[Patch]
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrNilClient
	}
	return &PostgresStore{
		pool: pool,
		hub:  broadcast.NewMemoryHub[Patch](16),
	}, nil
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS mailbox_status (
			subject_id  TEXT PRIMARY KEY,
			status      JSONB NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("connstatus: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, subjectID string) (ConnectionStatus, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM mailbox_status WHERE subject_id = $1`,
		subjectID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConnectionStatus{}, nil
		}
		return ConnectionStatus{}, fmt.Errorf("connstatus: pg get: %w", err)
	}

	var status ConnectionStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: decode status: %w", err)
	}
	return status, nil
}

func (s *PostgresStore) Apply(ctx context.Context, subjectID string, p Patch) (ConnectionStatus, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: pg begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status ConnectionStatus
	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT status FROM mailbox_status WHERE subject_id = $1 FOR UPDATE`,
		subjectID,
	).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// First write for this subject
	case err != nil:
		return ConnectionStatus{}, fmt.Errorf("connstatus: pg select: %w", err)
	default:
		if err := json.Unmarshal(raw, &status); err != nil {
			return ConnectionStatus{}, fmt.Errorf("connstatus: decode status: %w", err)
		}
	}

	merged := status.Merge(p)
	merged.UpdatedAt = time.Now()

	out, err := json.Marshal(merged)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: encode status: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO mailbox_status (subject_id, status, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (subject_id) DO UPDATE SET status = $2, updated_at = $3`,
		subjectID, out, merged.UpdatedAt,
	)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: pg upsert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ConnectionStatus{}, fmt.Errorf("connstatus: pg commit: %w", err)
	}

	_ = s.hub.Publish(ctx, subjectID, p)

	return merged, nil
}

func (s *PostgresStore) Subscribe(ctx context.Context, subjectID string) broadcast.Subscriber[Patch] {
	return s.hub.Subscribe(ctx, subjectID)
}

// Close shuts down the patch hub. The connection pool is owned by the caller.
func (s *PostgresStore) Close() error {
	return s.hub.Close()
}
