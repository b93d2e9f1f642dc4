package connstatus

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/assistkit/pkg/broadcast"
)

// MemoryStore keeps statuses in process memory. Suitable for tests and
// single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]ConnectionStatus
	hub      *broadcast.MemoryHub[Patch]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statuses: make(map[string]ConnectionStatus),
		hub:      broadcast.NewMemoryHub[Patch](16),
	}
}

func (s *MemoryStore) Get(ctx context.Context, subjectID string) (ConnectionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Unknown subject reads as default/disconnected
	return s.statuses[subjectID], nil
}

func (s *MemoryStore) Apply(ctx context.Context, subjectID string, p Patch) (ConnectionStatus, error) {
	s.mu.Lock()
	status := s.statuses[subjectID].Merge(p)
	status.UpdatedAt = time.Now()
	s.statuses[subjectID] = status
	s.mu.Unlock()

	// Publish outside the lock so a slow hub cannot stall writers
	_ = s.hub.Publish(ctx, subjectID, p)

	return status, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, subjectID string) broadcast.Subscriber[Patch] {
	return s.hub.Subscribe(ctx, subjectID)
}

// Close shuts down the patch hub, closing all subscribers.
func (s *MemoryStore) Close() error {
	return s.hub.Close()
}
