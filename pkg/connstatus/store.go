package connstatus

import (
	"context"

	"github.com/dmitrymomot/assistkit/pkg/broadcast"
)

// Reader is the narrow read interface consumers use. The status endpoints
// and the synchronizer only ever read; the background sync job is the sole
// writer.
type Reader interface {
	// Get returns the current status for the subject. An unknown subject is
	// not an error: it reports the default, disconnected status.
	Get(ctx context.Context, subjectID string) (ConnectionStatus, error)
}

// Store is the authoritative record of connection/sync state.
type Store interface {
	Reader

	// Apply merges the patch into the subject's status, stamps UpdatedAt,
	// persists the result and publishes the patch to subscribers.
	Apply(ctx context.Context, subjectID string, p Patch) (ConnectionStatus, error)

	// Subscribe returns a subscriber delivering every patch applied for the
	// subject after the call. The subscription ends with the context.
	Subscribe(ctx context.Context, subjectID string) broadcast.Subscriber[Patch]
}
