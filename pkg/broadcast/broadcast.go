package broadcast

import "context"

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages published to one channel of a Hub.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on.
	// The channel is closed when the subscriber is closed.
	Receive() <-chan Message[T]

	// Close closes the subscriber and releases resources.
	// Close is idempotent and safe to call multiple times.
	Close() error
}

// Hub routes messages to subscribers keyed by channel name.
// Implementations must handle slow consumers gracefully, dropping
// messages rather than blocking the publisher.
type Hub[T any] interface {
	// Subscribe creates a subscriber on the named channel. When the context
	// is cancelled the subscription is cleaned up automatically.
	Subscribe(ctx context.Context, channel string) Subscriber[T]

	// Publish sends a message to all active subscribers of the channel.
	// Messages may be dropped for slow consumers.
	Publish(ctx context.Context, channel string, data T) error

	// Close shuts down the hub and closes all subscribers.
	Close() error
}
