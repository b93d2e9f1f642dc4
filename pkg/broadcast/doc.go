// Package broadcast provides type-safe, channel-keyed message broadcasting
// with automatic subscriber cleanup.
//
// A Hub routes published messages to every subscriber of a named channel.
// Delivery is non-blocking: a subscriber whose buffer is full is dropped
// rather than allowed to stall the publisher. Subscriptions are tied to a
// context and cleaned up when it is cancelled.
//
// The status store publishes connection-status patches through a hub keyed by
// subject id; each live event stream holds one subscription.
package broadcast
