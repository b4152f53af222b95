package channel

import (
	"context"
	"errors"

	"headsup-server/pkg/protocol"
)

// ErrClosed is returned when publishing on a closed channel
var ErrClosed = errors.New("channel is closed")

// Handler receives inbound envelopes. Handlers for one subscription are never called
// concurrently, but they should return quickly
type Handler func(e *protocol.Envelope)

// Channel is a publish/subscribe channel for a single game. Delivery is best effort:
// messages may be dropped, and every subscriber (including the sender) receives
// what was published
type Channel interface {
	Publish(ctx context.Context, e *protocol.Envelope) error
	Subscribe(fn Handler) (unsubscribe func())
	Close() error
}
