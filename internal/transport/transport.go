// Package transport defines the interface for pluggable turn transports.
//
// Each transport (gRPC, HTTP, MQTT) implements this interface and hands the
// turns it decodes to the dispatcher. The dispatcher doesn't care how turns
// arrive; it only works with the Handler contract.
package transport

import (
	"context"

	"github.com/nadzzz/roomcall/internal/message"
)

// Handler processes an incoming turn and returns the response for the sender.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, turn *message.Turn) (*message.Response, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mqtt").
	Name() string

	// Listen starts accepting turns and dispatches them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
