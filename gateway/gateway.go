// Package gateway exposes the dialog service over inbound transports: a
// Connect RPC procedure for request/response integrations, a WebSocket stream
// for live call legs, and a health endpoint.
//
// Both transports speak the same JSON event contract and delegate to one
// Dialog. The WebSocket read loop serializes events per connection, which is
// what keeps events for one contact ordered.
package gateway

import (
	"context"

	"github.com/telistry/switchboard/core/protocol"
	"github.com/telistry/switchboard/observability"
)

// Dialog is the slice of the conversation service the transports need.
type Dialog interface {
	Handle(ctx context.Context, event protocol.Event) (*protocol.Response, error)
	ActiveSessions(ctx context.Context) (int, error)
	Metrics() *observability.Metrics
}

// Gateway event types.
const (
	EventStreamOpen  observability.EventType = "gateway.stream.open"
	EventStreamClose observability.EventType = "gateway.stream.close"
)
