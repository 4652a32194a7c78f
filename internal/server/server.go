package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/Self-Labs/pmes/internal/auth"
	"github.com/Self-Labs/pmes/internal/events"
	"github.com/Self-Labs/pmes/internal/store"
)

// RosterServer holds the HTTP service state: storage, the token issuer,
// and the best-effort event publisher.
type RosterServer struct {
	store     store.Store
	publisher events.Publisher
	tokens    *auth.TokenIssuer

	// now is replaceable in tests.
	now func() time.Time
}

// NewRosterServer returns a new RosterServer backed by the given store,
// publisher, and token issuer.
func NewRosterServer(s store.Store, p events.Publisher, tokens *auth.TokenIssuer) *RosterServer {
	return &RosterServer{
		store:     s,
		publisher: p,
		tokens:    tokens,
		now:       time.Now,
	}
}

// publish sends an event to the publisher. Publishing is best-effort;
// failures are logged but never fail the request that produced them.
func (s *RosterServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
