package events

import "context"

// NoopPublisher drops every event. The server runs with one whenever
// PMES_NATS_URL is unset, so handlers can publish unconditionally.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(_ context.Context, _ string, _ any) error { return nil }

func (n *NoopPublisher) Close() error { return nil }
