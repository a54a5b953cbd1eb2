// Package events publishes generation lifecycle notifications for external
// consumers (editor integrations, deployment hooks). Publishing is optional;
// the noop publisher keeps callers free of nil checks.
package events

import (
	"context"
	"time"
)

// GenerationEvent describes one completed generation attempt.
type GenerationEvent struct {
	GenerationID   string        `json:"generation_id"`
	Outcome        string        `json:"outcome"` // success|failed
	PagesRendered  int           `json:"pages_rendered"`
	OutputsWritten int           `json:"outputs_written"`
	OutputsDeleted int           `json:"outputs_deleted"`
	Duration       time.Duration `json:"duration_ns"`
	Error          string        `json:"error,omitempty"`
	Revision       string        `json:"revision,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// Publisher delivers generation events to an external bus.
type Publisher interface {
	PublishGeneration(ctx context.Context, event GenerationEvent) error
	Close() error
}

// NoopPublisher is the default Publisher when no bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishGeneration(context.Context, GenerationEvent) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }
