// Package publisher emits audit events with fail-closed semantics: the write
// is synchronous and its error must fail the calling operation.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/middleware/metadata"
	"volunteerhub/pkg/requestcontext"
)

var errMissingAction = errors.New("audit event requires Action")

// Publisher enriches events with request metadata and appends them to a store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills timestamp, request id, client IP and client description from ctx
// when unset, then writes the event synchronously.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return errMissingAction
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Client == "" {
		event.Client = metadata.DescribeClient(requestcontext.UserAgent(ctx))
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action,
				"actor_id", event.ActorID,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}
	return nil
}
