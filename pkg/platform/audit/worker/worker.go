// Package worker relays audit outbox entries to Kafka.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"volunteerhub/pkg/platform/audit/store/postgres"
	"volunteerhub/pkg/platform/tx"
)

// OutboxReader is the outbox surface the relay needs.
type OutboxReader interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer publishes one record and returns once the broker acknowledged it.
type Producer interface {
	Produce(ctx context.Context, topic, key string, value []byte) error
}

// Relay polls the outbox and publishes pending entries in order.
type Relay struct {
	reader    OutboxReader
	producer  Producer
	tx        tx.Manager
	topic     string
	batchSize int
	interval  time.Duration
	backoff   func() retry.Backoff
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBackoff overrides the per-record publish backoff.
func WithBackoff(fn func() retry.Backoff) Option {
	return func(r *Relay) { r.backoff = fn }
}

func NewRelay(reader OutboxReader, producer Producer, txManager tx.Manager, topic string, opts ...Option) (*Relay, error) {
	if reader == nil {
		return nil, fmt.Errorf("outbox reader is required")
	}
	if producer == nil {
		return nil, fmt.Errorf("producer is required")
	}
	if txManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	r := &Relay{
		reader:    reader,
		producer:  producer,
		tx:        txManager,
		topic:     topic,
		batchSize: 100,
		interval:  2 * time.Second,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "audit relay batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessBatch publishes one batch. Entries published before a failure are
// still marked, so a failing record only blocks the ones behind it.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	published := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.reader.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(entries))
		var publishErr error
		for _, e := range entries {
			if err := r.publish(ctx, e); err != nil {
				publishErr = fmt.Errorf("publish outbox entry %s: %w", e.ID, err)
				break
			}
			ids = append(ids, e.ID)
		}

		if err := r.reader.MarkPublished(ctx, ids, r.now()); err != nil {
			return err
		}
		published = len(ids)
		if r.metrics != nil {
			r.metrics.Published.Add(float64(published))
		}
		if publishErr != nil {
			if r.metrics != nil {
				r.metrics.Failures.Inc()
			}
			r.logger.WarnContext(ctx, "audit relay stopped at failing entry", "error", publishErr)
		}
		return nil
	})
	return published, err
}

func (r *Relay) publish(ctx context.Context, e postgres.Entry) error {
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		if err := r.producer.Produce(ctx, r.topic, e.AggregateID, e.Payload); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
