package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "volunteerhub/pkg/domain"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/audit/store/memory"
	"volunteerhub/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestPublisher_EnrichesFromRequestContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	err := pub.Emit(ctx, audit.Event{Action: audit.EventEnrollmentRequested, ActorID: id.UserID("user_1")})
	require.NoError(t, err)

	events, err := store.ListByUser(context.Background(), id.UserID("user_1"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, "203.0.113.9", events[0].ClientIP)
	assert.Contains(t, events[0].Client, "Chrome")
	assert.Equal(t, audit.CategoryCompliance, events[0].Category())
}

func TestPublisher_KeepsExplicitFields(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ctx := requestcontext.WithRequestID(context.Background(), "req-ctx")
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: audit.EventOpportunityCreated, Timestamp: ts, RequestID: "req-explicit"}))

	events, _ := store.ListAll(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, ts, events[0].Timestamp)
	assert.Equal(t, "req-explicit", events[0].RequestID)
	assert.Equal(t, audit.CategoryOperations, events[0].Category())
}

func TestPublisher_FailsClosed(t *testing.T) {
	pub := NewPublisher(failingStore{})
	err := pub.Emit(context.Background(), audit.Event{Action: audit.EventProfileCreated})
	assert.ErrorContains(t, err, "audit persistence failed")
}

func TestPublisher_RequiresAction(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	assert.Error(t, pub.Emit(context.Background(), audit.Event{}))
}
