package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/suite"

	"volunteerhub/pkg/platform/audit/store/postgres"
	"volunteerhub/pkg/platform/tx"
)

type fakeOutbox struct {
	mu        sync.Mutex
	entries   []postgres.Entry
	published map[uuid.UUID]time.Time
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]postgres.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []postgres.Entry
	for _, e := range f.entries {
		if _, done := f.published[e.ID]; done {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.published[id] = at
	}
	return nil
}

type fakeProducer struct {
	mu       sync.Mutex
	records  []string
	failKey  string
	failures int
}

func (p *fakeProducer) Produce(_ context.Context, _ string, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.failKey {
		p.failures++
		return errors.New("broker unavailable")
	}
	p.records = append(p.records, string(value))
	return nil
}

type RelaySuite struct {
	suite.Suite
	outbox   *fakeOutbox
	producer *fakeProducer
	relay    *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.outbox = &fakeOutbox{published: map[uuid.UUID]time.Time{}}
	s.producer = &fakeProducer{}
	relay, err := NewRelay(s.outbox, s.producer, tx.NewMemoryManager(), "volunteerhub.audit",
		WithBatchSize(2),
		WithBackoff(func() retry.Backoff { return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond)) }),
	)
	s.Require().NoError(err)
	s.relay = relay
}

func (s *RelaySuite) addEntry(key, payload string) postgres.Entry {
	e := postgres.Entry{ID: uuid.New(), AggregateID: key, EventType: "enrollment_requested", Payload: []byte(payload)}
	s.outbox.entries = append(s.outbox.entries, e)
	return e
}

func (s *RelaySuite) TestPublishesInOrderAndMarks() {
	s.addEntry("user_1", "a")
	s.addEntry("user_1", "b")
	s.addEntry("user_2", "c")

	n, err := s.relay.ProcessBatch(context.Background())
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.relay.ProcessBatch(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)

	s.Equal([]string{"a", "b", "c"}, s.producer.records)
	s.Len(s.outbox.published, 3)
}

func (s *RelaySuite) TestStopsAtFailingEntryAndRetries() {
	s.addEntry("user_1", "a")
	blocked := s.addEntry("poison", "b")
	s.producer.failKey = "poison"

	n, err := s.relay.ProcessBatch(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(3, s.producer.failures, "initial attempt plus two retries")
	s.NotContains(s.outbox.published, blocked.ID)
}

func (s *RelaySuite) TestEmptyOutbox() {
	n, err := s.relay.ProcessBatch(context.Background())
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RelaySuite) TestConstructorRequiresDependencies() {
	_, err := NewRelay(nil, s.producer, tx.NewMemoryManager(), "t")
	s.Error(err)
	_, err = NewRelay(s.outbox, nil, tx.NewMemoryManager(), "t")
	s.Error(err)
	_, err = NewRelay(s.outbox, s.producer, nil, "t")
	s.Error(err)
	_, err = NewRelay(s.outbox, s.producer, tx.NewMemoryManager(), "")
	s.Error(err)
}
