package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutboxRepo struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*domain.OutboxEvent
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{events: make(map[int64]*domain.OutboxEvent)}
}

func (f *fakeOutboxRepo) Save(_ context.Context, event *domain.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	event.Id = f.nextID
	event.Status = domain.StatusPending
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Millisecond)
	}

	copied := *event
	f.events[event.Id] = &copied
	return nil
}

func (f *fakeOutboxRepo) FindPending(_ context.Context, batchSize int, now time.Time) ([]*domain.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due []*domain.OutboxEvent
	for _, e := range f.events {
		if e.Status == domain.StatusPending && e.Due(now) {
			copied := *e
			due = append(due, &copied)
		}
	}

	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })

	if len(due) > batchSize {
		due = due[:batchSize]
	}
	return due, nil
}

func (f *fakeOutboxRepo) MarkProcessing(_ context.Context, id int64) error {
	return f.setStatus(id, domain.StatusProcessing)
}

func (f *fakeOutboxRepo) MarkCompleted(_ context.Context, id int64) error {
	return f.setStatus(id, domain.StatusCompleted)
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id int64, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return errors.New("event not found")
	}
	e.Status = domain.StatusFailed
	e.LastError = &errMsg
	return nil
}

func (f *fakeOutboxRepo) IncrementRetry(_ context.Context, id int64, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return errors.New("event not found")
	}
	e.RetryCount++
	e.LastError = &errMsg
	if e.RetryCount >= e.MaxRetries {
		e.Status = domain.StatusFailed
	} else {
		e.Status = domain.StatusPending
	}
	return nil
}

func (f *fakeOutboxRepo) setStatus(id int64, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return errors.New("event not found")
	}
	e.Status = status
	return nil
}

func (f *fakeOutboxRepo) get(id int64) domain.OutboxEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[id]
}

func enqueue(t *testing.T, repo *fakeOutboxRepo, eventType string, maxRetries int, scheduledFor *time.Time) int64 {
	t.Helper()

	event := &domain.OutboxEvent{
		AggregateType: "event",
		AggregateID:   "1",
		EventType:     eventType,
		Payload:       json.RawMessage(`{}`),
		MaxRetries:    maxRetries,
		ScheduledFor:  scheduledFor,
	}
	require.NoError(t, repo.Save(context.Background(), event))
	return event.Id
}

func newTestDispatcher(repo *fakeOutboxRepo) *Dispatcher {
	return NewDispatcher(repo, zap.NewNop(), time.Second, 10)
}

func TestDispatcherCompletesEvent(t *testing.T) {
	repo := newFakeOutboxRepo()
	d := newTestDispatcher(repo)

	var handled int
	d.RegisterHandler(domain.EventTypePushNotification, func(ctx context.Context, payload json.RawMessage) error {
		handled++
		return nil
	})

	id := enqueue(t, repo, domain.EventTypePushNotification, 3, nil)

	require.NoError(t, d.processBatch(context.Background()))

	assert.Equal(t, 1, handled)
	assert.Equal(t, domain.StatusCompleted, repo.get(id).Status)
}

func TestDispatcherRetriesUntilFailed(t *testing.T) {
	repo := newFakeOutboxRepo()
	d := newTestDispatcher(repo)

	var attempts int
	d.RegisterHandler(domain.EventTypePushNotification, func(ctx context.Context, payload json.RawMessage) error {
		attempts++
		return errors.New("push gateway down")
	})

	id := enqueue(t, repo, domain.EventTypePushNotification, 3, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.processBatch(context.Background()))
	}

	got := repo.get(id)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 3, got.RetryCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "push gateway down", *got.LastError)

	// A further poll must not pick the failed event up again.
	require.NoError(t, d.processBatch(context.Background()))
	assert.Equal(t, 3, attempts)
}

func TestDispatcherUnknownEventTypeFailsImmediately(t *testing.T) {
	repo := newFakeOutboxRepo()
	d := newTestDispatcher(repo)

	id := enqueue(t, repo, "event.unknown", 5, nil)

	require.NoError(t, d.processBatch(context.Background()))

	got := repo.get(id)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 0, got.RetryCount)
}

func TestDispatcherHonoursSchedule(t *testing.T) {
	repo := newFakeOutboxRepo()
	d := newTestDispatcher(repo)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return base }

	var handled int
	d.RegisterHandler(domain.EventTypeReminder, func(ctx context.Context, payload json.RawMessage) error {
		handled++
		return nil
	})

	future := base.Add(30 * time.Minute)
	id := enqueue(t, repo, domain.EventTypeReminder, 3, &future)

	require.NoError(t, d.processBatch(context.Background()))
	assert.Equal(t, 0, handled)
	assert.Equal(t, domain.StatusPending, repo.get(id).Status)

	d.now = func() time.Time { return future }

	require.NoError(t, d.processBatch(context.Background()))
	assert.Equal(t, 1, handled)
	assert.Equal(t, domain.StatusCompleted, repo.get(id).Status)
}

func TestDispatcherProcessesBatchFIFO(t *testing.T) {
	repo := newFakeOutboxRepo()
	d := newTestDispatcher(repo)

	var order []int64
	d.RegisterHandler(domain.EventTypePushNotification, func(ctx context.Context, payload json.RawMessage) error {
		var p struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(payload, &p))
		order = append(order, p.ID)
		return nil
	})

	for i := int64(1); i <= 3; i++ {
		event := &domain.OutboxEvent{
			AggregateType: "notification",
			AggregateID:   "1",
			EventType:     domain.EventTypePushNotification,
			Payload:       json.RawMessage(fmt.Sprintf(`{"id":%d}`, i)),
			MaxRetries:    3,
		}
		require.NoError(t, repo.Save(context.Background(), event))
	}

	require.NoError(t, d.processBatch(context.Background()))

	assert.Equal(t, []int64{1, 2, 3}, order)
}

func TestDispatcherStartStop(t *testing.T) {
	repo := newFakeOutboxRepo()
	d := NewDispatcher(repo, zap.NewNop(), 10*time.Millisecond, 10)

	done := make(chan struct{})
	d.RegisterHandler(domain.EventTypePushNotification, func(ctx context.Context, payload json.RawMessage) error {
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})

	enqueue(t, repo, domain.EventTypePushNotification, 3, nil)

	go d.Start(context.Background())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher never processed the event")
	}

	d.Stop()
}
