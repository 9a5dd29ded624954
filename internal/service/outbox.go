package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	outboxDomain "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/worker"
)

// enqueuePush schedules delivery of a stored notification through the
// outbox. A nil scheduledFor means deliver on the next poll.
func enqueuePush(ctx context.Context, repo worker.OutboxRepository, notification *domain.Notification, eventType string, scheduledFor *time.Time) error {
	payload, err := json.Marshal(outboxDomain.NotificationPayload{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	return repo.Save(ctx, &outboxDomain.OutboxEvent{
		AggregateType: "notification",
		AggregateID:   fmt.Sprintf("%d", notification.ID),
		EventType:     eventType,
		Payload:       payload,
		MaxRetries:    outboxDomain.DefaultMaxRetries,
		ScheduledFor:  scheduledFor,
	})
}

func enqueueProcessConflicts(ctx context.Context, repo worker.OutboxRepository, event *domain.Event) error {
	payload, err := json.Marshal(outboxDomain.ProcessConflictsPayload{
		EventID:  event.ID,
		CircleID: event.CircleID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal process_conflicts payload: %w", err)
	}

	return repo.Save(ctx, &outboxDomain.OutboxEvent{
		AggregateType: "event",
		AggregateID:   fmt.Sprintf("%d", event.ID),
		EventType:     outboxDomain.EventTypeProcessConflicts,
		Payload:       payload,
		MaxRetries:    outboxDomain.DefaultMaxRetries,
	})
}
