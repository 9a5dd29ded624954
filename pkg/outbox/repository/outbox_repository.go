package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type outboxRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewOutboxRepository(pool *pgxpool.Pool, logger *zap.Logger) worker.OutboxRepository {
	return &outboxRepo{
		pool:   pool,
		tracer: otel.Tracer("outbox_repository"),
		logger: logger,
	}
}

func (r *outboxRepo) Save(ctx context.Context, event *domain.OutboxEvent) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("aggregate_type", event.AggregateType),
		attribute.String("aggregate_id", event.AggregateID),
		attribute.String("event_type", event.EventType),
	)

	query := `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, status, retry_count, max_retries, scheduled_for)
		VALUES ($1, $2, $3, $4, 'pending', 0, $5, $6)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx,
		query,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		event.Payload,
		event.MaxRetries,
		event.ScheduledFor,
	).Scan(&event.Id, &event.CreatedAt)

	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

func (r *outboxRepo) FindPending(ctx context.Context, batchSize int, now time.Time) ([]*domain.OutboxEvent, error) {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.FindPending")
	defer span.End()

	span.SetAttributes(
		attribute.Int("batch_size", batchSize),
	)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status, retry_count, max_retries, scheduled_for, last_error, created_at
		FROM outbox_events
		WHERE status = 'pending'
		  AND (scheduled_for IS NULL OR scheduled_for <= $2)
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, batchSize, now)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		if err := rows.Scan(
			&e.Id,
			&e.AggregateType,
			&e.AggregateID,
			&e.EventType,
			&e.Payload,
			&e.Status,
			&e.RetryCount,
			&e.MaxRetries,
			&e.ScheduledFor,
			&e.LastError,
			&e.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning event: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("rows error: %w", err)
	}

	span.SetAttributes(
		attribute.Int("result_count", len(events)),
	)

	return events, nil
}

func (r *outboxRepo) MarkProcessing(ctx context.Context, eventID int64) error {
	return r.setStatus(ctx, "OutboxRepository.MarkProcessing", eventID, domain.StatusProcessing)
}

func (r *outboxRepo) MarkCompleted(ctx context.Context, eventID int64) error {
	return r.setStatus(ctx, "OutboxRepository.MarkCompleted", eventID, domain.StatusCompleted)
}

func (r *outboxRepo) setStatus(ctx context.Context, spanName string, eventID int64, status domain.Status) error {
	ctx, span := r.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	query := `
		UPDATE outbox_events
		SET status = $1
		WHERE id = $2
	`

	_, err := r.pool.Exec(ctx, query, string(status), eventID)
	if err != nil {
		span.RecordError(err)
	}

	return err
}

func (r *outboxRepo) MarkFailed(ctx context.Context, eventID int64, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.MarkFailed")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("outbox.error_message", errMsg),
	)

	query := `
		UPDATE outbox_events
		SET status = 'failed', last_error = $1
		WHERE id = $2
	`

	_, err := r.pool.Exec(ctx, query, errMsg, eventID)
	if err != nil {
		span.RecordError(err)
	}

	return err
}

// IncrementRetry puts a failed delivery back on the queue, or marks it
// terminally failed once the retry budget is spent.
func (r *outboxRepo) IncrementRetry(ctx context.Context, eventID int64, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.IncrementRetry")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("outbox.error_message", errMsg),
	)

	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			last_error = $1,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END
		WHERE id = $2
	`

	_, err := r.pool.Exec(ctx, query, errMsg, eventID)
	if err != nil {
		span.RecordError(err)
	}

	return err
}
