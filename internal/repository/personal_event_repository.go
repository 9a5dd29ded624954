package repository

import (
	"context"
	"fmt"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type PersonalEventRepository interface {
	Create(ctx context.Context, event *domain.PersonalEvent) error
	// ListActive returns the user's non-cancelled personal events in
	// start-time order.
	ListActive(ctx context.Context, userID int64) ([]*domain.PersonalEvent, error)
	Cancel(ctx context.Context, eventID, userID int64) error
}

type personalEventRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewPersonalEventRepository(pool *pgxpool.Pool, logger *zap.Logger) PersonalEventRepository {
	return &personalEventRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("personal_event_repository"),
	}
}

func (r *personalEventRepo) Create(ctx context.Context, event *domain.PersonalEvent) error {
	ctx, span := r.tracer.Start(ctx, "PersonalEventRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", event.UserID),
	)

	query := `
		INSERT INTO personal_events (user_id, title, start_time, end_time, cancelled, created_at)
		VALUES ($1, $2, $3, $4, false, NOW())
		RETURNING id, created_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		event.UserID,
		event.Title,
		event.StartTime,
		event.EndTime,
	).Scan(&event.ID, &event.CreatedAt); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert personal event",
			zap.Int64("user_id", event.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert personal event: %w", err)
	}

	return nil
}

func (r *personalEventRepo) ListActive(ctx context.Context, userID int64) ([]*domain.PersonalEvent, error) {
	ctx, span := r.tracer.Start(ctx, "PersonalEventRepository.ListActive")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, user_id, title, start_time, end_time, cancelled, created_at
		FROM personal_events
		WHERE user_id = $1 AND cancelled = false
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query personal events: %w", err)
	}
	defer rows.Close()

	var events []*domain.PersonalEvent
	for rows.Next() {
		var event domain.PersonalEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Title,
			&event.StartTime,
			&event.EndTime,
			&event.Cancelled,
			&event.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning personal event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}

func (r *personalEventRepo) Cancel(ctx context.Context, eventID, userID int64) error {
	ctx, span := r.tracer.Start(ctx, "PersonalEventRepository.Cancel")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("personal_event_id", eventID),
		attribute.Int64("user_id", userID),
	)

	query := `
		UPDATE personal_events
		SET cancelled = true
		WHERE id = $1 AND user_id = $2
	`

	commandTag, err := r.pool.Exec(ctx, query, eventID, userID)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to cancel personal event: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}
