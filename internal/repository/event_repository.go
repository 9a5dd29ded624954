package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	FindByID(ctx context.Context, eventID int64) (*domain.Event, error)
	ListByCircle(ctx context.Context, circleID int64) ([]*domain.Event, error)
	CommitTime(ctx context.Context, eventID int64, status domain.EventStatus, startsAt, endsAt time.Time) error
	Update(ctx context.Context, event *domain.Event) error
	ListGoingCommitments(ctx context.Context, userID, excludeEventID, excludeCircleID int64) ([]*domain.Event, error)
}

type eventRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewEventRepository(pool *pgxpool.Pool, logger *zap.Logger) EventRepository {
	return &eventRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("event_repository"),
	}
}

const eventColumns = `id, circle_id, creator_id, title, description, status, starts_at, ends_at, reminder_minutes, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.CircleID,
		&e.CreatorID,
		&e.Title,
		&e.Description,
		&e.Status,
		&e.StartsAt,
		&e.EndsAt,
		&e.ReminderMinutes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := r.tracer.Start(ctx, "EventRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("circle_id", event.CircleID),
		attribute.Int64("creator_id", event.CreatorID),
		attribute.String("status", string(event.Status)),
	)

	query := `
		INSERT INTO events (circle_id, creator_id, title, description, status, starts_at, ends_at, reminder_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		event.CircleID,
		event.CreatorID,
		event.Title,
		event.Description,
		string(event.Status),
		event.StartsAt,
		event.EndsAt,
		event.ReminderMinutes,
	).Scan(
		&event.ID,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert event",
			zap.Int64("circle_id", event.CircleID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

func (r *eventRepo) FindByID(ctx context.Context, eventID int64) (*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query event",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	return event, nil
}

func (r *eventRepo) ListByCircle(ctx context.Context, circleID int64) ([]*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.ListByCircle")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("circle_id", circleID),
	)

	query := `SELECT ` + eventColumns + ` FROM events WHERE circle_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, circleID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query circle events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}

func (r *eventRepo) CommitTime(ctx context.Context, eventID int64, status domain.EventStatus, startsAt, endsAt time.Time) error {
	ctx, span := r.tracer.Start(ctx, "EventRepository.CommitTime")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE events
		SET status = $1, starts_at = $2, ends_at = $3, updated_at = NOW()
		WHERE id = $4
	`

	commandTag, err := r.pool.Exec(ctx, query, string(status), startsAt, endsAt, eventID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to commit event time",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to commit event time: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

func (r *eventRepo) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := r.tracer.Start(ctx, "EventRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", event.ID),
	)

	query := `
		UPDATE events
		SET title = $1, description = $2, status = $3, starts_at = $4, ends_at = $5, reminder_minutes = $6, updated_at = NOW()
		WHERE id = $7
	`

	commandTag, err := r.pool.Exec(
		ctx,
		query,
		event.Title,
		event.Description,
		string(event.Status),
		event.StartsAt,
		event.EndsAt,
		event.ReminderMinutes,
		event.ID,
	)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update event",
			zap.Int64("event_id", event.ID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update event: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

// ListGoingCommitments returns committed events in the user's other
// circles that the user has RSVP'd going to. Ordered by circle then
// start time so conflict scans enumerate deterministically.
func (r *eventRepo) ListGoingCommitments(ctx context.Context, userID, excludeEventID, excludeCircleID int64) ([]*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.ListGoingCommitments")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("exclude_event_id", excludeEventID),
	)

	query := `
		SELECT e.id, e.circle_id, e.creator_id, e.title, e.description, e.status, e.starts_at, e.ends_at, e.reminder_minutes, e.created_at, e.updated_at
		FROM events e
		JOIN rsvps r ON r.event_id = e.id AND r.user_id = $1 AND r.status = 'going'
		WHERE e.id <> $2
		  AND e.circle_id <> $3
		  AND e.starts_at IS NOT NULL
		  AND e.ends_at IS NOT NULL
		ORDER BY e.circle_id ASC, e.starts_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, excludeEventID, excludeCircleID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query going commitments",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query going commitments: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}
