package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	FindByID(ctx context.Context, notificationID int64) (*domain.Notification, error)
	// ExistsForEvent reports whether the user already has a notification
	// of the given type for the event. Conflict resolution uses this to
	// avoid re-notifying on retried runs.
	ExistsForEvent(ctx context.Context, eventID, userID int64, notificationType domain.NotificationType) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Notification, error)
}

type notificationRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewNotificationRepository(pool *pgxpool.Pool, logger *zap.Logger) NotificationRepository {
	return &notificationRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("notification_repository"),
	}
}

func (r *notificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	ctx, span := r.tracer.Start(ctx, "NotificationRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", notification.UserID),
		attribute.String("type", string(notification.Type)),
	)

	query := `
		INSERT INTO notifications (user_id, event_id, type, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		notification.UserID,
		notification.EventID,
		string(notification.Type),
		notification.Title,
		notification.Body,
		notification.Data,
	).Scan(&notification.ID, &notification.CreatedAt); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert notification",
			zap.Int64("user_id", notification.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

func (r *notificationRepo) FindByID(ctx context.Context, notificationID int64) (*domain.Notification, error) {
	ctx, span := r.tracer.Start(ctx, "NotificationRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("notification_id", notificationID),
	)

	query := `
		SELECT id, user_id, event_id, type, title, body, data, read_at, created_at
		FROM notifications
		WHERE id = $1
	`

	var n domain.Notification
	err := r.pool.QueryRow(ctx, query, notificationID).Scan(
		&n.ID,
		&n.UserID,
		&n.EventID,
		&n.Type,
		&n.Title,
		&n.Body,
		&n.Data,
		&n.ReadAt,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query notification: %w", err)
	}

	return &n, nil
}

func (r *notificationRepo) ExistsForEvent(ctx context.Context, eventID, userID int64, notificationType domain.NotificationType) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "NotificationRepository.ExistsForEvent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("user_id", userID),
		attribute.String("type", string(notificationType)),
	)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE event_id = $1 AND user_id = $2 AND type = $3
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, eventID, userID, string(notificationType)).Scan(&exists); err != nil {
		span.RecordError(err)

		return false, fmt.Errorf("failed to query notification existence: %w", err)
	}

	return exists, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	ctx, span := r.tracer.Start(ctx, "NotificationRepository.ListByUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, user_id, event_id, type, title, body, data, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.EventID,
			&n.Type,
			&n.Title,
			&n.Body,
			&n.Data,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return notifications, nil
}
