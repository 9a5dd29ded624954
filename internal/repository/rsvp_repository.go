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

type RsvpRepository interface {
	// Upsert creates or replaces the member's RSVP for the event.
	Upsert(ctx context.Context, rsvp *domain.Rsvp) error
	// CreateIfAbsent inserts only when no RSVP row exists yet and
	// reports whether a row was written. Used by conflict resolution so
	// manual RSVPs are never overwritten and retries stay idempotent.
	CreateIfAbsent(ctx context.Context, rsvp *domain.Rsvp) (bool, error)
	FindByEventAndUser(ctx context.Context, eventID, userID int64) (*domain.Rsvp, error)
}

type rsvpRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewRsvpRepository(pool *pgxpool.Pool, logger *zap.Logger) RsvpRepository {
	return &rsvpRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("rsvp_repository"),
	}
}

func (r *rsvpRepo) Upsert(ctx context.Context, rsvp *domain.Rsvp) error {
	ctx, span := r.tracer.Start(ctx, "RsvpRepository.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", rsvp.EventID),
		attribute.Int64("user_id", rsvp.UserID),
		attribute.String("status", string(rsvp.Status)),
	)

	query := `
		INSERT INTO rsvps (event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		rsvp.EventID,
		rsvp.UserID,
		string(rsvp.Status),
	).Scan(&rsvp.ID, &rsvp.CreatedAt, &rsvp.UpdatedAt); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to upsert rsvp",
			zap.Int64("event_id", rsvp.EventID),
			zap.Int64("user_id", rsvp.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to upsert rsvp: %w", err)
	}

	return nil
}

func (r *rsvpRepo) CreateIfAbsent(ctx context.Context, rsvp *domain.Rsvp) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "RsvpRepository.CreateIfAbsent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", rsvp.EventID),
		attribute.Int64("user_id", rsvp.UserID),
	)

	query := `
		INSERT INTO rsvps (event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (event_id, user_id) DO NOTHING
	`

	commandTag, err := r.pool.Exec(
		ctx,
		query,
		rsvp.EventID,
		rsvp.UserID,
		string(rsvp.Status),
	)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert rsvp",
			zap.Int64("event_id", rsvp.EventID),
			zap.Int64("user_id", rsvp.UserID),
			zap.Error(err),
		)

		return false, fmt.Errorf("failed to insert rsvp: %w", err)
	}

	return commandTag.RowsAffected() > 0, nil
}

func (r *rsvpRepo) FindByEventAndUser(ctx context.Context, eventID, userID int64) (*domain.Rsvp, error) {
	ctx, span := r.tracer.Start(ctx, "RsvpRepository.FindByEventAndUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM rsvps
		WHERE event_id = $1 AND user_id = $2
	`

	var rsvp domain.Rsvp
	err := r.pool.QueryRow(ctx, query, eventID, userID).Scan(
		&rsvp.ID,
		&rsvp.EventID,
		&rsvp.UserID,
		&rsvp.Status,
		&rsvp.CreatedAt,
		&rsvp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRsvpNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query rsvp: %w", err)
	}

	return &rsvp, nil
}
