package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TimeVoteRepository interface {
	// ReplaceVote removes any prior vote by the voter for the event and
	// records the new one, atomically. The unique index on
	// (event_id, voter_id) backstops concurrent replaces.
	ReplaceVote(ctx context.Context, eventID, optionID, voterID int64) error
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}

type voteRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewTimeVoteRepository(pool *pgxpool.Pool, logger *zap.Logger) TimeVoteRepository {
	return &voteRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("time_vote_repository"),
	}
}

func (r *voteRepo) ReplaceVote(ctx context.Context, eventID, optionID, voterID int64) error {
	ctx, span := r.tracer.Start(ctx, "TimeVoteRepository.ReplaceVote")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("option_id", optionID),
		attribute.Int64("voter_id", voterID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				r.logger,
				"Error rolling back vote transaction",
				zap.Error(err),
			)
		}
	}()

	deleteQuery := `
		DELETE FROM time_votes
		WHERE event_id = $1 AND voter_id = $2
	`

	if _, err := tx.Exec(ctx, deleteQuery, eventID, voterID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to delete prior votes",
			zap.Int64("event_id", eventID),
			zap.Int64("voter_id", voterID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to delete prior votes: %w", err)
	}

	insertQuery := `
		INSERT INTO time_votes (event_id, option_id, voter_id)
		VALUES ($1, $2, $3)
	`

	if _, err := tx.Exec(ctx, insertQuery, eventID, optionID, voterID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert vote",
			zap.Int64("event_id", eventID),
			zap.Int64("option_id", optionID),
			zap.Int64("voter_id", voterID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to commit vote transaction: %w", err)
	}

	return nil
}

func (r *voteRepo) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	ctx, span := r.tracer.Start(ctx, "TimeVoteRepository.CountByEvent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	query := `
		SELECT COUNT(*) FROM time_votes WHERE event_id = $1
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		span.RecordError(err)

		return 0, fmt.Errorf("failed to count votes: %w", err)
	}

	return count, nil
}
