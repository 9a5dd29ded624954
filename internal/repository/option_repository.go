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

type TimeOptionRepository interface {
	CreateBatch(ctx context.Context, options []*domain.TimeOption) error
	FindByID(ctx context.Context, optionID int64) (*domain.TimeOption, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.TimeOption, error)
	ListTallies(ctx context.Context, eventID int64) ([]domain.OptionTally, error)
}

type optionRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewTimeOptionRepository(pool *pgxpool.Pool, logger *zap.Logger) TimeOptionRepository {
	return &optionRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("time_option_repository"),
	}
}

func (r *optionRepo) CreateBatch(ctx context.Context, options []*domain.TimeOption) error {
	ctx, span := r.tracer.Start(ctx, "TimeOptionRepository.CreateBatch")
	defer span.End()

	span.SetAttributes(
		attribute.Int("options_count", len(options)),
	)

	query := `
		INSERT INTO event_time_options (event_id, start_time, end_time)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	for _, option := range options {
		if err := r.pool.QueryRow(
			ctx,
			query,
			option.EventID,
			option.StartTime,
			option.EndTime,
		).Scan(&option.ID); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert time option",
				zap.Int64("event_id", option.EventID),
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert time option: %w", err)
		}
	}

	return nil
}

func (r *optionRepo) FindByID(ctx context.Context, optionID int64) (*domain.TimeOption, error) {
	ctx, span := r.tracer.Start(ctx, "TimeOptionRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("option_id", optionID),
	)

	query := `
		SELECT id, event_id, start_time, end_time
		FROM event_time_options
		WHERE id = $1
	`

	var option domain.TimeOption
	err := r.pool.QueryRow(ctx, query, optionID).Scan(
		&option.ID,
		&option.EventID,
		&option.StartTime,
		&option.EndTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOptionNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query time option: %w", err)
	}

	return &option, nil
}

func (r *optionRepo) ListByEvent(ctx context.Context, eventID int64) ([]*domain.TimeOption, error) {
	ctx, span := r.tracer.Start(ctx, "TimeOptionRepository.ListByEvent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	query := `
		SELECT id, event_id, start_time, end_time
		FROM event_time_options
		WHERE event_id = $1
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query time options: %w", err)
	}
	defer rows.Close()

	var options []*domain.TimeOption
	for rows.Next() {
		var option domain.TimeOption
		if err := rows.Scan(
			&option.ID,
			&option.EventID,
			&option.StartTime,
			&option.EndTime,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning time option: %w", err)
		}
		options = append(options, &option)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return options, nil
}

func (r *optionRepo) ListTallies(ctx context.Context, eventID int64) ([]domain.OptionTally, error) {
	ctx, span := r.tracer.Start(ctx, "TimeOptionRepository.ListTallies")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	query := `
		SELECT o.id, o.event_id, o.start_time, o.end_time, COUNT(v.id)
		FROM event_time_options o
		LEFT JOIN time_votes v ON v.option_id = o.id
		WHERE o.event_id = $1
		GROUP BY o.id, o.event_id, o.start_time, o.end_time
		ORDER BY o.start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query option tallies",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query option tallies: %w", err)
	}
	defer rows.Close()

	var tallies []domain.OptionTally
	for rows.Next() {
		var tally domain.OptionTally
		if err := rows.Scan(
			&tally.Option.ID,
			&tally.Option.EventID,
			&tally.Option.StartTime,
			&tally.Option.EndTime,
			&tally.VoteCount,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning option tally: %w", err)
		}
		tallies = append(tallies, tally)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tallies, nil
}
