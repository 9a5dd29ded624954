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

type CircleRepository interface {
	FindByID(ctx context.Context, circleID int64) (*domain.Circle, error)
	ListMembers(ctx context.Context, circleID int64) ([]*domain.CircleMember, error)
	FindMember(ctx context.Context, circleID, userID int64) (*domain.CircleMember, error)
}

type circleRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCircleRepository(pool *pgxpool.Pool, logger *zap.Logger) CircleRepository {
	return &circleRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("circle_repository"),
	}
}

func (r *circleRepo) FindByID(ctx context.Context, circleID int64) (*domain.Circle, error) {
	ctx, span := r.tracer.Start(ctx, "CircleRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("circle_id", circleID),
	)

	query := `
		SELECT id, name, owner_id, created_at
		FROM circles
		WHERE id = $1
	`

	var circle domain.Circle
	err := r.pool.QueryRow(ctx, query, circleID).Scan(
		&circle.ID,
		&circle.Name,
		&circle.OwnerID,
		&circle.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCircleNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query circle: %w", err)
	}

	return &circle, nil
}

func (r *circleRepo) ListMembers(ctx context.Context, circleID int64) ([]*domain.CircleMember, error) {
	ctx, span := r.tracer.Start(ctx, "CircleRepository.ListMembers")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("circle_id", circleID),
	)

	query := `
		SELECT id, circle_id, user_id, role, joined_at
		FROM circle_members
		WHERE circle_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.pool.Query(ctx, query, circleID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query circle members",
			zap.Int64("circle_id", circleID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query circle members: %w", err)
	}
	defer rows.Close()

	var members []*domain.CircleMember
	for rows.Next() {
		var member domain.CircleMember
		if err := rows.Scan(
			&member.ID,
			&member.CircleID,
			&member.UserID,
			&member.Role,
			&member.JoinedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning circle member: %w", err)
		}
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return members, nil
}

func (r *circleRepo) FindMember(ctx context.Context, circleID, userID int64) (*domain.CircleMember, error) {
	ctx, span := r.tracer.Start(ctx, "CircleRepository.FindMember")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("circle_id", circleID),
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, circle_id, user_id, role, joined_at
		FROM circle_members
		WHERE circle_id = $1 AND user_id = $2
	`

	var member domain.CircleMember
	err := r.pool.QueryRow(ctx, query, circleID, userID).Scan(
		&member.ID,
		&member.CircleID,
		&member.UserID,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query circle member: %w", err)
	}

	return &member, nil
}
