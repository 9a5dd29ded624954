package service

import (
	"context"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type PersonalEventService interface {
	Create(ctx context.Context, userID int64, title string, startTime, endTime time.Time) (*domain.PersonalEvent, error)
	List(ctx context.Context, userID int64) ([]*domain.PersonalEvent, error)
	Cancel(ctx context.Context, eventID, userID int64) error
}

type personalEventService struct {
	logger       *zap.Logger
	personalRepo repository.PersonalEventRepository
	tracer       trace.Tracer
}

func NewPersonalEventService(logger *zap.Logger, personalRepo repository.PersonalEventRepository) PersonalEventService {
	return &personalEventService{
		logger:       logger,
		personalRepo: personalRepo,
		tracer:       otel.Tracer("personal_event_service"),
	}
}

func (s *personalEventService) Create(ctx context.Context, userID int64, title string, startTime, endTime time.Time) (*domain.PersonalEvent, error) {
	ctx, span := s.tracer.Start(ctx, "PersonalEventService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	if !endTime.After(startTime) {
		return nil, ErrInvalidTimeRange
	}

	event := &domain.PersonalEvent{
		UserID:    userID,
		Title:     title,
		StartTime: startTime,
		EndTime:   endTime,
	}

	if err := s.personalRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (s *personalEventService) List(ctx context.Context, userID int64) ([]*domain.PersonalEvent, error) {
	ctx, span := s.tracer.Start(ctx, "PersonalEventService.List")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	return s.personalRepo.ListActive(ctx, userID)
}

func (s *personalEventService) Cancel(ctx context.Context, eventID, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "PersonalEventService.Cancel")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("personal_event_id", eventID),
		attribute.Int64("user_id", userID),
	)

	return s.personalRepo.Cancel(ctx, eventID, userID)
}
