package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	outboxDomain "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ConflictService interface {
	// CheckMember returns the member's first colliding commitment
	// against the event's committed range, or nil when the calendar is
	// clear. Personal events are checked before other-circle
	// commitments.
	CheckMember(ctx context.Context, event *domain.Event, userID int64) (*domain.Conflict, error)
	// ResolveMember runs CheckMember and, on a collision, auto-declines
	// on the member's behalf and notifies them. Members with an
	// existing RSVP are left untouched.
	ResolveMember(ctx context.Context, event *domain.Event, userID int64) error
	// HandleProcessConflicts is the outbox handler for
	// event.process_conflicts jobs.
	HandleProcessConflicts(ctx context.Context, payload json.RawMessage) error
}

type conflictService struct {
	logger           *zap.Logger
	eventRepo        repository.EventRepository
	circleRepo       repository.CircleRepository
	rsvpRepo         repository.RsvpRepository
	personalRepo     repository.PersonalEventRepository
	notificationRepo repository.NotificationRepository
	outboxRepo       worker.OutboxRepository
	tracer           trace.Tracer
}

func NewConflictService(
	logger *zap.Logger,
	eventRepo repository.EventRepository,
	circleRepo repository.CircleRepository,
	rsvpRepo repository.RsvpRepository,
	personalRepo repository.PersonalEventRepository,
	notificationRepo repository.NotificationRepository,
	outboxRepo worker.OutboxRepository,
) ConflictService {
	return &conflictService{
		logger:           logger,
		eventRepo:        eventRepo,
		circleRepo:       circleRepo,
		rsvpRepo:         rsvpRepo,
		personalRepo:     personalRepo,
		notificationRepo: notificationRepo,
		outboxRepo:       outboxRepo,
		tracer:           otel.Tracer("conflict_service"),
	}
}

func (s *conflictService) CheckMember(ctx context.Context, event *domain.Event, userID int64) (*domain.Conflict, error) {
	ctx, span := s.tracer.Start(ctx, "ConflictService.CheckMember")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", event.ID),
		attribute.Int64("user_id", userID),
	)

	if !event.Committed() {
		return nil, fmt.Errorf("event %d has no committed time range", event.ID)
	}

	personalEvents, err := s.personalRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load personal events: %w", err)
	}

	for _, pe := range personalEvents {
		if domain.Overlaps(*event.StartsAt, *event.EndsAt, pe.StartTime, pe.EndTime) {
			return &domain.Conflict{
				Source:          domain.ConflictSourcePersonal,
				PersonalEventID: pe.ID,
				Title:           pe.Title,
			}, nil
		}
	}

	commitments, err := s.eventRepo.ListGoingCommitments(ctx, userID, event.ID, event.CircleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load circle commitments: %w", err)
	}

	for _, other := range commitments {
		if domain.Overlaps(*event.StartsAt, *event.EndsAt, *other.StartsAt, *other.EndsAt) {
			return &domain.Conflict{
				Source:  domain.ConflictSourceCircle,
				EventID: other.ID,
				Title:   other.Title,
			}, nil
		}
	}

	return nil, nil
}

func (s *conflictService) ResolveMember(ctx context.Context, event *domain.Event, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "ConflictService.ResolveMember")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", event.ID),
		attribute.Int64("user_id", userID),
	)

	conflict, err := s.CheckMember(ctx, event, userID)
	if err != nil {
		return err
	}

	if conflict == nil {
		return nil
	}

	// Manual RSVPs always win over auto-resolution.
	if _, err := s.rsvpRepo.FindByEventAndUser(ctx, event.ID, userID); err == nil {
		mylogger.Debug(
			ctx,
			s.logger,
			"Member already has an RSVP, skipping auto-decline",
			zap.Int64("event_id", event.ID),
			zap.Int64("user_id", userID),
		)

		return nil
	} else if !errors.Is(err, repository.ErrRsvpNotFound) {
		return fmt.Errorf("failed to check existing rsvp: %w", err)
	}

	inserted, err := s.rsvpRepo.CreateIfAbsent(ctx, &domain.Rsvp{
		EventID: event.ID,
		UserID:  userID,
		Status:  domain.RsvpStatusNotGoing,
	})
	if err != nil {
		return fmt.Errorf("failed to auto-decline: %w", err)
	}

	if !inserted {
		// Lost the race to a manual RSVP; leave it alone.
		return nil
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Auto-declined member with calendar conflict",
		zap.Int64("event_id", event.ID),
		zap.Int64("user_id", userID),
		zap.String("conflict_source", string(conflict.Source)),
	)

	return s.notifyConflict(ctx, event, userID, conflict)
}

// notifyConflict emits a conflict notification once per event+member.
// Notification failures are secondary: they are logged and swallowed so
// they never fail the resolution that triggered them.
func (s *conflictService) notifyConflict(ctx context.Context, event *domain.Event, userID int64, conflict *domain.Conflict) error {
	exists, err := s.notificationRepo.ExistsForEvent(ctx, event.ID, userID, domain.NotificationTypeEventConflict)
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to check for prior conflict notification",
			zap.Int64("event_id", event.ID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return nil
	}

	if exists {
		return nil
	}

	data, _ := json.Marshal(map[string]any{
		"event_id":        event.ID,
		"conflict_source": conflict.Source,
	})

	eventID := event.ID
	notification := &domain.Notification{
		UserID:  userID,
		EventID: &eventID,
		Type:    domain.NotificationTypeEventConflict,
		Title:   "Schedule conflict",
		Body:    fmt.Sprintf("%q overlaps with %q, so we marked you as not going.", event.Title, conflict.Title),
		Data:    data,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to create conflict notification",
			zap.Int64("event_id", event.ID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return nil
	}

	if err := enqueuePush(ctx, s.outboxRepo, notification, outboxDomain.EventTypePushNotification, nil); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to enqueue conflict push",
			zap.Int64("notification_id", notification.ID),
			zap.Error(err),
		)
	}

	return nil
}

func (s *conflictService) HandleProcessConflicts(ctx context.Context, payload json.RawMessage) error {
	ctx, span := s.tracer.Start(ctx, "ConflictService.HandleProcessConflicts")
	defer span.End()

	var job outboxDomain.ProcessConflictsPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("invalid process_conflicts payload: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("event_id", job.EventID),
		attribute.Int64("circle_id", job.CircleID),
	)

	event, err := s.eventRepo.FindByID(ctx, job.EventID)
	if err != nil {
		return fmt.Errorf("failed to load event %d: %w", job.EventID, err)
	}

	if !event.Committed() {
		mylogger.Warn(
			ctx,
			s.logger,
			"Conflict job for event without committed time, skipping",
			zap.Int64("event_id", event.ID),
		)

		return nil
	}

	members, err := s.circleRepo.ListMembers(ctx, job.CircleID)
	if err != nil {
		return fmt.Errorf("failed to list circle members: %w", err)
	}

	var failed int
	for _, member := range members {
		if err := s.ResolveMember(ctx, event, member.UserID); err != nil {
			failed++

			mylogger.Error(
				ctx,
				s.logger,
				"Failed to resolve conflicts for member",
				zap.Int64("event_id", event.ID),
				zap.Int64("user_id", member.UserID),
				zap.Error(err),
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("conflict resolution failed for %d of %d members", failed, len(members))
	}

	return nil
}
