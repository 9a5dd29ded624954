package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

type CreateEventInput struct {
	CircleID        int64
	CreatorID       int64
	Title           string
	Description     string
	ReminderMinutes *int
	// Fixed-time events set both of these and skip voting entirely.
	StartsAt *time.Time
	EndsAt   *time.Time
	// Voting events propose candidate slots instead.
	Options []TimeOptionInput
}

type UpdateEventInput struct {
	Title           *string
	Description     *string
	StartsAt        *time.Time
	EndsAt          *time.Time
	ReminderMinutes *int
}

type EventService interface {
	// Create makes a draft event with time options, or a finalized one
	// when a fixed time is given. The fixed-time path runs the conflict
	// scan synchronously before returning.
	Create(ctx context.Context, input CreateEventInput) (*domain.Event, error)
	Lock(ctx context.Context, eventID, actorID, optionID int64) (*domain.Event, error)
	Finalize(ctx context.Context, eventID, actorID int64) (*domain.Event, error)
	Update(ctx context.Context, eventID, actorID int64, changes UpdateEventInput) (*domain.Event, error)
	SetRsvp(ctx context.Context, eventID, userID int64, status domain.RsvpStatus) (*domain.Rsvp, error)
}

type eventService struct {
	logger           *zap.Logger
	eventRepo        repository.EventRepository
	optionRepo       repository.TimeOptionRepository
	circleRepo       repository.CircleRepository
	rsvpRepo         repository.RsvpRepository
	notificationRepo repository.NotificationRepository
	outboxRepo       worker.OutboxRepository
	voting           VotingService
	conflicts        ConflictService
	now              func() time.Time
	tracer           trace.Tracer
}

func NewEventService(
	logger *zap.Logger,
	eventRepo repository.EventRepository,
	optionRepo repository.TimeOptionRepository,
	circleRepo repository.CircleRepository,
	rsvpRepo repository.RsvpRepository,
	notificationRepo repository.NotificationRepository,
	outboxRepo worker.OutboxRepository,
	voting VotingService,
	conflicts ConflictService,
) EventService {
	return &eventService{
		logger:           logger,
		eventRepo:        eventRepo,
		optionRepo:       optionRepo,
		circleRepo:       circleRepo,
		rsvpRepo:         rsvpRepo,
		notificationRepo: notificationRepo,
		outboxRepo:       outboxRepo,
		voting:           voting,
		conflicts:        conflicts,
		now:              time.Now,
		tracer:           otel.Tracer("event_service"),
	}
}

func (s *eventService) Create(ctx context.Context, input CreateEventInput) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("circle_id", input.CircleID),
		attribute.Int64("creator_id", input.CreatorID),
	)

	if _, err := s.circleRepo.FindMember(ctx, input.CircleID, input.CreatorID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, ErrNotMember
		}

		return nil, fmt.Errorf("failed to check circle membership: %w", err)
	}

	if (input.StartsAt == nil) != (input.EndsAt == nil) {
		return nil, ErrInvalidTimeRange
	}

	if input.StartsAt != nil {
		return s.createFixedTime(ctx, input)
	}

	return s.createDraft(ctx, input)
}

func (s *eventService) createDraft(ctx context.Context, input CreateEventInput) (*domain.Event, error) {
	for _, option := range input.Options {
		if !option.EndTime.After(option.StartTime) {
			return nil, ErrInvalidTimeRange
		}
	}

	event := &domain.Event{
		CircleID:        input.CircleID,
		CreatorID:       input.CreatorID,
		Title:           input.Title,
		Description:     input.Description,
		Status:          domain.EventStatusDraft,
		ReminderMinutes: input.ReminderMinutes,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	options := make([]*domain.TimeOption, 0, len(input.Options))
	for _, option := range input.Options {
		options = append(options, &domain.TimeOption{
			EventID:   event.ID,
			StartTime: option.StartTime,
			EndTime:   option.EndTime,
		})
	}

	if len(options) > 0 {
		if err := s.optionRepo.CreateBatch(ctx, options); err != nil {
			return nil, fmt.Errorf("failed to create time options: %w", err)
		}
	}

	return event, nil
}

// createFixedTime skips the draft stage: the event is born finalized
// and the conflict scan runs synchronously, before the caller gets the
// response. Both paths go through the same member resolution, so a
// fixed-time event and a finalized vote produce identical outcomes.
func (s *eventService) createFixedTime(ctx context.Context, input CreateEventInput) (*domain.Event, error) {
	if !input.EndsAt.After(*input.StartsAt) {
		return nil, ErrInvalidTimeRange
	}

	event := &domain.Event{
		CircleID:        input.CircleID,
		CreatorID:       input.CreatorID,
		Title:           input.Title,
		Description:     input.Description,
		Status:          domain.EventStatusFinalized,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		ReminderMinutes: input.ReminderMinutes,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	members, err := s.circleRepo.ListMembers(ctx, event.CircleID)
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to list members for synchronous conflict scan",
			zap.Int64("event_id", event.ID),
			zap.Error(err),
		)

		return event, nil
	}

	for _, member := range members {
		if err := s.conflicts.ResolveMember(ctx, event, member.UserID); err != nil {
			mylogger.Warn(
				ctx,
				s.logger,
				"Synchronous conflict resolution failed for member",
				zap.Int64("event_id", event.ID),
				zap.Int64("user_id", member.UserID),
				zap.Error(err),
			)
		}
	}

	return event, nil
}

func (s *eventService) Lock(ctx context.Context, eventID, actorID, optionID int64) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.Lock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("actor_id", actorID),
		attribute.Int64("option_id", optionID),
	)

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if err := s.requireManager(ctx, event, actorID); err != nil {
		return nil, err
	}

	if event.Status == domain.EventStatusFinalized {
		return nil, ErrAlreadyFinalized
	}

	if !domain.CanTransition(event.Status, domain.EventStatusLocked) {
		return nil, ErrInvalidTransition
	}

	option, err := s.optionRepo.FindByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, repository.ErrOptionNotFound) {
			return nil, ErrInvalidOption
		}

		return nil, fmt.Errorf("failed to load option: %w", err)
	}

	if option.EventID != eventID {
		return nil, ErrInvalidOption
	}

	if err := s.eventRepo.CommitTime(ctx, eventID, domain.EventStatusLocked, option.StartTime, option.EndTime); err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	event.Status = domain.EventStatusLocked
	event.StartsAt = &option.StartTime
	event.EndsAt = &option.EndTime

	mylogger.Info(
		ctx,
		s.logger,
		"Event locked",
		zap.Int64("event_id", eventID),
		zap.Int64("option_id", optionID),
	)

	return event, nil
}

func (s *eventService) Finalize(ctx context.Context, eventID, actorID int64) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.Finalize")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("actor_id", actorID),
	)

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if err := s.requireManager(ctx, event, actorID); err != nil {
		return nil, err
	}

	if event.Status == domain.EventStatusFinalized {
		return nil, ErrAlreadyFinalized
	}

	winner, err := s.voting.WinningOption(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute winning option: %w", err)
	}

	if winner == nil {
		return nil, ErrNoTimesAvailable
	}

	if err := s.eventRepo.CommitTime(ctx, eventID, domain.EventStatusFinalized, winner.StartTime, winner.EndTime); err != nil {
		return nil, fmt.Errorf("failed to finalize event: %w", err)
	}

	event.Status = domain.EventStatusFinalized
	event.StartsAt = &winner.StartTime
	event.EndsAt = &winner.EndTime

	mylogger.Info(
		ctx,
		s.logger,
		"Event finalized",
		zap.Int64("event_id", eventID),
		zap.Time("starts_at", winner.StartTime),
	)

	s.enqueueFinalizeEffects(ctx, event)

	return event, nil
}

// enqueueFinalizeEffects defers the conflict scan and member
// notifications through the outbox. These are secondary effects: every
// failure is logged and swallowed, never failing the finalize itself.
func (s *eventService) enqueueFinalizeEffects(ctx context.Context, event *domain.Event) {
	if err := enqueueProcessConflicts(ctx, s.outboxRepo, event); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to enqueue conflict scan",
			zap.Int64("event_id", event.ID),
			zap.Error(err),
		)
	}

	members, err := s.circleRepo.ListMembers(ctx, event.CircleID)
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to list members for finalize notifications",
			zap.Int64("event_id", event.ID),
			zap.Error(err),
		)

		return
	}

	var remindAt *time.Time
	if event.ReminderMinutes != nil {
		at := event.StartsAt.Add(-time.Duration(*event.ReminderMinutes) * time.Minute)
		if at.After(s.now()) {
			remindAt = &at
		}
	}

	for _, member := range members {
		s.notifyFinalized(ctx, event, member.UserID)

		if remindAt != nil {
			s.notifyReminder(ctx, event, member.UserID, remindAt)
		}
	}
}

func (s *eventService) notifyFinalized(ctx context.Context, event *domain.Event, userID int64) {
	eventID := event.ID
	data, _ := json.Marshal(map[string]any{"event_id": event.ID})

	notification := &domain.Notification{
		UserID:  userID,
		EventID: &eventID,
		Type:    domain.NotificationTypeEventFinalized,
		Title:   "Event time confirmed",
		Body:    fmt.Sprintf("%q is set for %s.", event.Title, event.StartsAt.Format(time.RFC1123)),
		Data:    data,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to create finalize notification",
			zap.Int64("event_id", event.ID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return
	}

	if err := enqueuePush(ctx, s.outboxRepo, notification, outboxDomain.EventTypePushNotification, nil); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to enqueue finalize push",
			zap.Int64("notification_id", notification.ID),
			zap.Error(err),
		)
	}
}

func (s *eventService) notifyReminder(ctx context.Context, event *domain.Event, userID int64, remindAt *time.Time) {
	eventID := event.ID
	data, _ := json.Marshal(map[string]any{"event_id": event.ID})

	notification := &domain.Notification{
		UserID:  userID,
		EventID: &eventID,
		Type:    domain.NotificationTypeEventReminder,
		Title:   "Upcoming event",
		Body:    fmt.Sprintf("%q starts at %s.", event.Title, event.StartsAt.Format(time.RFC1123)),
		Data:    data,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to create reminder notification",
			zap.Int64("event_id", event.ID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return
	}

	if err := enqueuePush(ctx, s.outboxRepo, notification, outboxDomain.EventTypeReminder, remindAt); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to enqueue reminder push",
			zap.Int64("notification_id", notification.ID),
			zap.Error(err),
		)
	}
}

func (s *eventService) Update(ctx context.Context, eventID, actorID int64, changes UpdateEventInput) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("actor_id", actorID),
	)

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if err := s.requireManager(ctx, event, actorID); err != nil {
		return nil, err
	}

	timeChanged := changes.StartsAt != nil || changes.EndsAt != nil
	if timeChanged && event.Status == domain.EventStatusFinalized {
		return nil, ErrCannotModifyFinalized
	}

	if changes.Title != nil {
		event.Title = *changes.Title
	}
	if changes.Description != nil {
		event.Description = *changes.Description
	}
	if changes.ReminderMinutes != nil {
		event.ReminderMinutes = changes.ReminderMinutes
	}
	if changes.StartsAt != nil {
		event.StartsAt = changes.StartsAt
	}
	if changes.EndsAt != nil {
		event.EndsAt = changes.EndsAt
	}

	if event.Committed() && !event.EndsAt.After(*event.StartsAt) {
		return nil, ErrInvalidTimeRange
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return event, nil
}

func (s *eventService) SetRsvp(ctx context.Context, eventID, userID int64, status domain.RsvpStatus) (*domain.Rsvp, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.SetRsvp")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("user_id", userID),
		attribute.String("status", string(status)),
	)

	if !domain.ValidRsvpStatus(status) {
		return nil, ErrInvalidRsvpStatus
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if _, err := s.circleRepo.FindMember(ctx, event.CircleID, userID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, ErrNotMember
		}

		return nil, fmt.Errorf("failed to check circle membership: %w", err)
	}

	rsvp := &domain.Rsvp{
		EventID: eventID,
		UserID:  userID,
		Status:  status,
	}

	if err := s.rsvpRepo.Upsert(ctx, rsvp); err != nil {
		return nil, fmt.Errorf("failed to upsert rsvp: %w", err)
	}

	return rsvp, nil
}

func (s *eventService) requireManager(ctx context.Context, event *domain.Event, actorID int64) error {
	if actorID == event.CreatorID {
		return nil
	}

	member, err := s.circleRepo.FindMember(ctx, event.CircleID, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return ErrForbidden
		}

		return fmt.Errorf("failed to check circle membership: %w", err)
	}

	if !member.Role.CanManageEvents() {
		return ErrForbidden
	}

	return nil
}
