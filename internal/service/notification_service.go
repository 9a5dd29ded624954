package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/infrastructure/email"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/infrastructure/push"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	outboxDomain "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NotificationService owns the delivery side of the outbox: it turns
// queued notification and email jobs into pushes and SMTP sends.
type NotificationService interface {
	ListForUser(ctx context.Context, userID int64) ([]*domain.Notification, error)
	HandlePushNotification(ctx context.Context, payload json.RawMessage) error
	HandleReminder(ctx context.Context, payload json.RawMessage) error
	HandleInvitationEmail(ctx context.Context, payload json.RawMessage) error
	HandleMagicLinkEmail(ctx context.Context, payload json.RawMessage) error
}

type notificationService struct {
	logger           *zap.Logger
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	pushSender       push.Sender
	emailSender      email.Sender
	tracer           trace.Tracer
}

func NewNotificationService(
	logger *zap.Logger,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	pushSender push.Sender,
	emailSender email.Sender,
) NotificationService {
	return &notificationService{
		logger:           logger,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pushSender:       pushSender,
		emailSender:      emailSender,
		tracer:           otel.Tracer("notification_service"),
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "NotificationService.ListForUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	return s.notificationRepo.ListByUser(ctx, userID)
}

func (s *notificationService) HandlePushNotification(ctx context.Context, payload json.RawMessage) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandlePushNotification")
	defer span.End()

	return s.deliverPush(ctx, payload)
}

// HandleReminder delivers the same way as a regular push; the schedule
// difference lives entirely in the outbox row.
func (s *notificationService) HandleReminder(ctx context.Context, payload json.RawMessage) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleReminder")
	defer span.End()

	return s.deliverPush(ctx, payload)
}

func (s *notificationService) deliverPush(ctx context.Context, payload json.RawMessage) error {
	var job outboxDomain.NotificationPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("invalid notification payload: %w", err)
	}

	notification, err := s.notificationRepo.FindByID(ctx, job.NotificationID)
	if err != nil {
		return fmt.Errorf("failed to load notification %d: %w", job.NotificationID, err)
	}

	user, err := s.userRepo.FindByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", job.UserID, err)
	}

	if user.PushToken == nil {
		mylogger.Info(
			ctx,
			s.logger,
			"User has no push token, skipping delivery",
			zap.Int64("user_id", user.ID),
			zap.Int64("notification_id", notification.ID),
		)

		return nil
	}

	return s.pushSender.Send(ctx, *user.PushToken, notification.Title, notification.Body, notification.Data)
}

func (s *notificationService) HandleInvitationEmail(ctx context.Context, payload json.RawMessage) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleInvitationEmail")
	defer span.End()

	var job outboxDomain.InvitationEmailPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("invalid invitation payload: %w", err)
	}

	return s.emailSender.SendInvitationEmail(ctx, job.Email, job.InviterName, job.CircleName, job.Token, job.IsRegistered)
}

func (s *notificationService) HandleMagicLinkEmail(ctx context.Context, payload json.RawMessage) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleMagicLinkEmail")
	defer span.End()

	var job outboxDomain.MagicLinkEmailPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("invalid magic link payload: %w", err)
	}

	return s.emailSender.SendMagicLinkEmail(ctx, job.Email, job.Token)
}
