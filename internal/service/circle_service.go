package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	outboxDomain "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CircleService interface {
	// InviteMember issues an invitation token and queues the invitation
	// email. Only owners and admins may invite.
	InviteMember(ctx context.Context, circleID, inviterID int64, email string) (string, error)
	// RequestMagicLink issues a sign-in token for the email and queues
	// the magic-link email. Unknown emails get a token too, so the
	// endpoint does not leak which addresses are registered.
	RequestMagicLink(ctx context.Context, email string) error
}

type circleService struct {
	logger     *zap.Logger
	circleRepo repository.CircleRepository
	userRepo   repository.UserRepository
	outboxRepo worker.OutboxRepository
	tracer     trace.Tracer
}

func NewCircleService(
	logger *zap.Logger,
	circleRepo repository.CircleRepository,
	userRepo repository.UserRepository,
	outboxRepo worker.OutboxRepository,
) CircleService {
	return &circleService{
		logger:     logger,
		circleRepo: circleRepo,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		tracer:     otel.Tracer("circle_service"),
	}
}

func (s *circleService) InviteMember(ctx context.Context, circleID, inviterID int64, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "CircleService.InviteMember")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("circle_id", circleID),
		attribute.Int64("inviter_id", inviterID),
	)

	member, err := s.circleRepo.FindMember(ctx, circleID, inviterID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return "", ErrForbidden
		}

		return "", fmt.Errorf("failed to check circle membership: %w", err)
	}

	if !member.Role.CanManageEvents() {
		return "", ErrForbidden
	}

	circle, err := s.circleRepo.FindByID(ctx, circleID)
	if err != nil {
		return "", fmt.Errorf("failed to load circle: %w", err)
	}

	inviter, err := s.userRepo.FindByID(ctx, inviterID)
	if err != nil {
		return "", fmt.Errorf("failed to load inviter: %w", err)
	}

	isRegistered := true
	if _, err := s.userRepo.FindByEmail(ctx, email); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return "", fmt.Errorf("failed to look up invitee: %w", err)
		}
		isRegistered = false
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(outboxDomain.InvitationEmailPayload{
		InviterName:  inviter.Name,
		CircleName:   circle.Name,
		Email:        email,
		Token:        token,
		IsRegistered: isRegistered,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal invitation payload: %w", err)
	}

	err = s.outboxRepo.Save(ctx, &outboxDomain.OutboxEvent{
		AggregateType: "circle",
		AggregateID:   fmt.Sprintf("%d", circleID),
		EventType:     outboxDomain.EventTypeEmailInvitation,
		Payload:       payload,
		MaxRetries:    outboxDomain.DefaultMaxRetries,
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue invitation email: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Invitation queued",
		zap.Int64("circle_id", circleID),
		zap.Bool("is_registered", isRegistered),
	)

	return token, nil
}

func (s *circleService) RequestMagicLink(ctx context.Context, email string) error {
	ctx, span := s.tracer.Start(ctx, "CircleService.RequestMagicLink")
	defer span.End()

	token, err := newToken()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(outboxDomain.MagicLinkEmailPayload{
		Email: email,
		Token: token,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal magic link payload: %w", err)
	}

	err = s.outboxRepo.Save(ctx, &outboxDomain.OutboxEvent{
		AggregateType: "user",
		AggregateID:   email,
		EventType:     outboxDomain.EventTypeEmailMagicLink,
		Payload:       payload,
		MaxRetries:    outboxDomain.DefaultMaxRetries,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue magic link email: %w", err)
	}

	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
