package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TimeOptionInput struct {
	StartTime time.Time
	EndTime   time.Time
}

type VotingService interface {
	CreateOptions(ctx context.Context, eventID int64, options []TimeOptionInput) ([]*domain.TimeOption, error)
	CastVote(ctx context.Context, eventID, optionID, voterID int64) error
	// WinningOption returns the option with the most votes; ties break
	// on the earliest start time. Returns nil when the event has no
	// options.
	WinningOption(ctx context.Context, eventID int64) (*domain.TimeOption, error)
}

type votingService struct {
	logger     *zap.Logger
	eventRepo  repository.EventRepository
	optionRepo repository.TimeOptionRepository
	voteRepo   repository.TimeVoteRepository
	tracer     trace.Tracer
}

func NewVotingService(
	logger *zap.Logger,
	eventRepo repository.EventRepository,
	optionRepo repository.TimeOptionRepository,
	voteRepo repository.TimeVoteRepository,
) VotingService {
	return &votingService{
		logger:     logger,
		eventRepo:  eventRepo,
		optionRepo: optionRepo,
		voteRepo:   voteRepo,
		tracer:     otel.Tracer("voting_service"),
	}
}

func (s *votingService) CreateOptions(ctx context.Context, eventID int64, options []TimeOptionInput) ([]*domain.TimeOption, error) {
	ctx, span := s.tracer.Start(ctx, "VotingService.CreateOptions")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int("options_count", len(options)),
	)

	for _, input := range options {
		if !input.EndTime.After(input.StartTime) {
			return nil, ErrInvalidTimeRange
		}
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if event.Status != domain.EventStatusDraft {
		return nil, ErrEventNotVotable
	}

	created := make([]*domain.TimeOption, 0, len(options))
	for _, input := range options {
		created = append(created, &domain.TimeOption{
			EventID:   eventID,
			StartTime: input.StartTime,
			EndTime:   input.EndTime,
		})
	}

	if err := s.optionRepo.CreateBatch(ctx, created); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to create time options",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to create time options: %w", err)
	}

	return created, nil
}

func (s *votingService) CastVote(ctx context.Context, eventID, optionID, voterID int64) error {
	ctx, span := s.tracer.Start(ctx, "VotingService.CastVote")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("option_id", optionID),
		attribute.Int64("voter_id", voterID),
	)

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}

	if event.Status != domain.EventStatusDraft {
		return ErrEventNotVotable
	}

	option, err := s.optionRepo.FindByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, repository.ErrOptionNotFound) {
			return ErrOptionNotFound
		}

		return fmt.Errorf("failed to load option: %w", err)
	}

	if option.EventID != eventID {
		return ErrOptionNotFound
	}

	if err := s.voteRepo.ReplaceVote(ctx, eventID, optionID, voterID); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to replace vote",
			zap.Int64("event_id", eventID),
			zap.Int64("voter_id", voterID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to replace vote: %w", err)
	}

	return nil
}

func (s *votingService) WinningOption(ctx context.Context, eventID int64) (*domain.TimeOption, error) {
	ctx, span := s.tracer.Start(ctx, "VotingService.WinningOption")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	tallies, err := s.optionRepo.ListTallies(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load option tallies: %w", err)
	}

	if len(tallies) == 0 {
		return nil, nil
	}

	// Vote count descending, then earliest start. The tie-break order
	// is part of the contract.
	sort.SliceStable(tallies, func(i, j int) bool {
		if tallies[i].VoteCount != tallies[j].VoteCount {
			return tallies[i].VoteCount > tallies[j].VoteCount
		}
		return tallies[i].Option.StartTime.Before(tallies[j].Option.StartTime)
	})

	winner := tallies[0].Option
	return &winner, nil
}
