package handler

import (
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/service"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type EventHandler struct {
	events     service.EventService
	voting     service.VotingService
	eventRepo  repository.EventRepository
	optionRepo repository.TimeOptionRepository
	logger     *zap.Logger
	validate   *validator.Validate
}

func NewEventHandler(
	events service.EventService,
	voting service.VotingService,
	eventRepo repository.EventRepository,
	optionRepo repository.TimeOptionRepository,
	logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		events:     events,
		voting:     voting,
		eventRepo:  eventRepo,
		optionRepo: optionRepo,
		logger:     logger,
		validate:   validator.New(),
	}
}

type timeOptionRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type createEventRequest struct {
	CircleID        int64               `json:"circle_id" validate:"required,gt=0"`
	Title           string              `json:"title" validate:"required,min=1"`
	Description     string              `json:"description"`
	ReminderMinutes *int                `json:"reminder_minutes" validate:"omitempty,gt=0"`
	StartsAt        *time.Time          `json:"starts_at"`
	EndsAt          *time.Time          `json:"ends_at"`
	Options         []timeOptionRequest `json:"options" validate:"dive"`
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	input := new(createEventRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	options := make([]service.TimeOptionInput, 0, len(input.Options))
	for _, option := range input.Options {
		options = append(options, service.TimeOptionInput{
			StartTime: option.StartTime,
			EndTime:   option.EndTime,
		})
	}

	event, err := h.events.Create(c.UserContext(), service.CreateEventInput{
		CircleID:        input.CircleID,
		CreatorID:       userId,
		Title:           input.Title,
		Description:     input.Description,
		ReminderMinutes: input.ReminderMinutes,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		Options:         options,
	})
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"create event failed",
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *EventHandler) ListByCircle(c *fiber.Ctx) error {
	circleId, err := c.ParamsInt("circleId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid circle id"})
	}

	events, err := h.eventRepo.ListByCircle(c.UserContext(), int64(circleId))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"events": events})
}

func (h *EventHandler) FindByID(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	event, err := h.eventRepo.FindByID(c.UserContext(), int64(eventId))
	if err != nil {
		return respondError(c, err)
	}

	options, err := h.optionRepo.ListByEvent(c.UserContext(), event.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"event": event, "options": options})
}

type updateEventRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1"`
	Description     *string    `json:"description"`
	ReminderMinutes *int       `json:"reminder_minutes" validate:"omitempty,gt=0"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
}

func (h *EventHandler) Update(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	input := new(updateEventRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	event, err := h.events.Update(c.UserContext(), int64(eventId), userId, service.UpdateEventInput{
		Title:           input.Title,
		Description:     input.Description,
		ReminderMinutes: input.ReminderMinutes,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(event)
}

type createOptionsRequest struct {
	Options []timeOptionRequest `json:"options" validate:"required,min=1,dive"`
}

func (h *EventHandler) CreateOptions(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	input := new(createOptionsRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	options := make([]service.TimeOptionInput, 0, len(input.Options))
	for _, option := range input.Options {
		options = append(options, service.TimeOptionInput{
			StartTime: option.StartTime,
			EndTime:   option.EndTime,
		})
	}

	created, err := h.voting.CreateOptions(c.UserContext(), int64(eventId), options)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"options": created})
}

type voteRequest struct {
	OptionID int64 `json:"option_id" validate:"required,gt=0"`
}

func (h *EventHandler) Vote(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	input := new(voteRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	if err := h.voting.CastVote(c.UserContext(), int64(eventId), input.OptionID, userId); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

type lockRequest struct {
	OptionID int64 `json:"option_id" validate:"required,gt=0"`
}

func (h *EventHandler) Lock(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	input := new(lockRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	event, err := h.events.Lock(c.UserContext(), int64(eventId), userId, input.OptionID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(event)
}

func (h *EventHandler) Finalize(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	event, err := h.events.Finalize(c.UserContext(), int64(eventId), userId)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"finalize event failed",
			zap.Int("event_id", eventId),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.JSON(event)
}

type rsvpRequest struct {
	Status string `json:"status" validate:"required,oneof=going not_going maybe"`
}

func (h *EventHandler) SetRsvp(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	input := new(rsvpRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	rsvp, err := h.events.SetRsvp(c.UserContext(), int64(eventId), userId, domain.RsvpStatus(input.Status))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(rsvp)
}
