package handler

import (
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/service"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PersonalEventHandler struct {
	personal service.PersonalEventService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewPersonalEventHandler(personal service.PersonalEventService, logger *zap.Logger) *PersonalEventHandler {
	return &PersonalEventHandler{
		personal: personal,
		logger:   logger,
		validate: validator.New(),
	}
}

type createPersonalEventRequest struct {
	Title     string    `json:"title" validate:"required,min=1"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

func (h *PersonalEventHandler) Create(c *fiber.Ctx) error {
	input := new(createPersonalEventRequest)
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

	event, err := h.personal.Create(c.UserContext(), userId, input.Title, input.StartTime, input.EndTime)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *PersonalEventHandler) List(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	events, err := h.personal.List(c.UserContext(), userId)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"events": events})
}

func (h *PersonalEventHandler) Cancel(c *fiber.Ctx) error {
	eventId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	if err := h.personal.Cancel(c.UserContext(), int64(eventId), userId); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}
