package handler

import (
	"github.com/Z3r0J/togetherly-backend-sub000/internal/service"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CircleHandler struct {
	circles  service.CircleService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewCircleHandler(circles service.CircleService, logger *zap.Logger) *CircleHandler {
	return &CircleHandler{
		circles:  circles,
		logger:   logger,
		validate: validator.New(),
	}
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *CircleHandler) Invite(c *fiber.Ctx) error {
	circleId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid circle id"})
	}

	input := new(inviteRequest)
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

	token, err := h.circles.InviteMember(c.UserContext(), int64(circleId), userId, input.Email)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"invite member failed",
			zap.Int("circle_id", circleId),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token})
}

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *CircleHandler) MagicLink(c *fiber.Ctx) error {
	input := new(magicLinkRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	if err := h.circles.RequestMagicLink(c.UserContext(), input.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}
