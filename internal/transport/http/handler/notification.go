package handler

import (
	"github.com/Z3r0J/togetherly-backend-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notifications service.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger,
	}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	notifications, err := h.notifications.ListForUser(c.UserContext(), userId)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}
