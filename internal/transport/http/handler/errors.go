package handler

import (
	"errors"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps scheduling errors to HTTP codes. Unknown errors are
// internal: the caller should log them and return a generic message.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidRsvpStatus),
		errors.Is(err, service.ErrInvalidOption):
		return fiber.StatusBadRequest

	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotMember):
		return fiber.StatusForbidden

	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrOptionNotFound),
		errors.Is(err, repository.ErrCircleNotFound),
		errors.Is(err, repository.ErrNotificationNotFound),
		errors.Is(err, service.ErrOptionNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, service.ErrAlreadyFinalized),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrEventNotVotable),
		errors.Is(err, service.ErrCannotModifyFinalized),
		errors.Is(err, service.ErrNoTimesAvailable):
		return fiber.StatusConflict

	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		return c.Status(code).JSON(fiber.Map{"error": "internal error"})
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func currentUser(c *fiber.Ctx) (int64, bool) {
	userId, ok := c.Locals("userId").(int64)
	return userId, ok
}
