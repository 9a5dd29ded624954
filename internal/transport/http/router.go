package http

import (
	"github.com/Z3r0J/togetherly-backend-sub000/internal/transport/http/handler"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Event         *handler.EventHandler
	Circle        *handler.CircleHandler
	Notification  *handler.NotificationHandler
	PersonalEvent *handler.PersonalEventHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers) {
	app.Post("/auth/magic-link", h.Circle.MagicLink)

	api := app.Group("/api", middleware.NewAuthMiddleware())

	events := api.Group("/events")
	events.Post("", h.Event.Create)
	events.Get("/:id", h.Event.FindByID)
	events.Patch("/:id", h.Event.Update)
	events.Post("/:id/options", h.Event.CreateOptions)
	events.Post("/:id/votes", h.Event.Vote)
	events.Post("/:id/lock", h.Event.Lock)
	events.Post("/:id/finalize", h.Event.Finalize)
	events.Put("/:id/rsvp", h.Event.SetRsvp)

	circles := api.Group("/circles")
	circles.Get("/:circleId/events", h.Event.ListByCircle)
	circles.Post("/:id/invitations", h.Circle.Invite)

	api.Get("/notifications", h.Notification.List)

	personal := api.Group("/personal-events")
	personal.Post("", h.PersonalEvent.Create)
	personal.Get("", h.PersonalEvent.List)
	personal.Delete("/:id", h.PersonalEvent.Cancel)
}
