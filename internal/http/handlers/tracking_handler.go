package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"vintagestore/internal/log"
	"vintagestore/internal/services"
	"vintagestore/internal/tracking"
)

type TrackingHandler struct {
	Tracking *services.TrackingService
}

type eventRequest struct {
	Event     string              `json:"event"`
	EventID   string              `json:"event_id"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone"`
	SourceURL string              `json:"source_url"`
	Items     []services.CartLine `json:"items"`
}

// POST /api/v1/events
//
// Relay failures are logged and do not fail the shopper's request.
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request")
	}
	in := tracking.Input{
		Event:     req.Event,
		EventID:   req.EventID,
		Email:     req.Email,
		Phone:     req.Phone,
		Fbp:       c.Cookies("_fbp"),
		Fbc:       c.Cookies("_fbc"),
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		SourceURL: req.SourceURL,
	}
	if in.SourceURL == "" {
		in.SourceURL = c.Get(fiber.HeaderReferer)
	}

	ev, err := h.Tracking.Track(c.UserContext(), in, req.Items)
	if errors.Is(err, tracking.ErrUnknownEvent) {
		log.Security(c, "validation.fail", map[string]any{"field": "event", "value": req.Event})
		return fail(c, fiber.StatusBadRequest, "Unknown event")
	}
	if err != nil {
		log.Error(c, "tracking.relay.fail", err, map[string]any{"event": req.Event})
		if ev.EventID == "" {
			return ok(c, fiber.Map{"accepted": false})
		}
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "data": fiber.Map{"event_id": ev.EventID}})
}
