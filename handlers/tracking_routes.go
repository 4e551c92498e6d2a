// handlers/tracking_routes.go
package handlers

import (
	"errors"
	"time"

	"pitch-referral-system/middleware"
	"pitch-referral-system/models"
	"pitch-referral-system/services"

	"github.com/gofiber/fiber/v2"
)

// TrackEventRequest is the JSON body of the public tracking endpoint.
type TrackEventRequest struct {
	ReferralID string                 `json:"referral_id" validate:"required"`
	EventType  string                 `json:"event_type" validate:"required"`
	Platform   string                 `json:"platform"`
	UserAgent  string                 `json:"user_agent"`
	Metadata   map[string]interface{} `json:"metadata"`
	OccurredAt *time.Time             `json:"occurred_at"`
}

func SetupTrackingRoutes(app *fiber.App, eventService *services.EventService) {
	// Telemetry endpoint hit by client-side buttons (call, email, share).
	// Contract: validate, acknowledge immediately, write in the background.
	// A slow or failed insert must never delay the user's primary action.
	app.Post("/track/event", func(c *fiber.Ctx) error {
		var req TrackEventRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid JSON",
			})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "referral_id and event_type are required",
			})
		}
		if !models.KnownEventTypes[req.EventType] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "unrecognized event_type",
			})
		}

		userAgent := req.UserAgent
		if userAgent == "" {
			userAgent = c.Get("User-Agent")
		}
		occurred := time.Now()
		if req.OccurredAt != nil {
			occurred = *req.OccurredAt
		}

		eventService.RecordEventAsync(services.RecordEventInput{
			ReferralID: req.ReferralID,
			EventType:  req.EventType,
			Platform:   req.Platform,
			UserAgent:  userAgent,
			IPAddress:  c.IP(),
			Metadata:   req.Metadata,
			OccurredAt: occurred,
		})

		return c.JSON(fiber.Map{"success": true})
	})

	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	// Events for one referral, display order.
	securedGroup.Get("/referrals/:id/events", func(c *fiber.Ctx) error {
		events, err := eventService.EventsByReferral(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch events",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"events": events})
	})

	// Annotate a specific event with outcome feedback.
	securedGroup.Post("/events/:id/feedback", func(c *fiber.Ctx) error {
		type Req struct {
			Feedback string `json:"feedback" validate:"required,max=32"`
			Comment  string `json:"comment" validate:"max=1000"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "feedback is required (max 32 chars)",
			})
		}

		if err := eventService.UpdateEventFeedback(c.Params("id"), req.Feedback, req.Comment); err != nil {
			if errors.Is(err, services.ErrEventNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "event not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update feedback",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "feedback recorded"})
	})

	// Annotate the most recent event of a type for a referral (e.g., the
	// LINK_OPENED event) when the caller doesn't hold an event id.
	securedGroup.Post("/referrals/:id/feedback", func(c *fiber.Ctx) error {
		type Req struct {
			EventType string `json:"event_type"`
			Feedback  string `json:"feedback" validate:"required,max=32"`
			Comment   string `json:"comment" validate:"max=1000"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "feedback is required (max 32 chars)",
			})
		}
		if req.EventType == "" {
			req.EventType = models.EventLinkOpened
		}

		err := eventService.UpdateReferralFeedback(c.Params("id"), req.EventType, req.Feedback, req.Comment)
		if err != nil {
			if errors.Is(err, services.ErrEventNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "no matching event for referral",
				})
			}
			if errors.Is(err, services.ErrUnknownEventType) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "unrecognized event_type",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update feedback",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "feedback recorded"})
	})
}
