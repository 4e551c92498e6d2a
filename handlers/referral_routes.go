// handlers/referral_routes.go
package handlers

import (
	"errors"
	"log"
	"time"

	"pitch-referral-system/middleware"
	"pitch-referral-system/models"
	"pitch-referral-system/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService, eventService *services.EventService) {
	// 🔐 Secured routes — require user context forwarded by the Gateway
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	// Mint (or reuse) the share link for a pitch. This is the one path where
	// a storage failure must surface: without the link the caller cannot proceed.
	securedGroup.Post("/referrals/link", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			PitchID string `json:"pitch_id" validate:"required"`
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
				"error": "pitch_id is required",
			})
		}

		referral, link, err := referralService.CreateOrGetReferral(userID, req.PitchID)
		if err != nil {
			if errors.Is(err, services.ErrReferralRevoked) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "referral for this pitch has been revoked",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create referral link",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"referral_id": referral.ID,
			"code":        referral.Code,
			"link":        link,
		})
	})

	// List the caller's referrals (supporter dashboard).
	securedGroup.Get("/referrals", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		referrals, err := referralService.GetReferralsBySupporter(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list referrals",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"referrals": referrals})
	})

	// Resolve a code with pitch/supporter context for display.
	securedGroup.Get("/referrals/:code", func(c *fiber.Ctx) error {
		code := c.Params("code")

		referral, found, err := referralService.GetReferralByCode(code)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to resolve referral",
				"cause": err.Error(),
			})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "referral not found",
			})
		}
		return c.JSON(referral)
	})

	securedGroup.Post("/referrals/:id/revoke", func(c *fiber.Ctx) error {
		if err := referralService.RevokeReferral(c.Params("id")); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "active referral not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to revoke referral",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "referral revoked"})
	})

	// Public: a recipient opened a shared link. Resolve the code, record the
	// open without blocking, and send them on to the pitch page. An unknown
	// code still redirects — the visitor must never see an attribution error.
	app.Get("/refer/opened", func(c *fiber.Ctx) error {
		code := c.Query("code")
		platform := c.Query("platform", models.PlatformWeb)

		referral, found, err := referralService.GetReferralByCode(code)
		if err != nil || !found {
			if err != nil {
				log.Printf("⚠️  Failed to resolve referral code %q: %v", code, err)
			}
			return c.Redirect(referralService.SiteBaseURL, fiber.StatusFound)
		}

		eventService.RecordEventAsync(services.RecordEventInput{
			ReferralID: referral.ID,
			EventType:  models.EventLinkOpened,
			Platform:   platform,
			UserAgent:  c.Get("User-Agent"),
			IPAddress:  c.IP(),
			OccurredAt: time.Now(),
		})

		target := referral.PitchPageURL
		if target == "" {
			target = referralService.SiteBaseURL
		}
		return c.Redirect(target, fiber.StatusFound)
	})
}
