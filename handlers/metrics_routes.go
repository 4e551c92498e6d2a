// handlers/metrics_routes.go
package handlers

import (
	"log"

	"pitch-referral-system/middleware"
	"pitch-referral-system/services"

	"github.com/gofiber/fiber/v2"
)

// Metrics routes degrade to zeros/defaults on failure — dashboards never show
// an attribution error state to the user.
func SetupMetricsRoutes(app *fiber.App, metricsService *services.MetricsService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/pitches/:id/kpis", func(c *fiber.Ctx) error {
		kpis, err := metricsService.GetKPIs(c.Params("id"))
		if err != nil {
			log.Printf("⚠️  KPI query failed for pitch %s: %v", c.Params("id"), err)
			return c.JSON(&services.KPIReport{})
		}
		return c.JSON(kpis)
	})

	securedGroup.Get("/pitches/:id/channels", func(c *fiber.Ctx) error {
		channels, err := metricsService.GetChannelPerformance(c.Params("id"))
		if err != nil {
			log.Printf("⚠️  Channel query failed for pitch %s: %v", c.Params("id"), err)
			channels = []services.ChannelReport{}
		}
		return c.JSON(fiber.Map{"channels": channels})
	})

	securedGroup.Get("/pitches/:id/suggestions", func(c *fiber.Ctx) error {
		suggestions, err := metricsService.GetKeywordSuggestions(c.Params("id"))
		if err != nil {
			log.Printf("⚠️  Suggestion query failed for pitch %s: %v", c.Params("id"), err)
			suggestions = nil
		}
		return c.JSON(fiber.Map{"suggestions": suggestions})
	})

	securedGroup.Get("/pitches/:id/nudges", func(c *fiber.Ctx) error {
		nudges, err := metricsService.GetNudges(c.Params("id"))
		if err != nil {
			log.Printf("⚠️  Nudge query failed for pitch %s: %v", c.Params("id"), err)
			nudges = nil
		}
		return c.JSON(fiber.Map{"nudges": nudges})
	})
}
