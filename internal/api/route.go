package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/coding-shalabh/nexora-api-sub000/internal/api/v1"
)

func SetupRoutes(app *fiber.App, handler *v1.Handler) {
	app.Get("/ping", handler.Pong)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	group := app.Group("/v1")

	group.Post("/messages", handler.SendMessage)
	group.Post("/messages/template", handler.SendTemplate)
	group.Get("/threads/:id/messages", handler.ThreadMessages)

	group.Post("/webhooks/:accountId/inbound", handler.InboundWebhook)
	group.Post("/webhooks/:accountId/status", handler.StatusWebhook)

	group.Post("/consents/grant", handler.GrantConsent)
	group.Post("/consents/revoke", handler.RevokeConsent)
	group.Post("/optouts", handler.RecordOptOut)
	group.Delete("/optouts", handler.ClearOptOut)

	group.Post("/enrollments", handler.Enroll)
	group.Post("/enrollments/:id/pause", handler.PauseEnrollment)
	group.Post("/enrollments/:id/resume", handler.ResumeEnrollment)

	group.Get("/wallet", handler.WalletBalance)
}
