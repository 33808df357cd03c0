package routes

import (
	"os"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rezervo-app/rezervo-backend/internal/handlers"
	"github.com/rezervo-app/rezervo-backend/internal/middleware"
	"github.com/rezervo-app/rezervo-backend/internal/realtime"
	"github.com/rezervo-app/rezervo-backend/internal/services"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, verification *services.VerificationService, hub *realtime.Hub, health *handlers.HealthHandler) {
	otpHandler := handlers.NewOTPHandler(verification)
	pushHandler := handlers.NewPushHandler(store)
	webhookHandler := handlers.NewWebhookHandler()

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Rezervo Backend!",
			"version": health.Version,
			"endpoints": fiber.Map{
				"health":   "/health",
				"api":      "/api",
				"metrics":  "/metrics",
				"realtime": "/ws/:channel",
				"webhook":  "/webhook/twilio-status",
			},
		})
	})

	app.Get("/health", health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := app.Group("/api")

	otp := api.Group("/otp")
	otp.Post("/send", otpHandler.Send)
	otp.Post("/verify", otpHandler.Verify)
	otp.Get("/check-verified", otpHandler.CheckVerified)

	push := api.Group("/push")
	push.Post("/register", pushHandler.RegisterBusiness)
	push.Post("/register-user", pushHandler.RegisterUser)

	// Realtime channel for connected dashboards and customer apps
	app.Use("/ws", realtime.Upgrade())
	app.Get("/ws/:channel", hub.Handler())

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// Twilio status callback - ENVIRONMENT-AWARE VALIDATION
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		// Development: skip validation for ngrok
		webhooks.Post("/twilio-status", webhookHandler.TwilioStatus)
	} else {
		webhooks.Post("/twilio-status", middleware.ValidateTwilioSignature(), webhookHandler.TwilioStatus)
	}
}
