package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AccountChecker is a read-only provider health probe.
type AccountChecker interface {
	CheckAccountStatus() error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version  string
	db       *gorm.DB
	whatsapp AccountChecker
}

// NewHealthHandler creates a new health handler. db and whatsapp may be nil
// when running against the in-memory store or without Twilio credentials.
func NewHealthHandler(version string, db *gorm.DB, whatsapp AccountChecker) *HealthHandler {
	return &HealthHandler{
		Version:  version,
		db:       db,
		whatsapp: whatsapp,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK

	dbHealthy := true
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbHealthy = false
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		}
	}

	whatsappHealthy := h.whatsapp != nil && h.whatsapp.CheckAccountStatus() == nil

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"service": "Rezervo Backend",
		"version": h.Version,
		"services": fiber.Map{
			"database": dbHealthy,
			"whatsapp": whatsappHealthy,
		},
	})
}
