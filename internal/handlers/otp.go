package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rezervo-app/rezervo-backend/internal/services"
)

// OTPHandler handles phone verification requests
type OTPHandler struct {
	verification *services.VerificationService
}

// NewOTPHandler creates a new OTP handler
func NewOTPHandler(verification *services.VerificationService) *OTPHandler {
	return &OTPHandler{verification: verification}
}

// Send issues a verification code for a (phone, business) pair.
func (h *OTPHandler) Send(c *fiber.Ctx) error {
	var req struct {
		Phone      string `json:"phone"`
		BusinessID string `json:"businessId"`
		UserType   string `json:"userType"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	result, err := h.verification.CreateOTP(req.Phone, req.BusinessID, req.UserType)
	switch {
	case errors.Is(err, services.ErrInvalidPhone), errors.Is(err, services.ErrMissingBusiness):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrResendCooldown):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrDeliveryFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create verification",
		})
	}

	if result.AlreadyVerified {
		return c.JSON(fiber.Map{
			"success":         true,
			"alreadyVerified": true,
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"otpId":     result.VerificationID,
		"expiresAt": result.ExpiresAt,
	})
}

// Verify checks a submitted code against the active verification.
func (h *OTPHandler) Verify(c *fiber.Ctx) error {
	var req struct {
		OTPID string `json:"otpId"`
		Code  string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	result, err := h.verification.VerifyOTP(req.OTPID, req.Code)
	switch {
	case errors.Is(err, services.ErrInvalidCode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrCodeMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":           false,
			"error":             err.Error(),
			"attemptsRemaining": result.AttemptsRemaining,
		})
	case errors.Is(err, services.ErrCodeExpired):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success":           false,
			"error":             err.Error(),
			"attemptsRemaining": 0,
		})
	case errors.Is(err, services.ErrCodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Verification failed",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// CheckVerified reports whether a phone already completed verification for
// a business, so the booking UI can skip the code exchange.
func (h *OTPHandler) CheckVerified(c *fiber.Ctx) error {
	phone := c.Query("phone")
	businessID := c.Query("businessId")
	if phone == "" || businessID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone and businessId are required",
		})
	}

	verified, vp := h.verification.IsPhoneVerified(phone, businessID)
	if !verified {
		return c.JSON(fiber.Map{"isVerified": false})
	}

	return c.JSON(fiber.Map{
		"isVerified": true,
		"verifiedAt": vp.VerifiedAt,
		"lastUsedAt": vp.LastUsedAt,
	})
}
