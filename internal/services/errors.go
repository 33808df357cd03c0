package services

import "errors"

// Validation errors, rejected before any state mutation.
var (
	ErrInvalidPhone    = errors.New("phone number is required")
	ErrMissingBusiness = errors.New("business id is required")
	ErrInvalidCode     = errors.New("code must be 6 digits")
)

// Verification errors. ErrCodeNotFound and ErrCodeExpired are terminal for
// the attempt: the caller must request a new code. ErrTooManyAttempts is
// terminal as well, with the same remediation.
var (
	ErrCodeNotFound    = errors.New("no active verification found")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeMismatch    = errors.New("verification code does not match")
	ErrTooManyAttempts = errors.New("too many failed attempts")
	ErrResendCooldown  = errors.New("a code was sent recently, wait before requesting another")
)

// ErrDeliveryFailed is surfaced for the initial OTP send only: the user has
// no code without it. Orchestrator-triggered deliveries swallow their
// failures instead.
var ErrDeliveryFailed = errors.New("failed to deliver verification code")
