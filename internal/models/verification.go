package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification purposes
const (
	PurposeGuestAppointment = "guest_appointment"
	PurposeRegistration     = "registration"
)

// DefaultMaxAttempts is the number of wrong codes tolerated per verification.
const DefaultMaxAttempts = 3

// DefaultOTPTTL is how long an issued code stays valid.
const DefaultOTPTTL = 10 * time.Minute

// PhoneVerification is one outstanding or consumed OTP code.
// At most one unverified, unexpired row exists per (phone, business, purpose).
type PhoneVerification struct {
	gorm.Model
	VerificationID string     `json:"verification_id" gorm:"uniqueIndex"`
	Phone          string     `json:"phone" gorm:"not null;index"`
	Code           string     `json:"-" gorm:"not null"`
	UserType       string     `json:"user_type" gorm:"not null;index"`
	BusinessID     string     `json:"business_id" gorm:"not null;index"`
	ExpiresAt      time.Time  `json:"expires_at" gorm:"not null"`
	Attempts       int        `json:"attempts" gorm:"default:0"`
	MaxAttempts    int        `json:"max_attempts" gorm:"default:3"`
	IsVerified     bool       `json:"is_verified" gorm:"default:false"`
	VerifiedAt     *time.Time `json:"verified_at"`
}

func (v *PhoneVerification) BeforeCreate(tx *gorm.DB) error {
	if v.VerificationID == "" {
		v.VerificationID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the code can no longer be verified due to age.
func (v *PhoneVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// Exhausted reports whether all attempts have been burned.
func (v *PhoneVerification) Exhausted() bool {
	return v.Attempts >= v.MaxAttempts
}
