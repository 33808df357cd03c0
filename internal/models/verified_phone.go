package models

import (
	"time"

	"gorm.io/gorm"
)

// VerifiedPhone caches a (phone, business) pair that completed OTP
// verification, so repeat guests skip the code exchange. Written only by a
// successful verification; deactivated, never deleted, by this subsystem.
type VerifiedPhone struct {
	gorm.Model
	Phone      string    `json:"phone" gorm:"not null;uniqueIndex:idx_verified_phone_business"`
	BusinessID string    `json:"business_id" gorm:"not null;uniqueIndex:idx_verified_phone_business"`
	VerifiedAt time.Time `json:"verified_at" gorm:"not null"`
	LastUsedAt time.Time `json:"last_used_at" gorm:"not null"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
}
