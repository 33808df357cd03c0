package models

import "gorm.io/gorm"

// Business is the minimal owner-side collaborator record: enough identity
// to resolve notification recipients and the WhatsApp opt-in flag.
type Business struct {
	gorm.Model
	BusinessID                   string `json:"business_id" gorm:"uniqueIndex"`
	Name                         string `json:"name" gorm:"not null"`
	OwnerUserID                  string `json:"owner_user_id" gorm:"not null;index"`
	Phone                        string `json:"phone"`
	IsApproved                   bool   `json:"is_approved" gorm:"default:false"`
	WhatsAppNotificationsEnabled bool   `json:"whatsapp_notifications_enabled" gorm:"default:false"`
}

// FavoriteBusiness links a customer to a business they follow, used to fan
// favorite-business updates out to interested users.
type FavoriteBusiness struct {
	gorm.Model
	UserID     string `json:"user_id" gorm:"not null;uniqueIndex:idx_favorite_user_business"`
	BusinessID string `json:"business_id" gorm:"not null;uniqueIndex:idx_favorite_user_business"`
}
