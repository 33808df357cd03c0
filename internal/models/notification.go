package models

import "gorm.io/gorm"

// Notification types
const (
	NotificationTypeAppointment = "appointment"
	NotificationTypeStatus      = "status_change"
	NotificationTypeReminder    = "reminder"
	NotificationTypeReview      = "review"
	NotificationTypeApproval    = "business_approval"
	NotificationTypeFavorite    = "favorite_business"
	NotificationTypeSystem      = "system"
)

// Notification is the durable in-app record of a dispatched event, written
// exactly once per logical event regardless of channel outcomes. Read only
// transitions false -> true.
type Notification struct {
	gorm.Model
	UserID  string `json:"user_id" gorm:"not null;index"`
	Message string `json:"message" gorm:"not null"`
	Type    string `json:"type" gorm:"not null"`
	Read    bool   `json:"read" gorm:"default:false"`
}
