package models

import "gorm.io/gorm"

// PushSubscription is one browser/device Web Push registration owned by a
// business dashboard. Deleted automatically only when the push provider
// reports the endpoint gone.
type PushSubscription struct {
	gorm.Model
	BusinessID string `json:"business_id" gorm:"not null;index"`
	Endpoint   string `json:"endpoint" gorm:"not null;uniqueIndex"`
	P256dh     string `json:"p256dh" gorm:"not null"`
	Auth       string `json:"auth" gorm:"not null"`
}

// UserPushSubscription is the customer-scoped variant.
type UserPushSubscription struct {
	gorm.Model
	UserID   string `json:"user_id" gorm:"not null;index"`
	Endpoint string `json:"endpoint" gorm:"not null;uniqueIndex"`
	P256dh   string `json:"p256dh" gorm:"not null"`
	Auth     string `json:"auth" gorm:"not null"`
}
