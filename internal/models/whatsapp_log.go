package models

import "gorm.io/gorm"

// WhatsApp message types
const (
	WhatsAppTypeOTP          = "otp"
	WhatsAppTypeApproval     = "appointment_approval"
	WhatsAppTypeReminder     = "appointment_reminder"
	WhatsAppTypeCancellation = "appointment_cancellation"
)

// WhatsApp delivery statuses
const (
	WhatsAppStatusSent   = "sent"
	WhatsAppStatusFailed = "failed"
)

// WhatsAppMessageLog is an append-only audit row, one per attempted send,
// success or failure. Rows are never updated after insert.
type WhatsAppMessageLog struct {
	gorm.Model
	Phone           string `json:"phone" gorm:"not null;index"`
	MessageType     string `json:"message_type" gorm:"not null"`
	MessageContent  string `json:"message_content"`
	BusinessID      string `json:"business_id" gorm:"index"`
	AppointmentID   string `json:"appointment_id" gorm:"index"`
	Status          string `json:"status" gorm:"not null"`
	TwilioMessageID string `json:"twilio_message_id"`
	ErrorMessage    string `json:"error_message"`
}
