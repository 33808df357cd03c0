package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Appointment statuses
const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusCompleted = "completed"
)

// Appointment is the booking row this subsystem notifies about. Slot
// computation and appointment CRUD live elsewhere; the notification core
// only reads these rows and flips ReminderSent.
type Appointment struct {
	gorm.Model
	AppointmentID  string    `json:"appointment_id" gorm:"uniqueIndex"`
	BusinessID     string    `json:"business_id" gorm:"not null;index"`
	CustomerUserID *string   `json:"customer_user_id" gorm:"index"`
	GuestName      string    `json:"guest_name"`
	GuestPhone     string    `json:"guest_phone"`
	Services       string    `json:"services"` // comma-separated service names
	AppointmentAt  time.Time `json:"appointment_at" gorm:"not null;index"`
	Status         string    `json:"status" gorm:"not null;default:pending;index"`
	ReminderSent   bool      `json:"reminder_sent" gorm:"default:false;index"`
}

// ServiceList splits the stored services string into trimmed names.
func (a *Appointment) ServiceList() []string {
	if a.Services == "" {
		return nil
	}
	parts := strings.Split(a.Services, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CustomerPhone returns the phone to notify for guest appointments.
func (a *Appointment) CustomerPhone() string {
	return a.GuestPhone
}
