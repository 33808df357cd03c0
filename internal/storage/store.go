package storage

import (
	"errors"
	"time"

	"github.com/rezervo-app/rezervo-backend/internal/models"
)

// Storage-level sentinel errors. Services translate these into their own
// taxonomy before they reach a handler.
var (
	ErrNotFound             = errors.New("record not found")
	ErrPhoneAlreadyVerified = errors.New("phone already verified for business")
	ErrResendCooldown       = errors.New("active verification issued too recently")
	ErrNoAttemptsLeft       = errors.New("verification attempts exhausted")
)

// Store defines the persistence operations used by the verification and
// notification subsystem.
type Store interface {
	// Verification operations
	//
	// ReplaceActiveVerification atomically enforces the at-most-one-active
	// invariant: inside one transaction it short-circuits with
	// ErrPhoneAlreadyVerified when the phone is already verified for the
	// business, rejects with ErrResendCooldown when an unverified row for
	// the same (phone, business, purpose) was created within cooldown,
	// deletes any prior unverified rows for that key, and inserts v.
	ReplaceActiveVerification(v *models.PhoneVerification, cooldown time.Duration) error
	GetVerification(verificationID string) (*models.PhoneVerification, error)
	// IncrementAttempts bumps the attempt counter of an unverified row by
	// exactly one in a single conditional statement and returns the new
	// count. The statement also guards attempts < max_attempts, so the
	// counter can never pass the cap no matter how many verifies race;
	// a row already at the cap returns ErrNoAttemptsLeft.
	IncrementAttempts(verificationID string) (int, error)
	// MarkVerified transitions an unverified, unexpired, non-exhausted row
	// to its terminal verified state. Returns false when no such row was
	// claimable (already verified, expired, or exhausted).
	MarkVerified(verificationID string) (bool, error)
	DeleteExpiredVerifications() (int64, error)

	// Verified-phone cache
	UpsertVerifiedPhone(phone, businessID string) error
	GetVerifiedPhone(phone, businessID string) (*models.VerifiedPhone, error)

	// Push subscriptions (upsert on endpoint; hard delete on provider gone)
	SaveBusinessSubscription(sub *models.PushSubscription) error
	SaveUserSubscription(sub *models.UserPushSubscription) error
	GetBusinessSubscriptions(businessID string) ([]*models.PushSubscription, error)
	GetUserSubscriptions(userID string) ([]*models.UserPushSubscription, error)
	DeleteBusinessSubscriptions(endpoints []string) error
	DeleteUserSubscriptions(endpoints []string) error

	// Audit artifacts (write-once)
	CreateNotification(n *models.Notification) error
	CreateWhatsAppLog(l *models.WhatsAppMessageLog) error

	// Collaborator reads + the reminder claim
	GetBusiness(businessID string) (*models.Business, error)
	GetAppointment(appointmentID string) (*models.Appointment, error)
	GetFavoriteUserIDs(businessID string) ([]string, error)
	// ClaimAppointmentsForReminder flips reminder_sent on every pending or
	// confirmed appointment inside [from, to] with a customer identity, in
	// a single conditional update, and returns the claimed rows. A second
	// concurrent scan can never claim the same appointment.
	ClaimAppointmentsForReminder(from, to time.Time) ([]*models.Appointment, error)
}
