package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rezervo-app/rezervo-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Verification operations

func (d *DatabaseStore) ReplaceActiveVerification(v *models.PhoneVerification, cooldown time.Duration) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var vp models.VerifiedPhone
		err := tx.Where("phone = ? AND business_id = ? AND is_active = ?",
			v.Phone, v.BusinessID, true).First(&vp).Error
		if err == nil {
			return ErrPhoneAlreadyVerified
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if cooldown > 0 {
			var recent int64
			if err := tx.Model(&models.PhoneVerification{}).
				Where("phone = ? AND business_id = ? AND user_type = ? AND is_verified = ? AND created_at > ?",
					v.Phone, v.BusinessID, v.UserType, false, time.Now().Add(-cooldown)).
				Count(&recent).Error; err != nil {
				return err
			}
			if recent > 0 {
				return ErrResendCooldown
			}
		}

		if err := tx.Unscoped().
			Where("phone = ? AND business_id = ? AND user_type = ? AND is_verified = ?",
				v.Phone, v.BusinessID, v.UserType, false).
			Delete(&models.PhoneVerification{}).Error; err != nil {
			return err
		}

		return tx.Create(v).Error
	})
}

func (d *DatabaseStore) GetVerification(verificationID string) (*models.PhoneVerification, error) {
	var v models.PhoneVerification
	err := d.db.Where("verification_id = ?", verificationID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DatabaseStore) IncrementAttempts(verificationID string) (int, error) {
	var v models.PhoneVerification
	res := d.db.Model(&v).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "attempts"}}}).
		Where("verification_id = ? AND is_verified = ? AND attempts < max_attempts",
			verificationID, false).
		Update("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing/verified row from one that hit the cap
		// (possibly in a concurrent verify that won the statement race).
		var existing models.PhoneVerification
		err := d.db.Where("verification_id = ? AND is_verified = ?", verificationID, false).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		if err != nil {
			return 0, err
		}
		return existing.Attempts, ErrNoAttemptsLeft
	}
	return v.Attempts, nil
}

func (d *DatabaseStore) MarkVerified(verificationID string) (bool, error) {
	now := time.Now()
	res := d.db.Model(&models.PhoneVerification{}).
		Where("verification_id = ? AND is_verified = ? AND expires_at > ? AND attempts < max_attempts",
			verificationID, false, now).
		Updates(map[string]interface{}{"is_verified": true, "verified_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (d *DatabaseStore) DeleteExpiredVerifications() (int64, error) {
	res := d.db.Unscoped().
		Where("expires_at < ? AND is_verified = ?", time.Now(), false).
		Delete(&models.PhoneVerification{})
	return res.RowsAffected, res.Error
}

// Verified-phone cache

func (d *DatabaseStore) UpsertVerifiedPhone(phone, businessID string) error {
	now := time.Now()
	vp := &models.VerifiedPhone{
		Phone:      phone,
		BusinessID: businessID,
		VerifiedAt: now,
		LastUsedAt: now,
		IsActive:   true,
	}
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}, {Name: "business_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"verified_at":  now,
			"last_used_at": now,
			"is_active":    true,
		}),
	}).Create(vp).Error
}

func (d *DatabaseStore) GetVerifiedPhone(phone, businessID string) (*models.VerifiedPhone, error) {
	var vp models.VerifiedPhone
	err := d.db.Where("phone = ? AND business_id = ?", phone, businessID).First(&vp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vp, nil
}

// Push subscriptions

func (d *DatabaseStore) SaveBusinessSubscription(sub *models.PushSubscription) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"business_id", "p256dh", "auth", "updated_at"}),
	}).Create(sub).Error
}

func (d *DatabaseStore) SaveUserSubscription(sub *models.UserPushSubscription) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
	}).Create(sub).Error
}

func (d *DatabaseStore) GetBusinessSubscriptions(businessID string) ([]*models.PushSubscription, error) {
	var subs []*models.PushSubscription
	err := d.db.Where("business_id = ?", businessID).Find(&subs).Error
	return subs, err
}

func (d *DatabaseStore) GetUserSubscriptions(userID string) ([]*models.UserPushSubscription, error) {
	var subs []*models.UserPushSubscription
	err := d.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

func (d *DatabaseStore) DeleteBusinessSubscriptions(endpoints []string) error {
	if len(endpoints) == 0 {
		return nil
	}
	return d.db.Unscoped().Where("endpoint IN ?", endpoints).
		Delete(&models.PushSubscription{}).Error
}

func (d *DatabaseStore) DeleteUserSubscriptions(endpoints []string) error {
	if len(endpoints) == 0 {
		return nil
	}
	return d.db.Unscoped().Where("endpoint IN ?", endpoints).
		Delete(&models.UserPushSubscription{}).Error
}

// Audit artifacts

func (d *DatabaseStore) CreateNotification(n *models.Notification) error {
	return d.db.Create(n).Error
}

func (d *DatabaseStore) CreateWhatsAppLog(l *models.WhatsAppMessageLog) error {
	return d.db.Create(l).Error
}

// Collaborator reads

func (d *DatabaseStore) GetBusiness(businessID string) (*models.Business, error) {
	var b models.Business
	err := d.db.Where("business_id = ?", businessID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *DatabaseStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	var a models.Appointment
	err := d.db.Where("appointment_id = ?", appointmentID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *DatabaseStore) GetFavoriteUserIDs(businessID string) ([]string, error) {
	var userIDs []string
	err := d.db.Model(&models.FavoriteBusiness{}).
		Where("business_id = ?", businessID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (d *DatabaseStore) ClaimAppointmentsForReminder(from, to time.Time) ([]*models.Appointment, error) {
	var claimed []models.Appointment
	res := d.db.Model(&claimed).
		Clauses(clause.Returning{}).
		Where("status IN ? AND appointment_at >= ? AND appointment_at <= ? AND reminder_sent = ? AND (customer_user_id IS NOT NULL OR guest_phone <> '')",
			[]string{models.AppointmentStatusPending, models.AppointmentStatusConfirmed},
			from, to, false).
		Update("reminder_sent", true)
	if res.Error != nil {
		return nil, res.Error
	}
	out := make([]*models.Appointment, len(claimed))
	for i := range claimed {
		out[i] = &claimed[i]
	}
	return out, nil
}
