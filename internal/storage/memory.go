package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezervo-app/rezervo-backend/internal/models"
)

// MemoryStore holds all data in memory, mirroring DatabaseStore semantics.
// Used for tests and local development without PostgreSQL.
type MemoryStore struct {
	verifications  map[string]*models.PhoneVerification // by verification id
	verifiedPhones map[string]*models.VerifiedPhone     // by phone|business
	businessSubs   map[string]*models.PushSubscription  // by endpoint
	userSubs       map[string]*models.UserPushSubscription
	notifications  []*models.Notification
	whatsappLogs   []*models.WhatsAppMessageLog
	businesses     map[string]*models.Business
	appointments   map[string]*models.Appointment
	favorites      map[string][]string // businessID -> userIDs

	mu      sync.RWMutex
	idSeq   uint
	nowFunc func() time.Time
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		verifications:  make(map[string]*models.PhoneVerification),
		verifiedPhones: make(map[string]*models.VerifiedPhone),
		businessSubs:   make(map[string]*models.PushSubscription),
		userSubs:       make(map[string]*models.UserPushSubscription),
		businesses:     make(map[string]*models.Business),
		appointments:   make(map[string]*models.Appointment),
		favorites:      make(map[string][]string),
		nowFunc:        time.Now,
	}
}

func phoneBusinessKey(phone, businessID string) string {
	return fmt.Sprintf("%s|%s", phone, businessID)
}

func (m *MemoryStore) nextID() uint {
	m.idSeq++
	return m.idSeq
}

// Verification operations

func (m *MemoryStore) ReplaceActiveVerification(v *models.PhoneVerification, cooldown time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()

	if vp, ok := m.verifiedPhones[phoneBusinessKey(v.Phone, v.BusinessID)]; ok && vp.IsActive {
		return ErrPhoneAlreadyVerified
	}

	for id, old := range m.verifications {
		if old.Phone != v.Phone || old.BusinessID != v.BusinessID || old.UserType != v.UserType || old.IsVerified {
			continue
		}
		if cooldown > 0 && old.CreatedAt.After(now.Add(-cooldown)) {
			return ErrResendCooldown
		}
		delete(m.verifications, id)
	}

	if v.VerificationID == "" {
		v.VerificationID = uuid.NewString()
	}
	v.ID = m.nextID()
	v.CreatedAt = now
	v.UpdatedAt = now
	cp := *v
	m.verifications[v.VerificationID] = &cp
	return nil
}

func (m *MemoryStore) GetVerification(verificationID string) (*models.PhoneVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.verifications[verificationID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) IncrementAttempts(verificationID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.verifications[verificationID]
	if !ok || v.IsVerified {
		return 0, ErrNotFound
	}
	if v.Attempts >= v.MaxAttempts {
		return v.Attempts, ErrNoAttemptsLeft
	}
	v.Attempts++
	v.UpdatedAt = m.nowFunc()
	return v.Attempts, nil
}

func (m *MemoryStore) MarkVerified(verificationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	v, ok := m.verifications[verificationID]
	if !ok || v.IsVerified || now.After(v.ExpiresAt) || v.Attempts >= v.MaxAttempts {
		return false, nil
	}
	v.IsVerified = true
	v.VerifiedAt = &now
	v.UpdatedAt = now
	return true, nil
}

func (m *MemoryStore) DeleteExpiredVerifications() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	var deleted int64
	for id, v := range m.verifications {
		if !v.IsVerified && now.After(v.ExpiresAt) {
			delete(m.verifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// Verified-phone cache

func (m *MemoryStore) UpsertVerifiedPhone(phone, businessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	key := phoneBusinessKey(phone, businessID)
	if vp, ok := m.verifiedPhones[key]; ok {
		vp.VerifiedAt = now
		vp.LastUsedAt = now
		vp.IsActive = true
		return nil
	}
	m.verifiedPhones[key] = &models.VerifiedPhone{
		Phone:      phone,
		BusinessID: businessID,
		VerifiedAt: now,
		LastUsedAt: now,
		IsActive:   true,
	}
	return nil
}

func (m *MemoryStore) GetVerifiedPhone(phone, businessID string) (*models.VerifiedPhone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vp, ok := m.verifiedPhones[phoneBusinessKey(phone, businessID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *vp
	return &cp, nil
}

// Push subscriptions

func (m *MemoryStore) SaveBusinessSubscription(sub *models.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *sub
	m.businessSubs[sub.Endpoint] = &cp
	return nil
}

func (m *MemoryStore) SaveUserSubscription(sub *models.UserPushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *sub
	m.userSubs[sub.Endpoint] = &cp
	return nil
}

func (m *MemoryStore) GetBusinessSubscriptions(businessID string) ([]*models.PushSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var subs []*models.PushSubscription
	for _, sub := range m.businessSubs {
		if sub.BusinessID == businessID {
			cp := *sub
			subs = append(subs, &cp)
		}
	}
	return subs, nil
}

func (m *MemoryStore) GetUserSubscriptions(userID string) ([]*models.UserPushSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var subs []*models.UserPushSubscription
	for _, sub := range m.userSubs {
		if sub.UserID == userID {
			cp := *sub
			subs = append(subs, &cp)
		}
	}
	return subs, nil
}

func (m *MemoryStore) DeleteBusinessSubscriptions(endpoints []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ep := range endpoints {
		delete(m.businessSubs, ep)
	}
	return nil
}

func (m *MemoryStore) DeleteUserSubscriptions(endpoints []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ep := range endpoints {
		delete(m.userSubs, ep)
	}
	return nil
}

// Audit artifacts

func (m *MemoryStore) CreateNotification(n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n.ID = m.nextID()
	n.CreatedAt = m.nowFunc()
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *MemoryStore) CreateWhatsAppLog(l *models.WhatsAppMessageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.ID = m.nextID()
	l.CreatedAt = m.nowFunc()
	cp := *l
	m.whatsappLogs = append(m.whatsappLogs, &cp)
	return nil
}

// Notifications returns a snapshot of all notification records.
func (m *MemoryStore) Notifications() []*models.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// WhatsAppLogs returns a snapshot of all delivery log rows.
func (m *MemoryStore) WhatsAppLogs() []*models.WhatsAppMessageLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.WhatsAppMessageLog, len(m.whatsappLogs))
	copy(out, m.whatsappLogs)
	return out
}

// Collaborator records

// PutBusiness stores a business record (seed helper).
func (m *MemoryStore) PutBusiness(b *models.Business) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *b
	m.businesses[b.BusinessID] = &cp
}

// PutAppointment stores an appointment record (seed helper).
func (m *MemoryStore) PutAppointment(a *models.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.appointments[a.AppointmentID] = &cp
}

// AddFavorite links a user to a business they follow (seed helper).
func (m *MemoryStore) AddFavorite(userID, businessID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.favorites[businessID] = append(m.favorites[businessID], userID)
}

func (m *MemoryStore) GetBusiness(businessID string) (*models.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.businesses[businessID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) GetAppointment(appointmentID string) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.appointments[appointmentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) GetFavoriteUserIDs(businessID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.favorites[businessID]))
	copy(out, m.favorites[businessID])
	return out, nil
}

func (m *MemoryStore) ClaimAppointmentsForReminder(from, to time.Time) ([]*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var claimed []*models.Appointment
	for _, a := range m.appointments {
		if a.ReminderSent {
			continue
		}
		if a.Status != models.AppointmentStatusPending && a.Status != models.AppointmentStatusConfirmed {
			continue
		}
		if a.AppointmentAt.Before(from) || a.AppointmentAt.After(to) {
			continue
		}
		if a.CustomerUserID == nil && a.GuestPhone == "" {
			continue
		}
		a.ReminderSent = true
		cp := *a
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}
