package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rezervo-app/rezervo-backend/internal/metrics"
	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
	"github.com/rezervo-app/rezervo-backend/internal/utils"
)

// DefaultResendCooldown is the server-side floor between two OTP sends for
// the same (phone, business, purpose). Matches the UI countdown.
const DefaultResendCooldown = 60 * time.Second

// WhatsAppSender is the delivery dependency of the verification service,
// satisfied by WhatsAppService and by fakes in tests.
type WhatsAppSender interface {
	SendMessage(req SendRequest) SendResult
}

// CreateOTPResult is the outcome of an OTP send request.
type CreateOTPResult struct {
	AlreadyVerified bool
	VerificationID  string
	ExpiresAt       time.Time
}

// VerifyOTPResult carries the remaining attempts on a code mismatch.
type VerifyOTPResult struct {
	Success           bool
	AttemptsRemaining int
}

// VerificationService owns the OTP state machine: issue, verify, cache,
// sweep. It is the only write path into the verified-phone cache.
type VerificationService struct {
	store          storage.Store
	whatsapp       WhatsAppSender
	metrics        *metrics.Metrics
	resendCooldown time.Duration
	now            func() time.Time
}

// NewVerificationService creates a verification service.
func NewVerificationService(store storage.Store, whatsapp WhatsAppSender, m *metrics.Metrics) *VerificationService {
	return &VerificationService{
		store:          store,
		whatsapp:       whatsapp,
		metrics:        m,
		resendCooldown: DefaultResendCooldown,
		now:            time.Now,
	}
}

// CreateOTP issues a fresh 6-digit code for (phone, business, purpose) and
// delivers it over WhatsApp. Phones already verified for the business
// short-circuit without issuing a code or sending a message. Any prior
// unverified code for the same key is superseded.
func (s *VerificationService) CreateOTP(phone, businessID, userType string) (*CreateOTPResult, error) {
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	if businessID == "" {
		return nil, ErrMissingBusiness
	}
	if userType == "" {
		userType = models.PurposeGuestAppointment
	}

	canonical := utils.NormalizePhone(phone, utils.CountryCode())

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	v := &models.PhoneVerification{
		Phone:       canonical,
		Code:        code,
		UserType:    userType,
		BusinessID:  businessID,
		ExpiresAt:   s.now().Add(models.DefaultOTPTTL),
		MaxAttempts: models.DefaultMaxAttempts,
	}

	err = s.store.ReplaceActiveVerification(v, s.resendCooldown)
	switch {
	case errors.Is(err, storage.ErrPhoneAlreadyVerified):
		s.countIssue("already_verified")
		return &CreateOTPResult{AlreadyVerified: true}, nil
	case errors.Is(err, storage.ErrResendCooldown):
		s.countIssue("cooldown")
		return nil, ErrResendCooldown
	case err != nil:
		return nil, fmt.Errorf("failed to store verification: %w", err)
	}

	businessName := "Rezervo"
	if business, err := s.store.GetBusiness(businessID); err == nil {
		businessName = business.Name
	}

	result := s.whatsapp.SendMessage(SendRequest{
		To:          canonical,
		Message:     OTPMessage(code, businessName),
		MessageType: models.WhatsAppTypeOTP,
		BusinessID:  businessID,
	})
	if !result.Success {
		// The row stays persisted and simply ages out; degraded, not
		// rolled back.
		s.countIssue("delivery_failed")
		return nil, ErrDeliveryFailed
	}

	s.countIssue("issued")
	return &CreateOTPResult{VerificationID: v.VerificationID, ExpiresAt: v.ExpiresAt}, nil
}

// VerifyOTP checks a submitted code against the active verification. A
// match transitions the row to its terminal verified state exactly once and
// refreshes the verified-phone cache. A mismatch burns one attempt.
func (s *VerificationService) VerifyOTP(verificationID, code string) (*VerifyOTPResult, error) {
	if !isSixDigits(code) {
		return nil, ErrInvalidCode
	}

	v, err := s.store.GetVerification(verificationID)
	if errors.Is(err, storage.ErrNotFound) {
		s.countVerify("not_found")
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	if v.IsVerified {
		s.countVerify("not_found")
		return nil, ErrCodeNotFound
	}
	if v.Expired(s.now()) {
		s.countVerify("expired")
		return nil, ErrCodeExpired
	}
	if v.Exhausted() {
		s.countVerify("exhausted")
		return nil, ErrTooManyAttempts
	}

	if code != v.Code {
		attempts, err := s.store.IncrementAttempts(verificationID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		if errors.Is(err, storage.ErrNoAttemptsLeft) {
			// A concurrent verify burned the last attempt first.
			s.countVerify("exhausted")
			return &VerifyOTPResult{AttemptsRemaining: 0}, ErrTooManyAttempts
		}
		if err != nil {
			return nil, err
		}
		remaining := v.MaxAttempts - attempts
		if remaining <= 0 {
			s.countVerify("exhausted")
			return &VerifyOTPResult{AttemptsRemaining: 0}, ErrTooManyAttempts
		}
		s.countVerify("mismatch")
		return &VerifyOTPResult{AttemptsRemaining: remaining}, ErrCodeMismatch
	}

	claimed, err := s.store.MarkVerified(verificationID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the race: the row was verified, expired, or exhausted
		// between the read and the conditional update.
		s.countVerify("not_found")
		return nil, ErrCodeNotFound
	}

	if err := s.store.UpsertVerifiedPhone(v.Phone, v.BusinessID); err != nil {
		return nil, fmt.Errorf("failed to cache verified phone: %w", err)
	}

	s.countVerify("success")
	return &VerifyOTPResult{Success: true}, nil
}

// IsPhoneVerified is the read-only cache lookup used to gate booking flows.
func (s *VerificationService) IsPhoneVerified(phone, businessID string) (bool, *models.VerifiedPhone) {
	canonical := utils.NormalizePhone(phone, utils.CountryCode())
	vp, err := s.store.GetVerifiedPhone(canonical, businessID)
	if err != nil || !vp.IsActive {
		return false, nil
	}
	return true, vp
}

// CleanupExpired deletes unverified rows past their expiry. Safe to run
// repeatedly and concurrently.
func (s *VerificationService) CleanupExpired() (int64, error) {
	deleted, err := s.store.DeleteExpiredVerifications()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("🧹 Removed %d expired phone verifications", deleted)
	}
	return deleted, nil
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *VerificationService) countIssue(outcome string) {
	if s.metrics != nil {
		s.metrics.OTPIssued.WithLabelValues(outcome).Inc()
	}
}

func (s *VerificationService) countVerify(outcome string) {
	if s.metrics != nil {
		s.metrics.OTPVerifications.WithLabelValues(outcome).Inc()
	}
}
