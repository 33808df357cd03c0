package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezervo-app/rezervo-backend/internal/models"
)

func activeVerification(phone string) *models.PhoneVerification {
	return &models.PhoneVerification{
		Phone:       phone,
		Code:        "123456",
		UserType:    models.PurposeGuestAppointment,
		BusinessID:  "B1",
		ExpiresAt:   time.Now().Add(models.DefaultOTPTTL),
		MaxAttempts: models.DefaultMaxAttempts,
	}
}

func TestMarkVerifiedIsConditional(t *testing.T) {
	store := NewMemoryStore()

	v := activeVerification("905551234567")
	require.NoError(t, store.ReplaceActiveVerification(v, 0))

	claimed, err := store.MarkVerified(v.VerificationID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim on the same row loses.
	claimed, err = store.MarkVerified(v.VerificationID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMarkVerifiedRefusesExpiredRow(t *testing.T) {
	store := NewMemoryStore()

	v := activeVerification("905551234567")
	v.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.ReplaceActiveVerification(v, 0))

	claimed, err := store.MarkVerified(v.VerificationID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMarkVerifiedRefusesExhaustedRow(t *testing.T) {
	store := NewMemoryStore()

	v := activeVerification("905551234567")
	require.NoError(t, store.ReplaceActiveVerification(v, 0))
	for i := 0; i < models.DefaultMaxAttempts; i++ {
		_, err := store.IncrementAttempts(v.VerificationID)
		require.NoError(t, err)
	}

	claimed, err := store.MarkVerified(v.VerificationID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestIncrementAttemptsStopsAtCap(t *testing.T) {
	store := NewMemoryStore()

	v := activeVerification("905551234567")
	require.NoError(t, store.ReplaceActiveVerification(v, 0))

	for i := 1; i <= models.DefaultMaxAttempts; i++ {
		n, err := store.IncrementAttempts(v.VerificationID)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	// Further increments are refused and the counter holds at the cap.
	n, err := store.IncrementAttempts(v.VerificationID)
	assert.ErrorIs(t, err, ErrNoAttemptsLeft)
	assert.Equal(t, models.DefaultMaxAttempts, n)

	stored, err := store.GetVerification(v.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxAttempts, stored.Attempts)
}

func TestIncrementAttemptsSkipsVerifiedRow(t *testing.T) {
	store := NewMemoryStore()

	v := activeVerification("905551234567")
	require.NoError(t, store.ReplaceActiveVerification(v, 0))
	_, err := store.MarkVerified(v.VerificationID)
	require.NoError(t, err)

	_, err = store.IncrementAttempts(v.VerificationID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceActiveKeepsVerifiedRows(t *testing.T) {
	store := NewMemoryStore()

	// A verified row for a different purpose must survive a replace for
	// the unverified one.
	first := activeVerification("905551234567")
	require.NoError(t, store.ReplaceActiveVerification(first, 0))
	_, err := store.MarkVerified(first.VerificationID)
	require.NoError(t, err)

	// Verifying populated the cache path separately; the raw row is kept
	// because only unverified rows are superseded.
	second := activeVerification("905551234567")
	second.UserType = models.PurposeRegistration
	require.NoError(t, store.ReplaceActiveVerification(second, 0))

	_, err = store.GetVerification(first.VerificationID)
	assert.NoError(t, err)
}

func TestSubscriptionUpsertByEndpoint(t *testing.T) {
	store := NewMemoryStore()

	const endpoint = "https://push.example.com/device-1"
	require.NoError(t, store.SaveBusinessSubscription(&models.PushSubscription{
		BusinessID: "B1",
		Endpoint:   endpoint,
		P256dh:     "old-key",
		Auth:       "old-auth",
	}))

	// Re-registering the same endpoint replaces the row instead of
	// accumulating duplicates.
	require.NoError(t, store.SaveBusinessSubscription(&models.PushSubscription{
		BusinessID: "B2",
		Endpoint:   endpoint,
		P256dh:     "new-key",
		Auth:       "new-auth",
	}))

	old, err := store.GetBusinessSubscriptions("B1")
	require.NoError(t, err)
	assert.Empty(t, old)

	current, err := store.GetBusinessSubscriptions("B2")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "new-key", current[0].P256dh)
}

func TestUpsertVerifiedPhoneRefreshes(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.UpsertVerifiedPhone("905551234567", "B1"))
	vp, err := store.GetVerifiedPhone("905551234567", "B1")
	require.NoError(t, err)
	firstSeen := vp.VerifiedAt

	require.NoError(t, store.UpsertVerifiedPhone("905551234567", "B1"))
	vp, err = store.GetVerifiedPhone("905551234567", "B1")
	require.NoError(t, err)
	assert.True(t, vp.IsActive)
	assert.False(t, vp.VerifiedAt.Before(firstSeen))

	_, err = store.GetVerifiedPhone("905551234567", "B2")
	assert.ErrorIs(t, err, ErrNotFound)
}
