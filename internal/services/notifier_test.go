package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

type pushCall struct {
	ownerKind string // "business" or "user"
	ownerID   string
	notifType string
	body      string
}

type recordingPusher struct {
	calls []pushCall
}

func (r *recordingPusher) SendToBusiness(businessID, title, body, notifType string, data map[string]interface{}) (PushResult, error) {
	r.calls = append(r.calls, pushCall{ownerKind: "business", ownerID: businessID, notifType: notifType, body: body})
	return PushResult{Sent: 1, Total: 1}, nil
}

func (r *recordingPusher) SendToUser(userID, title, body, notifType string, data map[string]interface{}) (PushResult, error) {
	r.calls = append(r.calls, pushCall{ownerKind: "user", ownerID: userID, notifType: notifType, body: body})
	return PushResult{Sent: 1, Total: 1}, nil
}

func newTestNotifier(whatsappEnabled bool, sender WhatsAppSender) (*NotifierService, *recordingPusher, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	store.PutBusiness(&models.Business{
		BusinessID:                   "B1",
		Name:                         "Salon Luna",
		OwnerUserID:                  "owner-1",
		WhatsAppNotificationsEnabled: whatsappEnabled,
	})
	pusher := &recordingPusher{}
	return NewNotifierService(store, pusher, sender), pusher, store
}

func guestAppointment() *models.Appointment {
	return &models.Appointment{
		AppointmentID: "A1",
		BusinessID:    "B1",
		GuestName:     "Ayşe",
		GuestPhone:    "05551234567",
		Services:      "Haircut, Manicure",
		AppointmentAt: time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC),
		Status:        models.AppointmentStatusPending,
	}
}

func TestNotifyNewAppointment(t *testing.T) {
	notifier, pusher, _ := newTestNotifier(false, &recordingSender{})

	notifier.NotifyNewAppointment(guestAppointment())

	require.Len(t, pusher.calls, 1)
	assert.Equal(t, "business", pusher.calls[0].ownerKind)
	assert.Equal(t, "B1", pusher.calls[0].ownerID)
	assert.Equal(t, models.NotificationTypeAppointment, pusher.calls[0].notifType)
	assert.Contains(t, pusher.calls[0].body, "Ayşe")
	assert.Contains(t, pusher.calls[0].body, "Haircut, Manicure")
}

func TestStatusConfirmedSendsWhatsAppWhenOptedIn(t *testing.T) {
	sender := &recordingSender{}
	notifier, _, _ := newTestNotifier(true, sender)

	notifier.NotifyAppointmentStatus(guestAppointment(), models.AppointmentStatusConfirmed)

	require.Len(t, sender.requests, 1)
	assert.Equal(t, models.WhatsAppTypeApproval, sender.requests[0].MessageType)
	assert.Equal(t, "A1", sender.requests[0].AppointmentID)
	assert.Contains(t, sender.requests[0].Message, "Salon Luna")
}

func TestStatusCancelledSendsWhatsAppWhenOptedIn(t *testing.T) {
	sender := &recordingSender{}
	notifier, _, _ := newTestNotifier(true, sender)

	notifier.NotifyAppointmentStatus(guestAppointment(), models.AppointmentStatusCancelled)

	require.Len(t, sender.requests, 1)
	assert.Equal(t, models.WhatsAppTypeCancellation, sender.requests[0].MessageType)
}

func TestWhatsAppSkippedWhenOptedOut(t *testing.T) {
	sender := &recordingSender{}
	notifier, _, _ := newTestNotifier(false, sender)

	notifier.NotifyAppointmentStatus(guestAppointment(), models.AppointmentStatusConfirmed)

	assert.Empty(t, sender.requests, "opted-out business must not trigger WhatsApp")
}

func TestWhatsAppFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{fail: true}
	notifier, _, _ := newTestNotifier(true, sender)

	// Must not panic or propagate: the domain operation already succeeded.
	notifier.NotifyAppointmentStatus(guestAppointment(), models.AppointmentStatusConfirmed)
	require.Len(t, sender.requests, 1)
}

func TestStatusChangePushesToRegisteredCustomer(t *testing.T) {
	notifier, pusher, _ := newTestNotifier(false, &recordingSender{})

	userID := "U1"
	appt := guestAppointment()
	appt.CustomerUserID = &userID
	notifier.NotifyAppointmentStatus(appt, models.AppointmentStatusConfirmed)

	require.Len(t, pusher.calls, 1)
	assert.Equal(t, "user", pusher.calls[0].ownerKind)
	assert.Equal(t, "U1", pusher.calls[0].ownerID)
	assert.Equal(t, models.NotificationTypeStatus, pusher.calls[0].notifType)
}

func TestSendAppointmentReminder(t *testing.T) {
	sender := &recordingSender{}
	notifier, pusher, _ := newTestNotifier(true, sender)

	userID := "U1"
	appt := guestAppointment()
	appt.CustomerUserID = &userID
	notifier.SendAppointmentReminder(appt)

	require.Len(t, pusher.calls, 1)
	assert.Equal(t, models.NotificationTypeReminder, pusher.calls[0].notifType)

	require.Len(t, sender.requests, 1)
	assert.Equal(t, models.WhatsAppTypeReminder, sender.requests[0].MessageType)
}

func TestNotifyBusinessApproval(t *testing.T) {
	notifier, pusher, _ := newTestNotifier(false, &recordingSender{})

	notifier.NotifyBusinessApproval(&models.Business{BusinessID: "B1", Name: "Salon Luna", OwnerUserID: "owner-1"})

	require.Len(t, pusher.calls, 1)
	assert.Equal(t, "user", pusher.calls[0].ownerKind)
	assert.Equal(t, "owner-1", pusher.calls[0].ownerID)
	assert.Equal(t, models.NotificationTypeApproval, pusher.calls[0].notifType)
}

func TestNotifyFavoriteBusinessUpdate(t *testing.T) {
	notifier, pusher, store := newTestNotifier(false, &recordingSender{})
	store.AddFavorite("U1", "B1")
	store.AddFavorite("U2", "B1")

	notifier.NotifyFavoriteBusinessUpdate("B1", "New autumn discounts!")

	require.Len(t, pusher.calls, 2)
	for _, call := range pusher.calls {
		assert.Equal(t, "user", call.ownerKind)
		assert.Equal(t, models.NotificationTypeFavorite, call.notifType)
		assert.Contains(t, call.body, "New autumn discounts!")
	}
}

func TestNotifyReviewAndSystemMessage(t *testing.T) {
	notifier, pusher, _ := newTestNotifier(false, &recordingSender{})

	notifier.NotifyReview("B1", "Mehmet", 5)
	notifier.SendSystemMessage("U1", "Welcome to Rezervo!")

	require.Len(t, pusher.calls, 2)
	assert.Equal(t, models.NotificationTypeReview, pusher.calls[0].notifType)
	assert.Contains(t, pusher.calls[0].body, "5-star")
	assert.Equal(t, models.NotificationTypeSystem, pusher.calls[1].notifType)
}
