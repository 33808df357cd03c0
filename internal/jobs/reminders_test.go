package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

type recordingDispatcher struct {
	reminded []string
}

func (r *recordingDispatcher) SendAppointmentReminder(appt *models.Appointment) {
	r.reminded = append(r.reminded, appt.AppointmentID)
}

func seedAppointment(store *storage.MemoryStore, id string, at time.Time, status string) {
	store.PutAppointment(&models.Appointment{
		AppointmentID: id,
		BusinessID:    "B1",
		GuestPhone:    "905551234567",
		AppointmentAt: at,
		Status:        status,
	})
}

func TestRunOnceClaimsUpcomingAppointments(t *testing.T) {
	store := storage.NewMemoryStore()
	dispatcher := &recordingDispatcher{}
	job := NewReminderJob(store, dispatcher)

	now := time.Now()
	seedAppointment(store, "soon-confirmed", now.Add(time.Hour), models.AppointmentStatusConfirmed)
	seedAppointment(store, "soon-pending", now.Add(90*time.Minute), models.AppointmentStatusPending)
	seedAppointment(store, "too-far", now.Add(ReminderLookahead+time.Hour), models.AppointmentStatusConfirmed)
	seedAppointment(store, "already-past", now.Add(-time.Hour), models.AppointmentStatusConfirmed)
	seedAppointment(store, "cancelled", now.Add(time.Hour), models.AppointmentStatusCancelled)

	claimed := job.RunOnce()
	assert.Equal(t, 2, claimed)
	assert.ElementsMatch(t, []string{"soon-confirmed", "soon-pending"}, dispatcher.reminded)
}

func TestRunOnceIsExactlyOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	dispatcher := &recordingDispatcher{}
	job := NewReminderJob(store, dispatcher)

	seedAppointment(store, "A1", time.Now().Add(time.Hour), models.AppointmentStatusConfirmed)

	assert.Equal(t, 1, job.RunOnce())
	// The claim is persisted, so a later scan finds nothing to do.
	assert.Equal(t, 0, job.RunOnce())
	assert.Equal(t, []string{"A1"}, dispatcher.reminded)

	appt, err := store.GetAppointment("A1")
	require.NoError(t, err)
	assert.True(t, appt.ReminderSent)
}

func TestRunOnceSkipsAppointmentsWithoutContact(t *testing.T) {
	store := storage.NewMemoryStore()
	dispatcher := &recordingDispatcher{}
	job := NewReminderJob(store, dispatcher)

	// No customer user and no guest phone: nobody to remind.
	store.PutAppointment(&models.Appointment{
		AppointmentID: "walk-in",
		BusinessID:    "B1",
		AppointmentAt: time.Now().Add(time.Hour),
		Status:        models.AppointmentStatusConfirmed,
	})

	assert.Equal(t, 0, job.RunOnce())
	assert.Empty(t, dispatcher.reminded)
}
