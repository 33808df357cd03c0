package jobs

import (
	"log"
	"time"

	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

// ReminderLookahead is how far ahead the scanner looks for appointments.
const ReminderLookahead = 2 * time.Hour

// DefaultScanInterval is how often the scanner wakes up.
const DefaultScanInterval = 5 * time.Minute

// ReminderDispatcher is the orchestrator as the scanner sees it.
type ReminderDispatcher interface {
	SendAppointmentReminder(appt *models.Appointment)
}

// ReminderJob periodically claims upcoming appointments and triggers a
// reminder exactly once per appointment. The claim happens atomically in
// storage, so overlapping scans can never double-send.
type ReminderJob struct {
	store    storage.Store
	notifier ReminderDispatcher
	interval time.Duration
	stop     chan struct{}
}

// NewReminderJob creates a reminder scanner.
func NewReminderJob(store storage.Store, notifier ReminderDispatcher) *ReminderJob {
	return &ReminderJob{
		store:    store,
		notifier: notifier,
		interval: DefaultScanInterval,
		stop:     make(chan struct{}),
	}
}

// Start begins the scan loop.
func (j *ReminderJob) Start() {
	log.Printf("Starting appointment reminder scanner (every %v)", j.interval)
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.RunOnce()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the scan loop.
func (j *ReminderJob) Stop() {
	close(j.stop)
	log.Println("Stopped appointment reminder scanner")
}

// RunOnce claims every appointment starting within the look-ahead window
// and dispatches a reminder per claimed row. Returns how many were claimed.
func (j *ReminderJob) RunOnce() int {
	now := time.Now()
	claimed, err := j.store.ClaimAppointmentsForReminder(now, now.Add(ReminderLookahead))
	if err != nil {
		log.Printf("Reminder scan failed: %v", err)
		return 0
	}

	for _, appt := range claimed {
		j.notifier.SendAppointmentReminder(appt)
	}

	if len(claimed) > 0 {
		log.Printf("Appointment reminders dispatched: %d", len(claimed))
	}
	return len(claimed)
}
