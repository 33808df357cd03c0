package jobs

import (
	"log"
	"time"
)

// DefaultSweepInterval is how often expired verifications are reaped.
const DefaultSweepInterval = time.Hour

// ExpiredSweeper is the verification service as the sweep job sees it.
type ExpiredSweeper interface {
	CleanupExpired() (int64, error)
}

// CleanupJob reaps expired, unverified OTP rows on an interval. The sweep
// is idempotent, so overlapping runs are harmless.
type CleanupJob struct {
	sweeper  ExpiredSweeper
	interval time.Duration
	stop     chan struct{}
}

// NewCleanupJob creates the expired-OTP sweep job.
func NewCleanupJob(sweeper ExpiredSweeper) *CleanupJob {
	return &CleanupJob{
		sweeper:  sweeper,
		interval: DefaultSweepInterval,
		stop:     make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (j *CleanupJob) Start() {
	log.Printf("Starting expired verification sweep (every %v)", j.interval)
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := j.sweeper.CleanupExpired(); err != nil {
					log.Printf("Verification sweep failed: %v", err)
				}
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop.
func (j *CleanupJob) Stop() {
	close(j.stop)
	log.Println("Stopped expired verification sweep")
}
