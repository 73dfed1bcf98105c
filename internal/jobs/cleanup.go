package jobs

import (
	"log"
	"time"

	"github.com/erpcore/chatbot-backend/internal/services"
)

// CleanupJob periodically evicts idle chat sessions from backings that do not
// expire entries on their own.
type CleanupJob struct {
	sessions  services.SessionStore
	interval  time.Duration
	stop      chan struct{}
	isRunning bool
}

// NewCleanupJob creates a new session cleanup job
func NewCleanupJob(sessions services.SessionStore, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the periodic sweep. It is a no-op for backings that expire
// sessions natively (Redis).
func (j *CleanupJob) Start() {
	expiring, ok := j.sessions.(services.ExpiringSessionStore)
	if !ok {
		log.Println("Session backend expires entries natively, cleanup job not needed")
		return
	}
	if j.isRunning {
		log.Println("Session cleanup job already running")
		return
	}
	j.isRunning = true
	log.Printf("Starting session cleanup job (every %s)", j.interval)

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed, err := expiring.CleanupExpired()
				if err != nil {
					log.Printf("Session cleanup failed: %v", err)
					continue
				}
				if removed > 0 {
					log.Printf("Cleaned up %d expired sessions", removed)
				}
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep
func (j *CleanupJob) Stop() {
	if !j.isRunning {
		return
	}
	j.isRunning = false
	close(j.stop)
}
