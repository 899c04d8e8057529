package services

import (
	"log"
	"sync"
	"time"

	"interview-coach/internal/repositories"
)

// Janitor sweeps expired sessions out of the in-memory store so
// abandoned interviews and quizzes do not accumulate for the life of
// the process.
type Janitor interface {
	Start()
	Stop()
}

type janitor struct {
	sessionRepo repositories.SessionRepository
	ttl         time.Duration
	interval    time.Duration
	wg          sync.WaitGroup
	stopChan    chan struct{}
}

func NewJanitor(sessionRepo repositories.SessionRepository, ttl, interval time.Duration) Janitor {
	return &janitor{
		sessionRepo: sessionRepo,
		ttl:         ttl,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Janitor.
func (j *janitor) Start() {
	j.wg.Add(1)
	go j.sweepLoop()
}

// Stop implements Janitor.
func (j *janitor) Stop() {
	close(j.stopChan)
	j.wg.Wait()
}

func (j *janitor) sweepLoop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			if removed := j.sessionRepo.DeleteExpired(time.Now().Add(-j.ttl)); removed > 0 {
				log.Printf("🧹 Removed %d expired sessions", removed)
			}
		}
	}
}
