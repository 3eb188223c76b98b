package workers

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenphotos/photosharebackend/repository"
)

// SessionSweepResult summarizes one guest-session cleanup pass.
type SessionSweepResult struct {
	ExpiredRemoved  int64
	OrphanedRemoved int64
	ActiveRemaining int64
}

// AuditSweepResult summarizes one retention cleanup pass.
type AuditSweepResult struct {
	EventsRemoved    int64
	ShortURLsRemoved int64
}

// CleanupWorker periodically purges expired and orphaned guest sessions, audit
// events past retention, and lapsed short URLs. The two sweeps run on
// independent schedules; a failure in one pass never blocks the others, and
// deletions are idempotent so the worker tolerates running alongside live
// traffic and owner revocations.
type CleanupWorker struct {
	SessionRepo  repository.GuestSessionRepositoryInterface
	EventRepo    repository.ViewEventRepositoryInterface
	ShortURLRepo repository.ShortURLRepositoryInterface

	SessionInterval time.Duration
	AuditInterval   time.Duration
	AuditRetention  time.Duration

	Wg       sync.WaitGroup
	StopChan chan struct{}
}

// NewCleanupWorker creates a stopped worker; call Start to begin sweeping.
func NewCleanupWorker(
	sessionRepo repository.GuestSessionRepositoryInterface,
	eventRepo repository.ViewEventRepositoryInterface,
	shortURLRepo repository.ShortURLRepositoryInterface,
	sessionInterval, auditInterval, auditRetention time.Duration,
) *CleanupWorker {
	return &CleanupWorker{
		SessionRepo:     sessionRepo,
		EventRepo:       eventRepo,
		ShortURLRepo:    shortURLRepo,
		SessionInterval: sessionInterval,
		AuditInterval:   auditInterval,
		AuditRetention:  auditRetention,
		StopChan:        make(chan struct{}),
	}
}

// Start launches the session and audit sweep loops.
func (cw *CleanupWorker) Start() {
	cw.Wg.Add(2)
	go cw.sessionLoop()
	go cw.auditLoop()
	log.Printf("started cleanup worker (sessions every %v, audit every %v)", cw.SessionInterval, cw.AuditInterval)
}

func (cw *CleanupWorker) sessionLoop() {
	defer cw.Wg.Done()
	ticker := time.NewTicker(cw.SessionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cw.SweepSessions()
		case <-cw.StopChan:
			log.Println("cleanup worker: session sweep loop stopping")
			return
		}
	}
}

func (cw *CleanupWorker) auditLoop() {
	defer cw.Wg.Done()
	ticker := time.NewTicker(cw.AuditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cw.SweepAudit()
		case <-cw.StopChan:
			log.Println("cleanup worker: audit sweep loop stopping")
			return
		}
	}
}

// SweepSessions deletes expired guest sessions, then orphaned ones. Each
// deletion is attempted even if the previous failed.
func (cw *CleanupWorker) SweepSessions() SessionSweepResult {
	runID := uuid.New().String()
	log.Printf("cleanup run %s: sweeping guest sessions", runID)

	var result SessionSweepResult

	expired, err := cw.SessionRepo.DeleteExpired()
	if err != nil {
		log.Printf("cleanup run %s: ERROR deleting expired sessions: %v", runID, err)
	} else {
		result.ExpiredRemoved = expired
	}

	orphaned, err := cw.SessionRepo.DeleteOrphaned()
	if err != nil {
		log.Printf("cleanup run %s: ERROR deleting orphaned sessions: %v", runID, err)
	} else {
		result.OrphanedRemoved = orphaned
	}

	active, err := cw.SessionRepo.CountActive()
	if err != nil {
		log.Printf("cleanup run %s: ERROR counting active sessions: %v", runID, err)
	} else {
		result.ActiveRemaining = active
	}

	log.Printf("cleanup run %s: removed %d expired and %d orphaned sessions, %d active remaining",
		runID, result.ExpiredRemoved, result.OrphanedRemoved, result.ActiveRemaining)
	return result
}

// SweepAudit prunes audit events past the retention window and expired short URLs.
func (cw *CleanupWorker) SweepAudit() AuditSweepResult {
	runID := uuid.New().String()
	cutoff := time.Now().Add(-cw.AuditRetention)
	log.Printf("cleanup run %s: sweeping audit events older than %v", runID, cutoff)

	var result AuditSweepResult

	removed, err := cw.EventRepo.DeleteOlderThan(cutoff)
	if err != nil {
		log.Printf("cleanup run %s: ERROR deleting old view events: %v", runID, err)
	} else {
		result.EventsRemoved = removed
	}

	shortURLs, err := cw.ShortURLRepo.DeleteExpired()
	if err != nil {
		log.Printf("cleanup run %s: ERROR deleting expired short URLs: %v", runID, err)
	} else {
		result.ShortURLsRemoved = shortURLs
	}

	log.Printf("cleanup run %s: removed %d old view events and %d expired short URLs",
		runID, result.EventsRemoved, result.ShortURLsRemoved)
	return result
}

// Stop signals both loops and waits for them to exit.
func (cw *CleanupWorker) Stop() {
	log.Println("stopping cleanup worker...")
	close(cw.StopChan)
	cw.Wg.Wait()
	log.Println("cleanup worker stopped")
}
