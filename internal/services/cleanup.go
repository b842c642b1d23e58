package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"pdf-coview/internal/metrics"
)

var (
	ErrCleanupQueueFull = errors.New("cleanup queue is full")
	ErrShuttingDown     = errors.New("service is shutting down")
)

const cleanupTimeout = 30 * time.Second

// CleanupJob is one document to delete after its session ended.
type CleanupJob struct {
	SessionID   string
	DocumentURL string
}

// CleanupServiceImpl deletes documents of terminated sessions on a small
// worker pool so the session loop never waits on storage I/O. Deletion is
// best effort: failures are logged and counted, never retried.
type CleanupServiceImpl struct {
	deleter DocumentDeleter

	jobs    chan CleanupJob
	workers int
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewCleanupService creates the pool. Call Start to spawn workers.
func NewCleanupService(deleter DocumentDeleter, numWorkers, queueSize int) *CleanupServiceImpl {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &CleanupServiceImpl{
		deleter: deleter,
		jobs:    make(chan CleanupJob, queueSize),
		workers: numWorkers,
	}
}

// Start spawns the workers.
func (s *CleanupServiceImpl) Start() {
	log.Printf("🔧 Starting document cleanup pool with %d workers", s.workers)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *CleanupServiceImpl) worker(id int) {
	defer s.wg.Done()

	for job := range s.jobs {
		if err := s.process(job); err != nil {
			log.Printf("  Cleanup worker %d: failed to delete %s (session %s): %v", id, job.DocumentURL, job.SessionID, err)
		}
	}
}

func (s *CleanupServiceImpl) process(job CleanupJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.deleter.DeleteByURL(ctx, job.DocumentURL); err != nil {
		metrics.BlobDeletes.WithLabelValues("failed").Inc()
		return err
	}
	metrics.BlobDeletes.WithLabelValues("deleted").Inc()
	return nil
}

// ScheduleDelete queues deletion of documentURL without blocking.
func (s *CleanupServiceImpl) ScheduleDelete(sessionID, documentURL string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrShuttingDown
	}

	select {
	case s.jobs <- CleanupJob{SessionID: sessionID, DocumentURL: documentURL}:
		return nil
	default:
		metrics.BlobDeletes.WithLabelValues("dropped").Inc()
		return ErrCleanupQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (s *CleanupServiceImpl) Shutdown() {
	log.Printf("🛑 Shutting down document cleanup pool (%d job(s) queued)...", s.GetQueueLength())

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	s.wg.Wait()

	log.Println("✓ Document cleanup pool shutdown complete")
}

// GetQueueLength returns current number of pending jobs
func (s *CleanupServiceImpl) GetQueueLength() int {
	return len(s.jobs)
}
