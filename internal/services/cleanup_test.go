package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingDeleter struct {
	mu      sync.Mutex
	deleted []string
	release chan struct{}
	err     error
}

func (d *recordingDeleter) DeleteByURL(ctx context.Context, url string) error {
	if d.release != nil {
		<-d.release
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, url)
	return d.err
}

func TestCleanupService_DeletesScheduledDocuments(t *testing.T) {
	deleter := &recordingDeleter{}
	svc := NewCleanupService(deleter, 2, 10)
	svc.Start()

	for _, url := range []string{"/uploads/a.pdf", "/uploads/b.pdf", "/uploads/c.pdf"} {
		assert.NoError(t, svc.ScheduleDelete("s", url))
	}
	svc.Shutdown()

	assert.ElementsMatch(t, []string{"/uploads/a.pdf", "/uploads/b.pdf", "/uploads/c.pdf"}, deleter.deleted)
}

func TestCleanupService_FailuresAreNotRetried(t *testing.T) {
	deleter := &recordingDeleter{err: errors.New("gone wrong")}
	svc := NewCleanupService(deleter, 1, 10)
	svc.Start()

	assert.NoError(t, svc.ScheduleDelete("s", "/uploads/a.pdf"))
	svc.Shutdown()

	assert.Equal(t, []string{"/uploads/a.pdf"}, deleter.deleted)
}

func TestCleanupService_FullQueueDoesNotBlock(t *testing.T) {
	deleter := &recordingDeleter{release: make(chan struct{})}
	svc := NewCleanupService(deleter, 1, 1)

	// No workers yet, so the single slot fills up.
	assert.NoError(t, svc.ScheduleDelete("s1", "/uploads/a.pdf"))
	assert.ErrorIs(t, svc.ScheduleDelete("s2", "/uploads/b.pdf"), ErrCleanupQueueFull)
	assert.Equal(t, 1, svc.GetQueueLength())

	svc.Start()
	close(deleter.release)
	svc.Shutdown()

	assert.ErrorIs(t, svc.ScheduleDelete("s3", "/uploads/c.pdf"), ErrShuttingDown)
	assert.Equal(t, []string{"/uploads/a.pdf"}, deleter.deleted)
}
