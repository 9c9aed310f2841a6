// Package cleanup removes images of deleted or replaced records in the
// background.
package cleanup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"arcade-inventory-backend/internal/blob"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 2 * time.Second
)

// WorkerPool manages a pool of workers deleting blobs by URL.
type WorkerPool struct {
	size       int
	jobs       chan string
	blobs      blob.Store
	log        *zap.Logger
	attempts   int
	retryDelay time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. queue bounds how many deletions
// may wait; beyond that Dispatch deletes inline.
func NewWorkerPool(size, queue int, blobs blob.Store, log *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{
		size:       size,
		jobs:       make(chan string, queue),
		blobs:      blobs,
		log:        log,
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
	}
}

// SetRetry overrides how often and how far apart a failed delete is retried.
func (wp *WorkerPool) SetRetry(attempts int, delay time.Duration) {
	wp.attempts = attempts
	wp.retryDelay = delay
}

// Start launches the worker goroutines. They run until Stop.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := wp.log.With(zap.Int("worker", id))
	log.Debug("cleanup worker started")
	for url := range wp.jobs {
		wp.remove(ctx, url)
	}
	log.Debug("cleanup worker stopped")
}

// Dispatch queues the image at url for deletion. Empty and foreign URLs are
// ignored by the workers.
func (wp *WorkerPool) Dispatch(url string) {
	if url == "" {
		return
	}
	wp.mu.Lock()
	queued := false
	if !wp.closed {
		select {
		case wp.jobs <- url:
			queued = true
		default:
		}
	}
	wp.mu.Unlock()
	if queued {
		return
	}
	// The lock only guards the send; inline deletes may run concurrently.
	wp.log.Warn("cleanup queue unavailable; deleting inline", zap.String("url", url))
	wp.remove(context.Background(), url)
}

// Stop stops accepting work and waits for queued deletions to finish.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.jobs)
	}
	wp.mu.Unlock()
	wp.wg.Wait()
}

func (wp *WorkerPool) remove(ctx context.Context, url string) {
	key, ok := wp.blobs.KeyFromURL(url)
	if !ok {
		wp.log.Debug("image url not managed by this store; leaving it", zap.String("url", url))
		return
	}
	for attempt := 1; ; attempt++ {
		err := wp.blobs.Delete(ctx, key)
		if err == nil {
			wp.log.Info("image deleted", zap.String("key", key))
			return
		}
		if attempt >= wp.attempts {
			wp.log.Error("giving up on image delete", zap.String("key", key), zap.Int("attempts", attempt), zap.Error(err))
			return
		}
		wp.log.Warn("image delete failed; retrying", zap.String("key", key), zap.Error(err))
		select {
		case <-time.After(wp.retryDelay):
		case <-ctx.Done():
			return
		}
	}
}
