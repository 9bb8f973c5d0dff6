package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/repository"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
)

const (
	// DefaultQueueSize bounds how many records wait for the store.
	DefaultQueueSize = 100
	// InsertTimeout caps a single remote insert.
	InsertTimeout = 5 * time.Second
)

// ErrRemoteStoreWrite marks a failed best-effort insert.
var ErrRemoteStoreWrite = errors.New("remote store write failed")

// Writer forwards detection records to the remote store from a single
// worker goroutine. It never blocks the caller and never retries.
type Writer struct {
	repo    repository.PedestrianRepository
	logger  *logger.Logger
	metrics *metrics.Metrics

	queue  chan model.DetectionRecord
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewWriter creates a writer and starts its worker.
func NewWriter(repo repository.PedestrianRepository, queueSize int, logger *logger.Logger, metrics *metrics.Metrics) *Writer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	w := &Writer{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan model.DetectionRecord, queueSize),
	}

	w.wg.Add(1)
	go w.worker()

	w.logger.Info("💾 Remote store writer started (queue %d)", queueSize)
	return w
}

// Enqueue offers records to the store. Records that do not fit in the
// queue are dropped.
func (w *Writer) Enqueue(records []model.DetectionRecord) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	for _, rec := range records {
		select {
		case w.queue <- rec:
		default:
			w.metrics.StoreDropped.Inc()
			w.logger.Warning("⚠️  Store queue full - dropping record %s", rec.ID)
		}
	}
}

// Close stops accepting records, drains the queue and waits for the worker.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Writer) worker() {
	defer w.wg.Done()

	for rec := range w.queue {
		if err := w.write(rec); err != nil {
			w.metrics.StoreFailures.Inc()
			w.logger.Error("%v", err)
			continue
		}
		w.metrics.StoreWrites.Inc()
	}

	w.logger.Info("💾 Remote store writer stopped")
}

func (w *Writer) write(rec model.DetectionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), InsertTimeout)
	defer cancel()

	if err := w.repo.Insert(ctx, &rec); err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteStoreWrite, err)
	}
	return nil
}
