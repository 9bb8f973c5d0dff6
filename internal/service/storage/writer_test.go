package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
)

const (
	waitFor   = time.Second
	pollEvery = 5 * time.Millisecond
)

type fakeRepo struct {
	mu       sync.Mutex
	inserted []string
	failIDs  map[string]bool
	block    chan struct{}
}

func (f *fakeRepo) Insert(ctx context.Context, rec *model.DetectionRecord) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[rec.ID] {
		return errors.New("network unreachable")
	}
	f.inserted = append(f.inserted, rec.ID)
	return nil
}

func (f *fakeRepo) ListBySession(ctx context.Context, sessionID string) ([]model.DetectionRecord, error) {
	return nil, nil
}

func (f *fakeRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	return 0, nil
}

func (f *fakeRepo) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inserted...)
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { l.Close() })
	return l
}

func records(n int) []model.DetectionRecord {
	out := make([]model.DetectionRecord, n)
	for i := range out {
		out[i] = model.DetectionRecord{ID: fmt.Sprintf("ped_%d", i), RiskLevel: model.RiskLow}
	}
	return out
}

func TestWriter_WritesEveryRecord(t *testing.T) {
	repo := &fakeRepo{}
	m := metrics.New()
	w := NewWriter(repo, 10, newTestLogger(t), m)

	w.Enqueue(records(3))
	w.Close()

	assert.Equal(t, []string{"ped_0", "ped_1", "ped_2"}, repo.ids())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StoreWrites))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoreFailures))
}

func TestWriter_FailuresAreCountedNotRetried(t *testing.T) {
	repo := &fakeRepo{failIDs: map[string]bool{"ped_1": true}}
	m := metrics.New()
	w := NewWriter(repo, 10, newTestLogger(t), m)

	w.Enqueue(records(3))
	w.Close()

	assert.Equal(t, []string{"ped_0", "ped_2"}, repo.ids())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreWrites))
}

func TestWriter_DropsWhenQueueFull(t *testing.T) {
	repo := &fakeRepo{block: make(chan struct{})}
	m := metrics.New()
	w := NewWriter(repo, 2, newTestLogger(t), m)

	// worker holds one record while blocked, the queue holds two more
	w.Enqueue(records(1))
	require.Eventually(t, func() bool { return len(w.queue) == 0 }, waitFor, pollEvery)
	w.Enqueue(records(5))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.StoreDropped))

	close(repo.block)
	w.Close()
	assert.Len(t, repo.ids(), 3)
}

func TestWriter_EnqueueAfterCloseIsIgnored(t *testing.T) {
	repo := &fakeRepo{}
	w := NewWriter(repo, 2, newTestLogger(t), metrics.New())
	w.Close()

	assert.NotPanics(t, func() { w.Enqueue(records(2)) })
	w.Close()
	assert.Empty(t, repo.ids())
}

func TestWriter_ErrorWrapping(t *testing.T) {
	repo := &fakeRepo{failIDs: map[string]bool{"x": true}}
	w := NewWriter(repo, 1, newTestLogger(t), metrics.New())
	defer w.Close()

	err := w.write(model.DetectionRecord{ID: "x"})
	assert.ErrorIs(t, err, ErrRemoteStoreWrite)
	assert.Contains(t, err.Error(), "network unreachable")
}
