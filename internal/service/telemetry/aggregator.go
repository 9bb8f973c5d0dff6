package telemetry

import (
	"sync"
	"time"

	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/service/detector"
)

const (
	// DefaultSeriesCapacity is how many ticks the time series keeps.
	DefaultSeriesCapacity = 20
	// TimeLabelLayout labels series points with local wall-clock time.
	TimeLabelLayout = "15:04:05"
)

// Aggregator folds detection batches into the latest totals, a bounded
// time series and the session history.
type Aggregator struct {
	mu       sync.RWMutex
	capacity int
	totals   model.SessionTotals
	series   []model.TimeSeriesPoint
	history  []model.DetectionRecord
}

// NewAggregator creates an Aggregator keeping at most capacity series points.
func NewAggregator(capacity int) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultSeriesCapacity
	}
	return &Aggregator{
		capacity: capacity,
		series:   make([]model.TimeSeriesPoint, 0, capacity),
	}
}

// Fold applies one tick. Totals are replaced, not accumulated.
func (a *Aggregator) Fold(batch detector.Batch, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totals = batch.Totals

	if len(a.series) == a.capacity {
		copy(a.series, a.series[1:])
		a.series = a.series[:a.capacity-1]
	}
	a.series = append(a.series, model.PointFromTotals(at.Format(TimeLabelLayout), batch.Totals))

	a.history = append(a.history, batch.Records...)
}

// Reset empties every view.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totals = model.SessionTotals{}
	a.series = a.series[:0]
	a.history = nil
}

// Totals returns the counts of the latest tick.
func (a *Aggregator) Totals() model.SessionTotals {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totals
}

// Series returns a copy of the time series, oldest first.
func (a *Aggregator) Series() []model.TimeSeriesPoint {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]model.TimeSeriesPoint, len(a.series))
	copy(out, a.series)
	return out
}

// History returns a copy of every record of the session, in arrival order.
func (a *Aggregator) History() []model.DetectionRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]model.DetectionRecord, len(a.history))
	copy(out, a.history)
	return out
}

// HistoryLen returns the number of records collected so far.
func (a *Aggregator) HistoryLen() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.history)
}

// Recent returns up to limit records, newest first.
func (a *Aggregator) Recent(limit int) []model.DetectionRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := len(a.history)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]model.DetectionRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, a.history[i])
	}
	return out
}
