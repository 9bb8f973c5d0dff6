package detector

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/service/camera"
)

const (
	// MaxPedestrians is the exclusive upper bound of the per-tick count.
	MaxPedestrians = 5
	// MinConfidence is the lowest confidence a simulated record gets.
	MinConfidence = 0.7
	// ConfidenceSpread is added to MinConfidence scaled by U[0,1).
	ConfidenceSpread = 0.3
)

// Simulated produces random detections without looking at the frame.
type Simulated struct {
	mu            sync.Mutex
	rng           *rand.Rand
	now           func() time.Time
	defaultWidth  int
	defaultHeight int
}

// Option configures a Simulated detector.
type Option func(*Simulated)

// WithRand sets the random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulated) { s.rng = rng }
}

// WithClock sets the clock used for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Simulated) { s.now = now }
}

// NewSimulated creates a detector whose positions fall inside the frame,
// or inside width x height when the frame has no dimensions.
func NewSimulated(width, height int, opts ...Option) *Simulated {
	s := &Simulated{
		rng:           rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now:           time.Now,
		defaultWidth:  width,
		defaultHeight: height,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect draws total in [0,4], high in [0,total], medium in [0,total-high]
// and gives the remainder to low. A frame without dimensions places records
// inside the configured default size; the session controller never passes one,
// since it skips ticks without a frame.
func (s *Simulated) Detect(ctx context.Context, frame camera.Frame, sessionID string) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.rng.IntN(MaxPedestrians)
	high := s.rng.IntN(total + 1)
	medium := s.rng.IntN(total - high + 1)
	low := total - high - medium

	batch := Batch{
		Totals: model.SessionTotals{
			TotalPedestrians: total,
			HighRisk:         high,
			MediumRisk:       medium,
			LowRisk:          low,
		},
	}
	if total == 0 {
		return batch, nil
	}

	width, height := frame.Width, frame.Height
	if frame.Empty() {
		width, height = s.defaultWidth, s.defaultHeight
	}

	now := s.now()
	batch.Records = make([]model.DetectionRecord, 0, total)
	for i := 0; i < total; i++ {
		batch.Records = append(batch.Records, model.DetectionRecord{
			ID:         fmt.Sprintf("ped_%d_%d", now.UnixMilli(), i),
			Timestamp:  now,
			RiskLevel:  tierFor(i, high, medium),
			Confidence: MinConfidence + s.rng.Float64()*ConfidenceSpread,
			PositionX:  s.intN(width),
			PositionY:  s.intN(height),
			SessionID:  sessionID,
		})
	}

	return batch, nil
}

// tierFor labels the first high records high, the next medium records medium
// and the rest low.
func tierFor(i, high, medium int) model.RiskLevel {
	switch {
	case i < high:
		return model.RiskHigh
	case i < high+medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func (s *Simulated) intN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n)
}
