package detector

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/service/camera"
)

func newTestDetector(seed uint64, now time.Time) *Simulated {
	return NewSimulated(640, 480,
		WithRand(rand.New(rand.NewPCG(seed, seed+1))),
		WithClock(func() time.Time { return now }),
	)
}

func TestSimulated_BatchInvariants(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	d := newTestDetector(42, now)
	frame := camera.Frame{Width: 640, Height: 480}

	seenTotals := map[int]bool{}
	for i := 0; i < 2000; i++ {
		batch, err := d.Detect(context.Background(), frame, "session_1")
		require.NoError(t, err)

		tot := batch.Totals
		seenTotals[tot.TotalPedestrians] = true
		require.GreaterOrEqual(t, tot.TotalPedestrians, 0)
		require.LessOrEqual(t, tot.TotalPedestrians, 4)
		require.Equal(t, tot.TotalPedestrians, tot.HighRisk+tot.MediumRisk+tot.LowRisk)
		require.GreaterOrEqual(t, tot.LowRisk, 0)
		require.Len(t, batch.Records, tot.TotalPedestrians)

		for _, rec := range batch.Records {
			require.GreaterOrEqual(t, rec.Confidence, 0.7)
			require.Less(t, rec.Confidence, 1.0)
			require.GreaterOrEqual(t, rec.PositionX, 0)
			require.LessOrEqual(t, rec.PositionX, frame.Width)
			require.GreaterOrEqual(t, rec.PositionY, 0)
			require.LessOrEqual(t, rec.PositionY, frame.Height)
			require.Equal(t, "session_1", rec.SessionID)
			require.True(t, rec.Timestamp.Equal(now))
		}
	}

	for total := 0; total <= 4; total++ {
		assert.True(t, seenTotals[total], "total %d never drawn", total)
	}
}

func TestSimulated_TierOrder(t *testing.T) {
	d := newTestDetector(7, time.Now())

	for i := 0; i < 500; i++ {
		batch, err := d.Detect(context.Background(), camera.Frame{}, "s")
		require.NoError(t, err)

		counts := map[model.RiskLevel]int{}
		rank := map[model.RiskLevel]int{model.RiskHigh: 0, model.RiskMedium: 1, model.RiskLow: 2}
		last := 0
		for _, rec := range batch.Records {
			require.GreaterOrEqual(t, rank[rec.RiskLevel], last, "tiers must be high, then medium, then low")
			last = rank[rec.RiskLevel]
			counts[rec.RiskLevel]++
		}

		assert.Equal(t, batch.Totals.HighRisk, counts[model.RiskHigh])
		assert.Equal(t, batch.Totals.MediumRisk, counts[model.RiskMedium])
		assert.Equal(t, batch.Totals.LowRisk, counts[model.RiskLow])
	}
}

func TestSimulated_RecordIDs(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	d := newTestDetector(1, now)

	for i := 0; i < 50; i++ {
		batch, err := d.Detect(context.Background(), camera.Frame{}, "s")
		require.NoError(t, err)
		for idx, rec := range batch.Records {
			assert.True(t, strings.HasPrefix(rec.ID, "ped_1700000000123_"))
			assert.Equal(t, "ped_1700000000123_"+string(rune('0'+idx)), rec.ID)
		}
	}
}

func TestSimulated_UsesFrameBoundsWhenPresent(t *testing.T) {
	d := newTestDetector(3, time.Now())
	frame := camera.Frame{Width: 4, Height: 2}

	for i := 0; i < 300; i++ {
		batch, err := d.Detect(context.Background(), frame, "s")
		require.NoError(t, err)
		for _, rec := range batch.Records {
			assert.Less(t, rec.PositionX, 4)
			assert.Less(t, rec.PositionY, 2)
		}
	}
}

func TestSimulated_CanceledContext(t *testing.T) {
	d := newTestDetector(3, time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, camera.Frame{}, "s")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		i, high, medium int
		expected        model.RiskLevel
	}{
		{0, 1, 1, model.RiskHigh},
		{1, 1, 1, model.RiskMedium},
		{2, 1, 1, model.RiskLow},
		{0, 0, 0, model.RiskLow},
		{0, 0, 2, model.RiskMedium},
		{3, 4, 0, model.RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tierFor(tt.i, tt.high, tt.medium))
	}
}

func TestSimulated_DefaultBoundsWithoutFrameSize(t *testing.T) {
	d := NewSimulated(8, 3, WithRand(rand.New(rand.NewPCG(5, 6))))

	seen := 0
	for i := 0; i < 300; i++ {
		batch, err := d.Detect(context.Background(), camera.Frame{}, "s")
		require.NoError(t, err)
		for _, rec := range batch.Records {
			seen++
			assert.GreaterOrEqual(t, rec.PositionX, 0)
			assert.Less(t, rec.PositionX, 8)
			assert.GreaterOrEqual(t, rec.PositionY, 0)
			assert.Less(t, rec.PositionY, 3)
		}
	}
	assert.Positive(t, seen)
}
