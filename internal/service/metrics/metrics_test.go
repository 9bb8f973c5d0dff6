package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashabrah/StreetSense/internal/model"
)

func TestObserveTotals(t *testing.T) {
	m := New()

	m.ObserveTotals(model.SessionTotals{TotalPedestrians: 3, HighRisk: 1, MediumRisk: 2})
	m.ObserveTotals(model.SessionTotals{TotalPedestrians: 1, LowRisk: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("high")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Detections.WithLabelValues("medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("low")))
}

func TestSetSessionActive(t *testing.T) {
	m := New()

	m.SetSessionActive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionActive))
	m.SetSessionActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionActive))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.StoreFailures.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "streetsense_store_write_failures_total 1")
	assert.Contains(t, string(body), `streetsense_detections_total{risk_level="high"} 0`)
}
