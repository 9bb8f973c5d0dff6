package handler

import (
	"bytes"
	"net/http"

	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/chart"
	"github.com/akashabrah/StreetSense/internal/service/session"
)

// TimeSeriesChartHandler renders the time series chart as an HTML page.
func TimeSeriesChartHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := chart.RenderTimeSeries(&buf, controller.Series(), chartOptions(r)); err != nil {
			logger.Error("Failed to render time series chart: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeHTML(w, buf.Bytes())
	}
}

// RiskChartHandler renders the risk distribution bars as an HTML page.
func RiskChartHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := chart.RenderRiskDistribution(&buf, controller.Totals(), chartOptions(r)); err != nil {
			logger.Error("Failed to render risk chart: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeHTML(w, buf.Bytes())
	}
}

func chartOptions(r *http.Request) chart.Options {
	q := r.URL.Query()
	return chart.Options{Width: q.Get("width"), Height: q.Get("height")}
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(page)
}
