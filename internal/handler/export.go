package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/akashabrah/StreetSense/internal/dto"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/export"
	"github.com/akashabrah/StreetSense/internal/service/session"
)

// ExportSessionHandler downloads the session history as CSV. With no
// history it answers 404 and a notice instead of an empty file.
func ExportSessionHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		filename, err := controller.Export(&buf)
		if err != nil {
			if errors.Is(err, export.ErrNoData) {
				writeJSON(w, http.StatusNotFound, dto.Notice{
					Title:       "No data to download",
					Description: "Start a detection session first to collect data.",
				}, logger)
				return
			}
			logger.Error("Failed to export session %s: %v", controller.SessionID(), err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(buf.Bytes()); err != nil {
			logger.Error("Failed to send export %s: %v", filename, err)
			return
		}

		logger.Info("📥 Exported %s", filename)
	}
}
