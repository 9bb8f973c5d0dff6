package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/logger"
)

// ShowLogsHandler serves one level's log file as text/plain.
func ShowLogsHandler(cfg *config.Config, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveLogFile(w, r, cfg.LogDirectory, filename)
	}
}

// serveLogFile sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename string) {
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}

// ClearLogsHandler truncates one level's log file.
func ClearLogsHandler(log *logger.Logger, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := log.CleanLogs(filename); err != nil {
			log.Error("Failed to clear %s: %v", filename, err)
			http.Error(w, "Failed to clear logs", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
