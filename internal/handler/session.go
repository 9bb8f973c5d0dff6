package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/dto"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/camera"
	"github.com/akashabrah/StreetSense/internal/service/session"
)

// GetSessionHandler returns the current session state.
func GetSessionHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controller.State(), logger)
	}
}

// StartSessionHandler acquires the camera and starts a fresh session.
// Camera failures are answered with 503 and a message for the user.
func StartSessionHandler(controller *session.Controller, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if !cfg.AllowInsecureCamera {
			if err := camera.SecureContext(r.Host, r.TLS != nil, r.Header.Get("X-Forwarded-Proto")); err != nil {
				logger.Warning("Refused camera start from %s: %v", r.RemoteAddr, err)
				writeCameraError(w, err, logger)
				return
			}
		}

		if _, err := controller.Start(r.Context()); err != nil {
			if errors.Is(err, camera.ErrUnavailable) {
				writeCameraError(w, err, logger)
				return
			}
			logger.Error("Failed to start session: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, controller.State(), logger)
	}
}

// StopSessionHandler stops the running session, if any.
func StopSessionHandler(controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		controller.Stop()
		writeJSON(w, http.StatusOK, controller.State(), logger)
	}
}

// SessionHistoryHandler returns the newest records of the session.
func SessionHistoryHandler(controller *session.Controller, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), cfg.HistoryPageSize)
		writeJSON(w, http.StatusOK, controller.History(limit), logger)
	}
}

func writeCameraError(w http.ResponseWriter, err error, logger *logger.Logger) {
	body := dto.CameraError{
		Error:   camera.ErrUnavailable.Error(),
		Reason:  string(camera.ReasonNoDevice),
		Message: (&camera.UnavailableError{}).UserMessage(),
	}

	var ue *camera.UnavailableError
	if errors.As(err, &ue) {
		body.Reason = string(ue.Reason)
		body.Message = ue.UserMessage()
	}

	writeJSON(w, http.StatusServiceUnavailable, body, logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
