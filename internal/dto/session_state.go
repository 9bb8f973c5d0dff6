package dto

import "github.com/akashabrah/StreetSense/internal/model"

// SessionState is the demo page's view of the current session.
type SessionState struct {
	Active       bool                    `json:"active"`
	SessionID    string                  `json:"sessionId"`
	Totals       model.SessionTotals     `json:"totals"`
	TimeSeries   []model.TimeSeriesPoint `json:"timeSeries"`
	HistoryCount int                     `json:"historyCount"`
	RemoteStore  string                  `json:"remoteStore"`
}

// History is the payload of the detection history table.
type History struct {
	SessionID string                  `json:"sessionId"`
	Total     int                     `json:"total"`
	Records   []model.DetectionRecord `json:"records"`
}

// Notice is a user-facing message, shown by the page as a toast.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CameraError is returned when a session cannot start.
type CameraError struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
