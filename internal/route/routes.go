package route

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/handler"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
	"github.com/akashabrah/StreetSense/internal/service/session"
	"github.com/akashabrah/StreetSense/internal/service/websocket"
)

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the pages, static files, session API, live feed,
// metrics and log endpoints.
func SetupRoutes(controller *session.Controller, hub *websocket.HubService, m *metrics.Metrics,
	cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	// Session API
	mux.HandleFunc("/api/session", handler.GetSessionHandler(controller, log))
	mux.HandleFunc("/api/session/start", handler.StartSessionHandler(controller, cfg, log))
	mux.HandleFunc("/api/session/stop", handler.StopSessionHandler(controller, log))
	mux.HandleFunc("/api/session/history", handler.SessionHistoryHandler(controller, cfg, log))
	mux.HandleFunc("/api/session/export", handler.ExportSessionHandler(controller, log))
	mux.HandleFunc("/api/session/charts/timeseries", handler.TimeSeriesChartHandler(controller, log))
	mux.HandleFunc("/api/session/charts/risk", handler.RiskChartHandler(controller, log))

	// Live feed
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, controller, log))

	mux.Handle("/metrics", m.Handler())

	// Log endpoints
	for path, file := range map[string]string{
		"/logs/info":    logger.InfoFile,
		"/logs/warning": logger.WarningFile,
		"/logs/error":   logger.ErrorFile,
	} {
		mux.HandleFunc(path, handler.ShowLogsHandler(cfg, file))
		mux.HandleFunc(path+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Automatic HTML handler mapping, for example: /try-now -> static/try-now.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDir))

	return mux
}
