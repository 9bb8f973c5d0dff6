package route

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/camera"
	"github.com/akashabrah/StreetSense/internal/service/detector"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
	"github.com/akashabrah/StreetSense/internal/service/session"
	"github.com/akashabrah/StreetSense/internal/service/websocket"
)

type noCamera struct{}

func (noCamera) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	return nil, camera.Unavailable(camera.ReasonNoDevice, nil)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>StreetSense</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "try-now.html"), []byte("<h1>Try it</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(static, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "css", "site.css"), []byte("body{}"), 0o644))

	cfg := &config.Config{StaticDir: static, LogDirectory: t.TempDir(), HistoryPageSize: 50}
	log := logger.NewLogger(cfg)
	t.Cleanup(func() { log.Close() })

	m := metrics.New()
	hub := websocket.NewHubService(log, m)
	go hub.Run()
	t.Cleanup(hub.Close)

	controller := session.NewController(session.Deps{
		Source:   noCamera{},
		Detector: detector.NewSimulated(640, 480),
		Feed:     hub,
		Logger:   log,
		Metrics:  m,
	}, session.Options{})

	srv := httptest.NewServer(SetupRoutes(controller, hub, m, cfg, log))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRoutes_Pages(t *testing.T) {
	srv := newServer(t)

	code, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "StreetSense")

	code, body = get(t, srv.URL+"/try-now")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Try it")

	code, _ = get(t, srv.URL+"/static/css/site.css")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get(t, srv.URL+"/does-not-exist")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRoutes_SessionAndMetrics(t *testing.T) {
	srv := newServer(t)

	code, body := get(t, srv.URL+"/api/session")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"active":false`)
	assert.Contains(t, body, `"remoteStore":"absent"`)

	resp, err := http.Post(srv.URL+"/api/session/start", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	code, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `streetsense_camera_errors_total{reason="no_device"} 1`)
	assert.Contains(t, body, "streetsense_session_active 0")
}
