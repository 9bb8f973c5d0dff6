package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/repository/sqlite"
	"github.com/akashabrah/StreetSense/internal/route"
	"github.com/akashabrah/StreetSense/internal/service/camera"
	"github.com/akashabrah/StreetSense/internal/service/camera/opencv"
	"github.com/akashabrah/StreetSense/internal/service/detector"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
	"github.com/akashabrah/StreetSense/internal/service/session"
	"github.com/akashabrah/StreetSense/internal/service/storage"
	"github.com/akashabrah/StreetSense/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
	db         *sqlite.DB
	writer     *storage.Writer
	hubService *websocket.HubService
	controller *session.Controller
}

func NewApp() *App {
	cfg := config.Load()
	log := logger.NewLogger(cfg)
	m := metrics.New()

	a := &App{
		config:  cfg,
		logger:  log,
		metrics: m,
	}

	deps := session.Deps{
		Source:    opencv.NewSource(cfg.CameraDevice, log),
		Detector:  detector.NewSimulated(cfg.CameraWidth, cfg.CameraHeight),
		Annotator: opencv.NewAnnotator(),
		Logger:    log,
		Metrics:   m,
	}

	if cfg.RemoteStore == config.RemoteStorePresent {
		if err := a.openRemoteStore(); err != nil {
			log.Warning("Remote store unavailable, continuing without it: %v", err)
			cfg.RemoteStore = config.RemoteStoreAbsent
		} else {
			deps.Store = a.writer
		}
	}

	a.hubService = websocket.NewHubService(log, m)
	deps.Feed = a.hubService

	a.controller = session.NewController(deps, session.Options{
		RemoteStore: cfg.RemoteStore,
		Constraints: camera.Constraints{
			Width:      cfg.CameraWidth,
			Height:     cfg.CameraHeight,
			FacingMode: cfg.CameraFacing,
		},
		Interval:       time.Duration(cfg.TickIntervalMs) * time.Millisecond,
		SeriesCapacity: cfg.SeriesCapacity,
		CameraName:     cfg.CameraDevice,
	})

	// the camera is released as soon as nobody is watching
	a.hubService.OnEmpty(a.controller.Stop)

	return a
}

func (a *App) openRemoteStore() error {
	if err := os.MkdirAll(filepath.Dir(a.config.RemoteStorePath), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sqlite.New(a.config.RemoteStorePath, a.logger)
	if err != nil {
		return err
	}

	a.db = db
	a.writer = storage.NewWriter(sqlite.NewPedestrianRepository(db), a.config.StoreQueueSize, a.logger, a.metrics)
	return nil
}

// Run serves until SIGINT or SIGTERM, then tears the session down.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.hubService.Run()

	router := route.SetupRoutes(a.controller, a.hubService, a.metrics, a.config, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("🚦 StreetSense\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📷 Camera: %s\n", camera.DevicePath(a.config.CameraDevice))
	fmt.Printf("💾 Remote store: %s\n", a.config.RemoteStore)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown: %v", err)
	}

	a.close()
	return serveErr
}

func (a *App) close() {
	td := teardown{session: a.controller, hub: a.hubService, logger: a.logger}
	if a.writer != nil {
		td.writer = a.writer
	}
	if a.db != nil {
		td.db = a.db
	}
	td.run()
	a.logger.Close()
}

type stopper interface {
	Stop()
}

type drainer interface {
	Close()
}

// teardown releases the camera before draining queued records, and only then
// closes the store and disconnects viewers.
type teardown struct {
	session stopper
	writer  drainer
	db      io.Closer
	hub     drainer
	logger  *logger.Logger
}

func (t teardown) run() {
	t.session.Stop()
	if t.writer != nil {
		t.writer.Close()
	}
	if t.db != nil {
		if err := t.db.Close(); err != nil {
			t.logger.Error("Failed to close remote store: %v", err)
		}
	}
	t.hub.Close()
}
