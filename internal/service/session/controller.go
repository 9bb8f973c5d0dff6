package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/dto"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/service/camera"
	"github.com/akashabrah/StreetSense/internal/service/detector"
	"github.com/akashabrah/StreetSense/internal/service/export"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
	"github.com/akashabrah/StreetSense/internal/service/telemetry"
)

// DefaultInterval is the tick period of a session.
const DefaultInterval = time.Second

// Broadcaster pushes live messages to viewers.
type Broadcaster interface {
	Broadcast(message []byte)
}

// RecordSink receives every generated record, best effort.
type RecordSink interface {
	Enqueue(records []model.DetectionRecord)
}

// Annotator marks detections on the preview frame.
type Annotator interface {
	Annotate(frame camera.Frame, records []model.DetectionRecord) (camera.Frame, error)
}

// Options are fixed for the controller's lifetime.
type Options struct {
	RemoteStore    string // config.RemoteStorePresent or config.RemoteStoreAbsent
	Constraints    camera.Constraints
	Interval       time.Duration
	SeriesCapacity int
	CameraName     string
}

// Deps are the controller's collaborators. Store, Feed and Annotator may be nil.
type Deps struct {
	Source    camera.Source
	Detector  detector.Detector
	Store     RecordSink
	Feed      Broadcaster
	Annotator Annotator
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
}

// Ticker is the periodic timer driving a session.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Controller owns the camera, the tick goroutine and the telemetry of the
// single demo session.
type Controller struct {
	source    camera.Source
	detector  detector.Detector
	store     RecordSink
	feed      Broadcaster
	annotator Annotator
	telemetry *telemetry.Aggregator
	logger    *logger.Logger
	metrics   *metrics.Metrics
	opts      Options

	newTicker func(time.Duration) Ticker
	now       func() time.Time

	// lifecycle serializes Start and Stop
	lifecycle sync.Mutex

	mu        sync.RWMutex
	active    bool
	sessionID string
	stream    camera.Stream
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewController creates an idle controller.
func NewController(deps Deps, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Constraints == (camera.Constraints{}) {
		opts.Constraints = camera.DefaultConstraints()
	}
	if opts.CameraName == "" {
		opts.CameraName = "demo"
	}
	if opts.RemoteStore != config.RemoteStorePresent {
		opts.RemoteStore = config.RemoteStoreAbsent
	}

	c := &Controller{
		source:    deps.Source,
		detector:  deps.Detector,
		feed:      deps.Feed,
		annotator: deps.Annotator,
		telemetry: telemetry.NewAggregator(opts.SeriesCapacity),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		opts:      opts,
		newTicker: newTimeTicker,
		now:       time.Now,
	}
	if opts.RemoteStore == config.RemoteStorePresent {
		c.store = deps.Store
	}

	return c
}

// Start acquires the camera and begins a fresh session. A running session
// is stopped first. On failure nothing is started and telemetry is untouched.
func (c *Controller) Start(ctx context.Context) (string, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLocked()

	stream, err := c.source.Open(ctx, c.opts.Constraints)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var ue *camera.UnavailableError
		if !errors.As(err, &ue) {
			ue = &camera.UnavailableError{Reason: camera.ReasonNoDevice, Err: err}
		}
		c.metrics.CameraErrors.WithLabelValues(string(ue.Reason)).Inc()
		c.logger.Warning("📷 Camera unavailable: %v", ue)
		return "", ue
	}

	id := newSessionID(c.now())
	c.telemetry.Reset()

	tickCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ticker := c.newTicker(c.opts.Interval)

	c.mu.Lock()
	c.active = true
	c.sessionID = id
	c.stream = stream
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.run(tickCtx, ticker, stream, id, done)

	c.metrics.SessionsStarted.Inc()
	c.metrics.SetSessionActive(true)
	c.logger.Info("🎬 Session %s started (every %s, remote store %s)", id, c.opts.Interval, c.opts.RemoteStore)
	c.publishState()

	return id, nil
}

// Stop cancels the tick and releases the camera. It is a no-op when idle.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLocked()
}

func (c *Controller) stopLocked() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	cancel, done, stream, id := c.cancel, c.done, c.stream, c.sessionID
	c.active = false
	c.cancel = nil
	c.done = nil
	c.stream = nil
	c.mu.Unlock()

	cancel()
	<-done

	if err := stream.Close(); err != nil {
		c.logger.Warning("Failed to release camera for session %s: %v", id, err)
	}

	c.metrics.SetSessionActive(false)
	c.logger.Info("🛑 Session %s stopped (%d records)", id, c.telemetry.HistoryLen())
	c.publishState()
}

func (c *Controller) run(ctx context.Context, ticker Ticker, stream camera.Stream, id string, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.step(ctx, stream, id)
		}
	}
}

// step runs one tick: grab a frame, detect, fold, fan out.
func (c *Controller) step(ctx context.Context, stream camera.Stream, id string) {
	frame, err := stream.Read()
	if err != nil {
		c.logger.Warning("Failed to read frame for session %s: %v", id, err)
	}
	if frame.Empty() {
		return
	}

	batch, err := c.detector.Detect(ctx, frame, id)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("Detection failed for session %s: %v", id, err)
		}
		return
	}

	c.telemetry.Fold(batch, c.now())
	c.metrics.ObserveTotals(batch.Totals)

	if c.store != nil && len(batch.Records) > 0 {
		c.store.Enqueue(batch.Records)
	}

	if c.annotator != nil && c.feed != nil {
		annotated, err := c.annotator.Annotate(frame, batch.Records)
		if err != nil {
			c.logger.Warning("Failed to annotate frame for session %s: %v", id, err)
		} else {
			frame = annotated
		}
	}

	c.publishState()
	c.publishFrame(frame)
}

// State returns a snapshot for the page.
func (c *Controller) State() dto.SessionState {
	c.mu.RLock()
	active, id := c.active, c.sessionID
	c.mu.RUnlock()

	return dto.SessionState{
		Active:       active,
		SessionID:    id,
		Totals:       c.telemetry.Totals(),
		TimeSeries:   c.telemetry.Series(),
		HistoryCount: c.telemetry.HistoryLen(),
		RemoteStore:  c.opts.RemoteStore,
	}
}

// SessionID returns the id of the current or most recent session.
func (c *Controller) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Active reports whether a session is running.
func (c *Controller) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// History returns up to limit records, newest first.
func (c *Controller) History(limit int) dto.History {
	return dto.History{
		SessionID: c.SessionID(),
		Total:     c.telemetry.HistoryLen(),
		Records:   c.telemetry.Recent(limit),
	}
}

// Totals returns the latest tick's counts.
func (c *Controller) Totals() model.SessionTotals {
	return c.telemetry.Totals()
}

// Series returns the buffered time series.
func (c *Controller) Series() []model.TimeSeriesPoint {
	return c.telemetry.Series()
}

// Export writes the session history as CSV and returns the download name.
// It returns export.ErrNoData, writing nothing, when the history is empty.
func (c *Controller) Export(w io.Writer) (string, error) {
	records := c.telemetry.History()
	if len(records) == 0 {
		return "", export.ErrNoData
	}
	if err := export.WriteCSV(w, records); err != nil {
		return "", err
	}
	return export.Filename(c.SessionID()), nil
}

func (c *Controller) publishState() {
	if c.feed == nil {
		return
	}
	msg, err := json.Marshal(dto.StateMessage{Type: dto.MessageState, State: c.State()})
	if err != nil {
		c.logger.Error("Failed to encode session state: %v", err)
		return
	}
	c.feed.Broadcast(msg)
}

func (c *Controller) publishFrame(frame camera.Frame) {
	if c.feed == nil || len(frame.JPEG) == 0 {
		return
	}
	msg, err := json.Marshal(dto.FrameMessage{
		Type:   dto.MessageFrame,
		Camera: c.opts.CameraName,
		Image:  base64.StdEncoding.EncodeToString(frame.JPEG),
	})
	if err != nil {
		c.logger.Error("Failed to encode frame: %v", err)
		return
	}
	c.feed.Broadcast(msg)
}

// newSessionID returns session_<unix millis>_<7 hex chars>.
func newSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}
