package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashabrah/StreetSense/internal/config"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// startHub runs a hub behind a test server whose handler registers each
// viewer and then calls serve.
func startHub(t *testing.T, wait time.Duration, serve func(h *HubService, conn *websocket.Conn)) (*HubService, *metrics.Metrics, string) {
	t.Helper()

	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { log.Close() })

	m := metrics.New()
	h := NewHubService(log, m)
	h.writeWait = wait
	go h.Run()
	t.Cleanup(h.Close)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn)
		serve(h, conn)
	}))
	t.Cleanup(srv.Close)

	return h, m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// newHub serves viewers the way the live feed handler does: read until error, then unregister.
func newHub(t *testing.T) (*HubService, *metrics.Metrics, string) {
	t.Helper()
	return startHub(t, writeWait, func(h *HubService, conn *websocket.Conn) {
		defer h.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// newSilentHub hands the server side of each viewer to the test instead of reading from it.
func newSilentHub(t *testing.T, wait time.Duration) (*HubService, string, chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 4)
	h, _, url := startHub(t, wait, func(h *HubService, conn *websocket.Conn) {
		conns <- conn
	})
	return h, url, conns
}

func serverConn(t *testing.T, conns chan *websocket.Conn) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-conns:
		return conn
	case <-time.After(time.Second):
		t.Fatal("viewer never registered")
		return nil
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastReachesEveryViewer(t *testing.T) {
	h, m, url := newHub(t)

	a, b := dial(t, url), dial(t, url)
	defer a.Close()
	defer b.Close()
	require.Eventually(t, func() bool {
		return h.GetClientCount() == 2 && testutil.ToFloat64(m.Viewers) == 2
	}, time.Second, 5*time.Millisecond)

	h.Broadcast([]byte(`{"type":"state"}`))

	for _, c := range []*websocket.Conn{a, b} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"state"}`, string(msg))
	}
}

func TestHub_OnEmptyWhenLastViewerLeaves(t *testing.T) {
	h, _, url := newHub(t)

	var calls atomic.Int32
	h.OnEmpty(func() { calls.Add(1) })

	a, b := dial(t, url), dial(t, url)
	require.Eventually(t, func() bool { return h.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)

	a.Close()
	require.Eventually(t, func() bool { return h.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	b.Close()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_CloseUnblocksCallers(t *testing.T) {
	h, m, url := newHub(t)

	c := dial(t, url)
	defer c.Close()
	require.Eventually(t, func() bool { return h.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Close()
	h.Close()

	done := make(chan struct{})
	go func() {
		h.Broadcast([]byte("late"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after Close")
	}
	require.Eventually(t, func() bool {
		return h.GetClientCount() == 0 && testutil.ToFloat64(m.Viewers) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_OnEmptyWhenLastViewerFailsWrite(t *testing.T) {
	h, url, conns := newSilentHub(t, writeWait)

	var calls atomic.Int32
	h.OnEmpty(func() { calls.Add(1) })

	c := dial(t, url)
	defer c.Close()
	server := serverConn(t, conns)
	require.Equal(t, 1, h.GetClientCount())

	// the write fails before any read loop notices the broken connection
	require.NoError(t, server.NetConn().Close())
	h.Broadcast([]byte(`{"type":"state"}`))

	require.Eventually(t, func() bool {
		return h.GetClientCount() == 0 && calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// the late unregister from the read loop must not fire again
	h.Unregister(server)
	assert.Never(t, func() bool { return calls.Load() > 1 }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestHub_DropsViewerThatStopsReading(t *testing.T) {
	h, url, conns := newSilentHub(t, 50*time.Millisecond)

	var calls atomic.Int32
	h.OnEmpty(func() { calls.Add(1) })

	// the client never reads, so its socket buffers fill up
	c := dial(t, url)
	defer c.Close()
	serverConn(t, conns)

	frame := make([]byte, 1<<20)
	require.Eventually(t, func() bool {
		h.Broadcast(frame)
		return h.GetClientCount() == 0
	}, 15*time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Broadcast keeps returning once the stalled viewer is gone
	done := make(chan struct{})
	go func() {
		h.Broadcast(frame)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked by a dropped viewer")
	}
}
