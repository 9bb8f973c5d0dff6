package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/metrics"
)

// writeWait bounds a single write to a viewer; a viewer that cannot keep up is dropped.
const writeWait = 10 * time.Second

// HubService fans live session updates out to demo page viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	mutex      sync.RWMutex
	onEmpty    func()
	writeWait  time.Duration
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewHubService(logger *logger.Logger, metrics *metrics.Metrics) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		writeWait:  writeWait,
		logger:     logger,
		metrics:    metrics,
	}
}

// OnEmpty sets a callback run (in its own goroutine) when the last viewer
// is removed, whether it left or failed a write.
func (h *HubService) OnEmpty(fn func()) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.onEmpty = fn
}

func (h *HubService) Run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			h.metrics.Viewers.Set(0)
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.metrics.Viewers.Set(float64(count))
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			removed := h.removeLocked(client)
			count := len(h.clients)
			h.mutex.Unlock()
			if removed {
				h.logger.Info("Viewer disconnected. Total: %d", count)
			}
			h.viewersChanged(count, removed)

		case message := <-h.broadcast:
			h.mutex.Lock()
			removed := false
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(h.writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message, dropping viewer: %v", err)
					removed = h.removeLocked(client) || removed
				}
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.viewersChanged(count, removed)
		}
	}
}

// removeLocked closes and forgets client. It reports whether client was registered.
func (h *HubService) removeLocked(client *websocket.Conn) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	client.Close()
	return true
}

// viewersChanged updates the gauge and fires onEmpty once a removal left no viewers.
func (h *HubService) viewersChanged(count int, removed bool) {
	h.metrics.Viewers.Set(float64(count))
	if !removed || count != 0 {
		return
	}

	h.mutex.RLock()
	onEmpty := h.onEmpty
	h.mutex.RUnlock()
	if onEmpty != nil {
		go onEmpty()
	}
}

// Close stops Run and disconnects every viewer.
func (h *HubService) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast hands message to Run. It returns without sending once the hub is closed.
func (h *HubService) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
