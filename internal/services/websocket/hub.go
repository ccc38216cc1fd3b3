package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"facealarm/internal/logger"
	"facealarm/internal/models"
	"facealarm/internal/services/alert"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Message is the JSON pushed to viewers.
type Message struct {
	Type       string             `json:"type"`
	Camera     string             `json:"camera,omitempty"`
	Detections []models.Detection `json:"detections,omitempty"`
	Action     string             `json:"action,omitempty"`
	Status     string             `json:"status,omitempty"`
	Error      string             `json:"error,omitempty"`
	Time       time.Time          `json:"time"`
}

const (
	TypeAlert  = "alert"
	TypeAction = "action"
)

// HubService fans alert events out to connected viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register/unregister/broadcast requests until ctx is done.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.send(message)

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *HubService) send(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending message: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Register adds a viewer. Once Run has returned the connection is closed
// instead.
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

// Broadcast queues message for every viewer. It never blocks; when the queue
// is full the message is dropped.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("⚠️  Broadcast queue full - dropping message")
		return false
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// AlertTripped implements alert.Observer.
func (h *HubService) AlertTripped(ev alert.Event) {
	h.publish(Message{
		Type:       TypeAlert,
		Camera:     ev.Camera,
		Detections: ev.Detections,
		Time:       ev.At,
	})
}

// ActionFinished implements alert.Observer.
func (h *HubService) ActionFinished(res alert.Result) {
	msg := Message{
		Type:   TypeAction,
		Action: res.Action,
		Status: models.StatusOK,
		Time:   res.FinishedAt,
	}
	if res.Err != nil {
		msg.Status = models.StatusFailed
		msg.Error = res.Err.Error()
	}
	h.publish(msg)
}

func (h *HubService) publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode %s message: %v", msg.Type, err)
		return
	}
	h.Broadcast(data)
}
