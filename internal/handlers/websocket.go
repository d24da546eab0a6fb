// -----------------------------------------------------------------------
// WebSocket streaming - pushes terminal sub-job events to connected clients
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Same-host deployments; tighten for public exposure
	},
}

// wsClient is one connected streaming consumer. A non-empty requestID
// filters the stream to that request's events.
type wsClient struct {
	conn      *websocket.Conn
	requestID string
	mu        sync.Mutex // guards writes to conn
}

func (c *wsClient) send(message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(message)
}

// WebSocketHandler broadcasts terminal and advisory events to clients.
// A client disconnecting mid-stream is a no-op for the pipelines.
type WebSocketHandler struct {
	eventService interfaces.EventService
	logger       arbor.ILogger

	clientsMu sync.RWMutex
	clients   map[*wsClient]bool

	allowedEvents map[interfaces.EventType]bool
	throttles     map[interfaces.EventType]*rate.Limiter
}

// NewWebSocketHandler creates a websocket handler and subscribes it to the
// streaming topics.
func NewWebSocketHandler(eventService interfaces.EventService, config *common.Config, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		eventService:  eventService,
		logger:        logger,
		clients:       make(map[*wsClient]bool),
		allowedEvents: make(map[interfaces.EventType]bool),
		throttles:     make(map[interfaces.EventType]*rate.Limiter),
	}

	for _, name := range config.WebSocket.AllowedEvents {
		h.allowedEvents[interfaces.EventType(name)] = true
	}
	for name, interval := range config.WebSocket.ThrottleIntervals {
		d, err := time.ParseDuration(interval)
		if err != nil || d <= 0 {
			continue
		}
		h.throttles[interfaces.EventType(name)] = rate.NewLimiter(rate.Every(d), 1)
	}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventSubJobTerminal,
		interfaces.EventRequestComplete,
		interfaces.EventThroughputSample,
	} {
		et := eventType
		if err := eventService.Subscribe(et, func(ctx context.Context, event interfaces.Event) error {
			h.broadcast(event)
			return nil
		}); err != nil {
			logger.Warn().Str("event_type", string(et)).Err(err).Msg("Failed to subscribe websocket broadcaster")
		}
	}

	return h
}

// HandleWebSocket upgrades GET /ws connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsClient{
		conn:      conn,
		requestID: r.URL.Query().Get("request_id"),
	}

	h.clientsMu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Info().
		Str("request_id", client.requestID).
		Int("clients", count).
		Msg("WebSocket client connected")

	common.SafeGo(h.logger, "wsReader", func() {
		h.readLoop(client)
	})
}

// readLoop drains client frames until the connection closes. Inbound
// content is ignored; the stream is one-way.
func (h *WebSocketHandler) readLoop(client *wsClient) {
	defer h.remove(client)

	client.conn.SetReadLimit(4096)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) remove(client *wsClient) {
	h.clientsMu.Lock()
	delete(h.clients, client)
	count := len(h.clients)
	h.clientsMu.Unlock()

	client.conn.Close()
	h.logger.Info().Int("clients", count).Msg("WebSocket client disconnected")
}

// broadcast pushes one event to every matching client. With zero clients
// it returns immediately.
func (h *WebSocketHandler) broadcast(event interfaces.Event) {
	if len(h.allowedEvents) > 0 && !h.allowedEvents[event.Type] {
		return
	}
	if limiter, ok := h.throttles[event.Type]; ok && !limiter.Allow() {
		return
	}

	h.clientsMu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clientsMu.RUnlock()

	if len(clients) == 0 {
		return
	}

	message := map[string]interface{}{
		"type":      string(event.Type),
		"payload":   event.Payload,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	for _, client := range clients {
		if client.requestID != "" && !eventMatchesRequest(event, client.requestID) {
			continue
		}
		if err := client.send(message); err != nil {
			h.logger.Debug().Err(err).Msg("WebSocket send failed - removing client")
			h.remove(client)
		}
	}
}

// eventMatchesRequest checks the payload's request_id against a client
// filter. Events without a request id (advisory samples) pass through.
func eventMatchesRequest(event interfaces.Event, requestID string) bool {
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		return true
	}
	id, ok := payload["request_id"].(string)
	if !ok {
		return true
	}
	return id == requestID
}

// Close disconnects all clients
func (h *WebSocketHandler) Close() {
	h.clientsMu.Lock()
	for client := range h.clients {
		client.conn.Close()
	}
	h.clients = make(map[*wsClient]bool)
	h.clientsMu.Unlock()
}
