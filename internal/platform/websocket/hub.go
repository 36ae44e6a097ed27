// Package websocket pushes case-study generation lifecycle events to
// connected UI clients. Clients subscribe to per-patient topics and receive
// events broadcast to those topics, so the journey view can disable
// re-submission while a generation is in flight without polling.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// PatientTopic returns the topic carrying case-study events for one patient.
func PatientTopic(patientID uuid.UUID) string {
	return "case-study:" + patientID.String()
}

// Event is a real-time notification sent to subscribed clients.
type Event struct {
	Type        string          `json:"type"`
	Topic       string          `json:"topic"`
	PatientID   string          `json:"patientId"`
	CaseStudyID string          `json:"caseStudyId,omitempty"`
	State       string          `json:"state,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound message from a client: subscribe/unsubscribe
// plus the topics it applies to.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// EventPublisher is the interface the case-study service publishes through.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client represents a single WebSocket connection.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// deliver queues data on the client without blocking. A client whose buffer
// is full misses the event; the UI recovers by polling the status endpoint.
func (c *Client) deliver(data []byte) {
	select {
	case c.Send <- data:
	default:
	}
}

// Hub tracks connected clients and their topic subscriptions.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	conns  map[*Client]struct{}
}

// NewHub creates a Hub ready to manage clients.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]struct{}),
		conns:  make(map[*Client]struct{}),
	}
}

// addSub and dropSub require h.mu to be held.
func (h *Hub) addSub(client *Client, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Client]struct{})
		h.topics[topic] = set
	}
	set[client] = struct{}{}
}

func (h *Hub) dropSub(client *Client, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
}

// Register adds a client to the hub and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[client] = struct{}{}
	for _, topic := range client.Topics {
		h.addSub(client, topic)
	}
}

// Unregister removes a client from the hub and all topic subscriptions, and
// closes the client's Send channel. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.dropSub(client, topic)
	}
	delete(h.conns, client)
	close(client.Send)
}

// Subscribe adds topics to an already-registered client.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		h.addSub(client, topic)
	}
	client.Topics = append(client.Topics, topics...)
}

// Unsubscribe removes topics from an already-registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		h.dropSub(client, topic)
		dropped[topic] = struct{}{}
	}

	kept := client.Topics[:0]
	for _, t := range client.Topics {
		if _, ok := dropped[t]; !ok {
			kept = append(kept, t)
		}
	}
	client.Topics = kept
}

// ProcessMessage handles an inbound ClientMessage.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast sends an event to all clients subscribed to the given topic.
// Events that fail to marshal are dropped.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.topics[topic] {
		client.deliver(data)
	}
}

// Publish implements EventPublisher by broadcasting to the event's topic.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event.Topic, event)
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// TopicCount returns the number of clients subscribed to a specific topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

const (
	maxMessageSize = 4096
	writeWait      = 10 * time.Second
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler upgrades HTTP connections to WebSocket and wires them to the hub.
type Handler struct {
	hub *Hub
}

// NewHandler creates a handler bound to the given Hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers the WebSocket endpoint on the provided group.
func (wsh *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wsh.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client, and starts
// the read and write pumps.
func (wsh *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, 256),
	}
	wsh.hub.Register(client)

	go wsh.writePump(client, ws)
	go wsh.readPump(client, ws)
	return nil
}

// readPump consumes subscribe/unsubscribe messages until the connection
// drops, then unregisters the client. Malformed messages are ignored.
func (wsh *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		wsh.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		wsh.hub.ProcessMessage(client, msg)
	}
}

// writePump drains the Send channel onto the connection until either side
// closes.
func (wsh *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for data := range client.Send {
		ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
			return
		}
	}
}
