// Package broadcast pushes controller events to WebSocket clients as JSON.
package broadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/allbin/trafficlight"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	clientQueueSize = 64
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = 30 * time.Second
)

// Message types
const (
	TypeEvent = "event"
	TypeState = "state"
)

// Message is the JSON document sent to clients
type Message struct {
	Type      string    `json:"type"`
	Direction string    `json:"direction,omitempty"`
	Light     string    `json:"light"`
	Data      string    `json:"data,omitempty"`
	Time      time.Time `json:"time"`
}

// EventMessage converts an event to its JSON form
func EventMessage(ev trafficlight.Event) Message {
	return Message{
		Type:      TypeEvent,
		Direction: ev.Direction.String(),
		Light:     ev.Light.String(),
		Data:      trafficlight.HexData(ev.Data),
		Time:      ev.Timestamp,
	}
}

// StateMessage converts a state snapshot to its JSON form
func StateMessage(state trafficlight.State) Message {
	return Message{
		Type:  TypeState,
		Light: state.Light.String(),
		Time:  state.Since,
	}
}

// Hub fans events out to every connected client. A client that cannot keep
// up loses messages instead of slowing the controller down.
type Hub struct {
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[int64]*client
	nextID  int64
	state   *Message
	closed  bool
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[int64]*client),
	}
}

// SetState sets the state sent to clients when they connect, unless an
// observed event already reported a newer one
func (h *Hub) SetState(state trafficlight.State) {
	msg := StateMessage(state)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != nil && h.state.Time.After(state.Since) {
		return
	}
	h.state = &msg
}

// Observe queues ev for every client. It never blocks.
func (h *Hub) Observe(ev trafficlight.Event) {
	msg := EventMessage(ev)

	h.mu.Lock()
	defer h.mu.Unlock()

	if ev.Direction == trafficlight.DirectionIn && ev.Light.NeedsAck() {
		state := StateMessage(trafficlight.State{Light: ev.Light, Since: ev.Timestamp})
		h.state = &state
	}
	for _, c := range h.clients {
		c.send(msg)
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.nextID++
	c := newClient(h.nextID, conn, h.logger)
	h.clients[c.id] = c
	if h.state != nil {
		c.send(*h.state)
	}
	h.mu.Unlock()

	h.logger.Info().Int64("client", c.id).Str("remote", r.RemoteAddr).Msg("client connected")

	go c.writePump()
	c.readPump()

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	h.logger.Info().Int64("client", c.id).Msg("client disconnected")
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, c := range h.clients {
		c.close()
	}
	return nil
}

type client struct {
	id     int64
	conn   *websocket.Conn
	logger zerolog.Logger
	queue  chan Message
	done   chan struct{}
	once   sync.Once
}

func newClient(id int64, conn *websocket.Conn, logger zerolog.Logger) *client {
	return &client{
		id:     id,
		conn:   conn,
		logger: logger,
		queue:  make(chan Message, clientQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *client) send(msg Message) {
	select {
	case c.queue <- msg:
	case <-c.done:
	default:
		c.logger.Debug().Int64("client", c.id).Msg("client queue full, dropping message")
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump discards client messages and notices when the client leaves
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Int64("client", c.id).Msg("websocket read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Int64("client", c.id).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
