package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/engine"
)

const (
	writeWait   = 5 * time.Second
	clientQueue = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is one message on the /api/events feed.
type Event struct {
	Type        string              `json:"type"`
	State       engine.State        `json:"state,omitempty"`
	Translation *engine.Translation `json:"translation,omitempty"`
	Limited     *bool               `json:"limited,omitempty"`
	Status      *engine.Status      `json:"status,omitempty"`
}

// Event types.
const (
	EventState       = "state"
	EventResult      = "result"
	EventRateLimited = "rate_limited"
	EventStatus      = "status"
)

// EventHub broadcasts engine events to websocket clients. It implements
// engine.Presenter. Slow clients lose messages rather than stall the engine.
type EventHub struct {
	status  func() engine.Status
	log     zerolog.Logger
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *hubClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewEventHub creates a hub. status, if set, is sent to each new client.
func NewEventHub(status func() engine.Status, log zerolog.Logger) *EventHub {
	return &EventHub{
		status:  status,
		log:     log.With().Str("component", "events").Logger(),
		clients: make(map[*hubClient]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, clientQueue)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if h.status != nil {
		st := h.status()
		h.deliver(c, Event{Type: EventStatus, Status: &st})
	}

	go h.writeLoop(c)

	// Reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *EventHub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// remove unregisters c. Channels are only closed under h.mu so no send
// can race the close.
func (h *EventHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	c.close()
}

func (h *EventHub) deliver(c *hubClient, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *EventHub) broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug().Str("type", ev.Type).Msg("client queue full, event dropped")
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.close()
	}
	h.clients = make(map[*hubClient]struct{})
}

func (h *EventHub) State(s engine.State) {
	h.broadcast(Event{Type: EventState, State: s})
}

func (h *EventHub) Result(t engine.Translation) {
	h.broadcast(Event{Type: EventResult, Translation: &t})
}

func (h *EventHub) RateLimited(limited bool) {
	h.broadcast(Event{Type: EventRateLimited, Limited: &limited})
}
