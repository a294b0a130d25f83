// Package ws pushes per-client views, invalidations and notices over
// WebSocket. Each connection carries its own session scope: the identity it
// connected and the market it selected.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/notify"
	"github.com/sebikillmachin/SUI/internal/service"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 64

	// viewTimeout bounds one view refresh.
	viewTimeout = 15 * time.Second
)

// Message types pushed to clients.
const (
	TypeView       = "view"
	TypeInvalidate = "invalidate"
	TypeNotice     = "notice"
	TypeError      = "error"
)

// channels are the bus channels the hub relays.
var channels = []string{domain.ChannelInvalidate, domain.ChannelNotice}

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the CORS middleware.
		return true
	},
}

// envelope is every frame sent to a client.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// command is a client request: {"type":"connect","owner":"0x.."},
// {"type":"select","market_id":"0x.."} or {"type":"refresh"}.
type command struct {
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	MarketID string `json:"market_id"`
}

// client represents a single WebSocket connection.
type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session *service.Session
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	seq    uint64 // last refresh started
	shown  uint64 // refresh whose view was last queued
}

// Hub manages connected clients. Invalidations trigger a view refresh for
// every client; notices go to clients connected as the notice's owner.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan broadcastMsg
	register   chan *client
	unregister chan *client
	bus        domain.SignalBus
	newSession func() *service.Session
	ready      chan struct{}
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
}

// broadcastMsg carries a message along with its source channel.
type broadcastMsg struct {
	channel string
	data    []byte
}

// NewHub creates a hub relaying bus traffic to clients. newSession creates
// the scope of each new connection.
func NewHub(bus domain.SignalBus, newSession func() *service.Session, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		bus:        bus,
		newSession: newSession,
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "ws")),
	}
}

// Ready is closed once Run has subscribed to the bus.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Run starts the hub's main event loop. It should be called in a goroutine.
// The loop exits when the provided context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for _, ch := range channels {
		msgCh, err := h.bus.Subscribe(ctx, ch)
		if err != nil {
			h.logger.Error("ws: failed to subscribe to channel",
				slog.String("channel", ch),
				slog.String("error", err.Error()),
			)
			continue
		}
		h.logger.Debug("ws: subscribed to channel", slog.String("channel", ch))
		go h.forward(ctx, ch, msgCh)
	}
	close(h.ready)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("ws: client connected",
				slog.Int("total_clients", h.clientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected",
				slog.Int("total_clients", h.clientCount()),
			)

		case msg := <-h.broadcast:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg broadcastMsg) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch msg.channel {
	case domain.ChannelInvalidate:
		var evt domain.InvalidationEvent
		if err := json.Unmarshal(msg.data, &evt); err != nil {
			h.logger.Warn("ws: undecodable invalidation", slog.String("error", err.Error()))
			return
		}
		for c := range h.clients {
			c.push(envelope{Type: TypeInvalidate, Payload: evt})
			go c.refresh()
		}

	case domain.ChannelNotice:
		var n notify.Notice
		if err := json.Unmarshal(msg.data, &n); err != nil {
			h.logger.Warn("ws: undecodable notice", slog.String("error", err.Error()))
			return
		}
		if n.Expired(time.Now()) {
			h.logger.Debug("ws: dropping expired notice", slog.String("notice_id", n.ID))
			return
		}
		for c := range h.clients {
			owner, _ := c.session.Scope()
			if n.Owner == "" || n.Owner == owner {
				c.push(envelope{Type: TypeNotice, Payload: n})
			}
		}
	}
}

// forward relays messages from one bus subscription to the hub's broadcast
// channel.
func (h *Hub) forward(ctx context.Context, channel string, msgCh <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgCh:
			if !ok {
				h.logger.Warn("ws: channel subscription closed",
					slog.String("channel", channel),
				)
				return
			}
			select {
			case h.broadcast <- broadcastMsg{channel: channel, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub. The owner and market_id query parameters set the
// initial scope.
// GET /ws?owner=0x..&market_id=0x..
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		session: h.newSession(),
		ctx:     ctx,
		cancel:  cancel,
	}
	q := r.URL.Query()
	c.session.Connect(q.Get("owner"))
	c.session.Select(q.Get("market_id"))

	select {
	case h.register <- c:
	case <-h.done:
		cancel()
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
	go c.refresh()
}

// clientCount returns the number of currently connected clients.
func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// push queues a frame, dropping it when the client is slow or gone.
func (c *client) push(e envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueLocked(e.Type, data)
}

// pushView queues the view loaded by refresh seq unless a later refresh has
// already queued its own.
func (c *client) pushView(seq uint64, v service.View) {
	data, err := json.Marshal(envelope{Type: TypeView, Payload: v})
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.shown {
		return
	}
	c.shown = seq
	c.enqueueLocked(TypeView, data)
}

func (c *client) enqueueLocked(typ string, data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("ws: dropping message for slow client", slog.String("type", typ))
	}
}

func (c *client) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// refresh loads the client's view and pushes it. A view whose scope changed
// while loading is dropped; the scope change queued its own refresh. Views
// finishing out of order never replace a newer one.
func (c *client) refresh() {
	seq := c.nextSeq()
	ctx, cancel := context.WithTimeout(c.ctx, viewTimeout)
	defer cancel()

	v, err := c.session.View(ctx)
	switch {
	case errors.Is(err, domain.ErrStaleScope), c.ctx.Err() != nil:
		return
	case err != nil:
		c.hub.logger.Warn("ws: view refresh failed", slog.String("error", err.Error()))
		c.push(envelope{Type: TypeError, Payload: map[string]string{"error": "failed to load view"}})
		return
	}
	c.pushView(seq, v)
}

func (c *client) close() {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads scope commands from the WebSocket connection.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}
		switch cmd.Type {
		case "connect":
			c.session.Connect(cmd.Owner)
		case "select":
			c.session.Select(cmd.MarketID)
		case "refresh":
		default:
			continue
		}
		go c.refresh()
	}
}

// writePump pumps messages from the hub to the WebSocket connection as text
// frames and sends periodic pings for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
