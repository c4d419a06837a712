package feed

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/logger"
)

const (
	// DefaultWriteWait is the time allowed to write one message
	DefaultWriteWait = 10 * time.Second
	// DefaultPongWait is the time allowed between two pongs
	DefaultPongWait = 60 * time.Second

	maxClientMessage = 1024
)

// MessageTypeLinks tags a full collection message
const MessageTypeLinks = "links"

// Message is what clients receive: the whole collection in display order.
type Message struct {
	Type  string        `json:"type"`
	Count int           `json:"count"`
	Links []domain.Link `json:"links"`
}

// Source is the live view the hub mirrors to its clients.
type Source interface {
	Links() []domain.Link
	OnChange(fn func([]domain.Link)) (stop func())
}

// Options tunes the hub. Zero values fall back to the defaults.
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	AllowedOrigins []string // empty = any origin
}

// Hub fans collection changes out to websocket clients.
type Hub struct {
	source   Source
	logger   logger.Logger
	opts     Options
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	stop    func()
	closed  bool
}

// client holds at most one unsent message. Every message carries the whole
// collection, so a newer one simply replaces whatever is still pending.
type client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	pending *Message
	wake    chan struct{} // cap 1, signals a pending message
	done    chan struct{}
	once    sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// offer replaces the pending message with msg and wakes the writer.
func (c *client) offer(msg Message) {
	c.mu.Lock()
	c.pending = &msg
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *client) take() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Message{}, false
	}
	msg := *c.pending
	c.pending = nil
	return msg, true
}

// NewHub creates a hub over source. Call Start to follow changes.
func NewHub(source Source, log logger.Logger, opts Options) *Hub {
	if opts.WriteWait <= 0 {
		opts.WriteWait = DefaultWriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = DefaultPongWait
	}

	h := &Hub{
		source:  source,
		logger:  log,
		opts:    opts,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Start subscribes the hub to source changes
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop == nil && !h.closed {
		h.stop = h.source.OnChange(h.Broadcast)
	}
}

// Close disconnects every client and stops following the source
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	stop := h.stop
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	if stop != nil {
		stop()
	}
	for _, c := range clients {
		c.shutdown()
	}
	h.logger.Info("live feed hub closed", logger.Int("clients", len(clients)))
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast hands links to every client. A client still busy writing an
// older collection skips straight to this one.
func (h *Hub) Broadcast(links []domain.Link) {
	msg := newMessage(links)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.offer(msg)
	}
}

// ServeHTTP upgrades the request and streams the collection
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Debug("websocket upgrade failed", logger.Error(err))
		return
	}

	c := newClient(conn)

	// Queue the current collection and register under the same lock so no
	// broadcast can slip in between.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.offer(newMessage(h.source.Links()))
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("live feed client connected",
		logger.String("remote_addr", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.shutdown()
}

// readPump only exists to process pongs and notice disconnects
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxClientMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live feed client read error", logger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		h.remove(c)
	}()

	for {
		select {
		case <-c.wake:
			msg, ok := c.take()
			if !ok {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				// includes clients too slow to drain within WriteWait
				h.logger.Debug("live feed write failed", logger.Error(err))
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// shutdown stops the writer; writePump then says goodbye and closes the
// connection, which ends readPump.
func (c *client) shutdown() {
	c.once.Do(func() {
		close(c.done)
	})
}

func newMessage(links []domain.Link) Message {
	if links == nil {
		links = []domain.Link{}
	}
	return Message{Type: MessageTypeLinks, Count: len(links), Links: links}
}
