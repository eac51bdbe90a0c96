package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/models"
)

const (
	JoinStaffRoom    = "join_staff_room"
	JoinCustomerRoom = "join_customer_room"
	Joined           = "joined"

	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = 50 * time.Second
	queueSize = 64
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub is the websocket Publisher. Each connection has its own queue and
// writer goroutine, so events reach one client in publish order; a client
// that falls behind loses events rather than blocking publishers.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	groups   map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		clients: map[*client]struct{}{},
		groups:  map[string]map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.WithField("component", "hub"),
	}
}

func (h *Hub) Name() string { return "websocket" }

// Clients reports how many connections are open.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request. ?room=staff or ?table=<n> joins a group
// straight away; clients may also send join messages later.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, queueSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	q := r.URL.Query()
	if q.Get("room") == GroupStaff {
		h.join(c, GroupStaff)
	}
	if table := models.TableNumber(q.Get("table")); table.Valid() {
		h.join(c, TableGroup(string(table)))
	}

	h.readLoop(c)
}

type joinMessage struct {
	Event       string             `json:"event"`
	TableNumber models.TableNumber `json:"table_number"`
}

func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg joinMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Debug("websocket closed")
			}
			return
		}
		switch msg.Event {
		case JoinStaffRoom:
			h.join(c, GroupStaff)
		case JoinCustomerRoom:
			if msg.TableNumber.Valid() {
				h.join(c, TableGroup(string(msg.TableNumber)))
			}
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) join(c *client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = map[*client]struct{}{}
		h.groups[group] = members
	}
	members[c] = struct{}{}

	ack, _ := json.Marshal(Event{Name: Joined, Group: group, Payload: map[string]string{"room": group}, At: time.Now()})
	h.enqueue(c, ack)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	for g, members := range h.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, g)
		}
	}
	c.close()
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.log.Warn("client queue full, dropping event")
	}
}

func (h *Hub) Publish(_ context.Context, e Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if e.Group == "" {
		for c := range h.clients {
			h.enqueue(c, msg)
		}
		return nil
	}
	for c := range h.groups[e.Group] {
		h.enqueue(c, msg)
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
	h.groups = map[string]map[*client]struct{}{}
}
