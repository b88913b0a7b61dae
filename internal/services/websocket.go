package services

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the timeout for one outbound frame.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead; pingInterval must be shorter.
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second

	maxMessageSize = 8192

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents one live WebSocket connection. The transport layer owns
// its lifecycle; the registry only tracks membership.
type Client struct {
	ID       uint
	UserType string
	Conn     *websocket.Conn
	Send     chan []byte
	hub      *Hub

	// mutex orders trySend against closeSend. A publisher may hold a
	// membership snapshot taken before the client disconnected; without
	// this it would send on a closed channel.
	mutex  sync.Mutex
	closed bool
}

// trySend queues data for the client without blocking. Returns false when
// the client's buffer is full or the client has been torn down; the event
// is simply dropped for that member.
func (c *Client) trySend(data []byte) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend ends the client's send queue. Idempotent.
func (c *Client) closeSend() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Hub owns the connection lifecycle and wires inbound events to the relay
// services.
type Hub struct {
	store      Store
	registry   *Registry
	dispatcher *Dispatcher
	engine     *StatusEngine
	chat       *ChatService

	register   chan *Client
	unregister chan *Client
}

// NewHub creates the connection hub
func NewHub(store Store, registry *Registry, dispatcher *Dispatcher, engine *StatusEngine, chat *ChatService) *Hub {
	return &Hub{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		engine:     engine,
		chat:       chat,
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes connect and disconnect events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			// LeaveAll is the one path that fully removes the client;
			// in-flight operations it started complete normally.
			h.registry.LeaveAll(client)
			client.closeSend()
			log.Printf("Client %d disconnected", client.ID)
		}
	}
}

// ServeWS upgrades the request and starts the connection's pumps
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint, userType string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:       userID,
		UserType: userType,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		hub:      h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads inbound events from the connection and dispatches them.
// Each event is an independent unit of work and may block on persistence.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.handleEvent(message)
	}
}

// writePump writes queued events and keepalive pings to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
