package realtime

import (
	"context"
	"net/http"
	"sync"

	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const MessageTypeChange = "change"

// Message is the envelope written to websocket clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Decorator turns a change event into the payload sent to browsers.
type Decorator func(ChangeEvent) interface{}

// Hub keeps the connected dashboard clients and broadcasts to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	done       chan struct{}
	upgrader   websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the cors middleware and the JWT check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAllClients()
			Logger.Log.Infof("websocket hub stopped, %d clients closed", n)
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			Logger.Log.Info("websocket client connected, total clients: ", n)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			Logger.Log.Info("websocket client disconnected, total clients: ", n)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Broadcast queues a message for every client. It never blocks, messages are
// dropped when the hub is saturated.
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	default:
		Logger.Log.Warn("websocket broadcast queue full, dropping message of type ", message.Type)
	}
}

// Forward relays bus events to the websocket clients until ctx is done.
func (h *Hub) Forward(ctx context.Context, bus Bus, decorate Decorator) error {
	events, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for event := range events {
			var data interface{} = event
			if decorate != nil {
				data = decorate(event)
			}
			h.Broadcast(Message{Type: MessageTypeChange, Data: data})
		}
	}()
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client can't keep up, drop it.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Logger.Log.Warn("websocket upgrade failed: ", err)
		return
	}
	client := newClient(h, conn)
	select {
	case h.register <- client:
		client.start()
	case <-h.done:
		conn.Close()
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
