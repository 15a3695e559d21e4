package console

import (
	"encoding/json"
	"sync"
)

// Message types.
const (
	TypeFrame = "frame"
	TypeKey   = "key"
	TypeError = "error"
)

// Message is one websocket payload in either direction.
type Message struct {
	Type  string `json:"type"`
	Frame string `json:"frame,omitempty"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error,omitempty"`
}

// sendBuffer is the number of outbound messages queued per client. A client
// that falls further behind loses its oldest queued messages, never the
// newest frame.
const sendBuffer = 8

type client struct {
	send chan []byte
}

// offer queues data without blocking, discarding the oldest queued message
// while the buffer is full.
func (c *client) offer(data []byte) {
	for {
		select {
		case c.send <- data:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// Hub keeps the latest screen frame and fans it out to connected clients.
// It implements wificonfig.Display.
type Hub struct {
	mu      sync.Mutex
	frame   string
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Show records frame and broadcasts it.
func (h *Hub) Show(frame string) {
	data, _ := json.Marshal(Message{Type: TypeFrame, Frame: frame})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = frame
	for c := range h.clients {
		c.offer(data)
	}
}

// Frame returns the latest frame.
func (h *Hub) Frame() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register adds a client and queues the current frame for it.
func (h *Hub) register() *client {
	c := &client{send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.frame != "" {
		data, _ := json.Marshal(Message{Type: TypeFrame, Frame: h.frame})
		c.send <- data
	}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}
