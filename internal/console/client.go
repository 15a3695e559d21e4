package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a connection to a remote console.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	frames  chan string
	errors  chan string
	done    chan struct{}
	closing chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

// URL turns "host:port" into the console websocket URL. Full ws:// and
// wss:// URLs are returned unchanged.
func URL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + strings.TrimSuffix(addr, "/") + "/ws"
}

// Dial connects to the console at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, URL(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to console %s: %w", addr, err)
	}
	c := &Client{
		conn:    conn,
		frames:  make(chan string, sendBuffer),
		errors:  make(chan string, sendBuffer),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Frames delivers screen frames. It is closed when the connection ends.
func (c *Client) Frames() <-chan string { return c.frames }

// Errors delivers key rejections reported by the console.
func (c *Client) Errors() <-chan string { return c.errors }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SendKey taps a named key on the remote keypad.
func (c *Client) SendKey(name string) error {
	data, err := json.Marshal(Message{Type: TypeKey, Key: name})
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send key %q: %w", name, err)
	}
	return nil
}

// Close sends a close frame and tears down the connection.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.closing) })
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.frames)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case TypeFrame:
			select {
			case c.frames <- msg.Frame:
			case <-c.closing:
				return
			}
		case TypeError:
			select {
			case c.errors <- msg.Error:
			default:
			}
		}
	}
}
