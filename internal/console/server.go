package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// DefaultPort is the default console port
	DefaultPort = 8787
)

// KeyInjector taps a named key on the device keypad.
type KeyInjector interface {
	Key(name string) error
}

// Config holds the server configuration
type Config struct {
	Host string
	Port int
}

// Server serves the console websocket and the latest frame.
type Server struct {
	config   Config
	hub      *Hub
	injector KeyInjector
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a console server. injector may be nil for a view-only
// console.
func NewServer(hub *Hub, injector KeyInjector, config Config) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	return &Server{
		config:   config,
		hub:      hub,
		injector: injector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:   logging.Named("console"),
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes: /ws and /frame.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/frame", s.handleFrame)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then closes every client.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("Console listening", zap.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeAll()
		s.wg.Wait()
		s.log.Info("Console stopped")
		return err
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, s.hub.Frame())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "console_connected")

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	c := s.hub.register()
	done := make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.writePump(conn, c, done)
	}()

	s.readPump(conn, c)

	close(done)
	s.hub.unregister(c)
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
	logging.LogConnection(remoteAddr, "console_disconnected")
}

// readPump handles inbound key messages until the connection fails.
func (s *Server) readPump(conn *websocket.Conn, c *client) {
	remoteAddr := conn.RemoteAddr().String()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info("Console connection closed with error",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(c, Message{Type: TypeError, Error: "invalid message"})
			continue
		}
		if msg.Type != TypeKey {
			s.reply(c, Message{Type: TypeError, Error: fmt.Sprintf("unsupported message type %q", msg.Type)})
			continue
		}
		if s.injector == nil {
			s.reply(c, Message{Type: TypeError, Error: "console is read-only"})
			continue
		}

		s.log.Debug("Console key", zap.String("remote_addr", remoteAddr), zap.String("key", msg.Key))
		if err := s.injector.Key(msg.Key); err != nil {
			s.reply(c, Message{Type: TypeError, Error: err.Error()})
		}
	}
}

func (s *Server) reply(c *client, msg Message) {
	data, _ := json.Marshal(msg)
	select {
	case c.send <- data:
	default:
	}
}

// writePump sends queued messages and keepalive pings.
func (s *Server) writePump(conn *websocket.Conn, c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
