package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
)

type recordInjector struct {
	mu   sync.Mutex
	keys []string
	err  error
	got  chan string
}

func newRecordInjector() *recordInjector {
	return &recordInjector{got: make(chan string, 16)}
}

func (r *recordInjector) Key(name string) error {
	r.mu.Lock()
	r.keys = append(r.keys, name)
	err := r.err
	r.mu.Unlock()
	r.got <- name
	return err
}

// startServer serves a read-only console when injector is nil.
func startServer(t *testing.T, hub *Hub, injector *recordInjector) *httptest.Server {
	t.Helper()
	var inj KeyInjector
	if injector != nil {
		inj = injector
	}
	ts := httptest.NewServer(NewServer(hub, inj, Config{}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func nextFrame(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case f, ok := <-c.Frames():
		if !ok {
			t.Fatal("frame channel closed")
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return ""
}

func nextError(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case e := <-c.Errors():
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error message")
	}
	return ""
}

func waitClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Clients() = %d, want %d", hub.Clients(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a := hub.register()
	b := hub.register()

	hub.Show("screen")
	for _, c := range []*client{a, b} {
		select {
		case data := <-c.send:
			if !strings.Contains(string(data), `"frame":"screen"`) {
				t.Errorf("message = %s", data)
			}
		default:
			t.Fatal("client did not receive the frame")
		}
	}
	if hub.Frame() != "screen" {
		t.Errorf("Frame() = %q, want screen", hub.Frame())
	}

	hub.unregister(a)
	if hub.Clients() != 1 {
		t.Errorf("Clients() = %d, want 1", hub.Clients())
	}
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	c := hub.register()

	const total = sendBuffer * 3
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			hub.Show(fmt.Sprintf("frame %d", i))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Show blocked on a slow client")
	}
	if len(c.send) != sendBuffer {
		t.Fatalf("queued = %d, want %d", len(c.send), sendBuffer)
	}

	// the oldest frames are dropped; the newest always survives
	for i := total - sendBuffer; i < total; i++ {
		var msg Message
		if err := json.Unmarshal(<-c.send, &msg); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if want := fmt.Sprintf("frame %d", i); msg.Frame != want {
			t.Errorf("queued frame = %q, want %q", msg.Frame, want)
		}
	}
}

func TestServerSendsFrames(t *testing.T) {
	hub := NewHub()
	hub.Show("first")
	ts := startServer(t, hub, newRecordInjector())

	c := dial(t, ts)
	if got := nextFrame(t, c); got != "first" {
		t.Fatalf("initial frame = %q, want first", got)
	}
	waitClients(t, hub, 1)

	hub.Show("second")
	if got := nextFrame(t, c); got != "second" {
		t.Fatalf("frame = %q, want second", got)
	}

	_ = c.Close()
	waitClients(t, hub, 0)
}

func TestServerForwardsKeys(t *testing.T) {
	hub := NewHub()
	inj := newRecordInjector()
	ts := startServer(t, hub, inj)
	c := dial(t, ts)

	for _, k := range []string{"enter", "a", "esc"} {
		if err := c.SendKey(k); err != nil {
			t.Fatalf("SendKey(%q) error = %v", k, err)
		}
		select {
		case got := <-inj.got:
			if got != k {
				t.Errorf("injected %q, want %q", got, k)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("key %q not injected", k)
		}
	}
}

func TestServerReportsRejectedKeys(t *testing.T) {
	t.Run("injector error", func(t *testing.T) {
		inj := newRecordInjector()
		inj.err = errors.New(`unknown key "f13"`)
		ts := startServer(t, NewHub(), inj)
		c := dial(t, ts)

		_ = c.SendKey("f13")
		if got := nextError(t, c); !strings.Contains(got, "f13") {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("read-only", func(t *testing.T) {
		ts := startServer(t, NewHub(), nil)
		c := dial(t, ts)

		_ = c.SendKey("enter")
		if got := nextError(t, c); got != "console is read-only" {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		ts := startServer(t, NewHub(), newRecordInjector())
		c := dial(t, ts)

		c.writeMu.Lock()
		err := c.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"frame","frame":"x"}`))
		c.writeMu.Unlock()
		if err != nil {
			t.Fatal(err)
		}
		if got := nextError(t, c); !strings.Contains(got, "unsupported") {
			t.Errorf("error = %q", got)
		}
	})
}

func TestFrameEndpoint(t *testing.T) {
	hub := NewHub()
	hub.Show("Select WiFi")
	ts := startServer(t, hub, nil)

	resp, err := http.Get(ts.URL + "/frame")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "Select WiFi\n" {
		t.Errorf("GET /frame = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Post(ts.URL+"/frame", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /frame = %d, want 405", resp.StatusCode)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	hub := NewHub()
	srv := NewServer(hub, nil, Config{})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	dctx, dcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dcancel()
	c, err := Dial(dctx, listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client connection not closed on shutdown")
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"192.168.1.20:8787", "ws://192.168.1.20:8787/ws"},
		{"host:1/", "ws://host:1/ws"},
		{"ws://host:1/ws", "ws://host:1/ws"},
		{"wss://host/console", "wss://host/console"},
	}
	for _, tt := range tests {
		if got := URL(tt.in); got != tt.want {
			t.Errorf("URL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseServiceEntry(t *testing.T) {
	entry := func(host string, port int, v4, v6 []net.IP, text ...string) *zeroconf.ServiceEntry {
		e := zeroconf.NewServiceEntry("cardputer-lab", ServiceType, ServiceDomain)
		e.HostName = host
		e.Port = port
		e.AddrIPv4 = v4
		e.AddrIPv6 = v6
		e.Text = text
		return e
	}

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantAddr string
	}{
		{
			name:     "IPv4",
			entry:    entry("lab.local.", 8787, []net.IP{net.ParseIP("192.168.1.20")}, nil, "version=v1.0.0"),
			wantAddr: "192.168.1.20:8787",
		},
		{
			name:     "prefers IPv4",
			entry:    entry("lab.local.", 9000, []net.IP{net.ParseIP("10.0.0.2")}, []net.IP{net.ParseIP("fe80::1")}),
			wantAddr: "10.0.0.2:9000",
		},
		{
			name:     "IPv6 only",
			entry:    entry("lab.local.", 8787, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantAddr: "[fe80::1]:8787",
		},
		{
			name:    "no address",
			entry:   entry("lab.local.", 8787, nil, nil),
			wantNil: true,
		},
		{
			name:    "no port",
			entry:   entry("lab.local.", 0, []net.IP{net.ParseIP("192.168.1.20")}, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if c != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", c)
				}
				return
			}
			if c == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil console")
			}
			if c.Address() != tt.wantAddr {
				t.Errorf("Address() = %q, want %q", c.Address(), tt.wantAddr)
			}
			if c.Instance != "cardputer-lab" {
				t.Errorf("Instance = %q", c.Instance)
			}
		})
	}

	c := parseServiceEntry(entry("lab.local.", 8787, []net.IP{net.ParseIP("192.168.1.20")}, nil, "version=v1.0.0", "flag"))
	if c.Metadata["version"] != "v1.0.0" {
		t.Errorf("Metadata[version] = %q", c.Metadata["version"])
	}
	if v, ok := c.Metadata["flag"]; !ok || v != "" {
		t.Errorf("Metadata[flag] = %q, %v", v, ok)
	}
}
