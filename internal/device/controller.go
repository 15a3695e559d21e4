// Package device wires the keyboard source to the WiFi configuration
// workflow the way the board firmware does: one goroutine owns the session,
// joins run in the background and report back over a channel.
package device

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/keyboard"
	"github.com/muurk/cardputer/internal/logging"
	"github.com/muurk/cardputer/internal/wifi"
	"github.com/muurk/cardputer/internal/wificonfig"
)

// ExitFunc is called when a session ends. ssid is the joined network for
// ResultConnected and empty otherwise.
type ExitFunc func(result wificonfig.Result, ssid string)

// Option configures a Controller.
type Option func(*Controller)

// WithJoinOptions bounds each join attempt.
func WithJoinOptions(o wifi.JoinOptions) Option {
	return func(c *Controller) { c.joinOpts = o }
}

// WithTickInterval sets how often the workflow's blink clock is driven.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithOnExit registers the session end hook.
func WithOnExit(f ExitFunc) Option {
	return func(c *Controller) { c.onExit = f }
}

// WithAutoStart begins a scanning session as soon as Run starts.
func WithAutoStart() Option {
	return func(c *Controller) { c.autoStart = true }
}

type joinResult struct {
	ssid string
	ok   bool
}

// Controller runs the idle screen and WiFi sessions over a key event
// stream.
type Controller struct {
	workflow  *wificonfig.Workflow
	display   wificonfig.Display
	connector wifi.Connector
	joinOpts  wifi.JoinOptions
	tick      time.Duration
	onExit    ExitFunc
	autoStart bool
	log       *zap.Logger

	results   chan joinResult
	connected string
}

// NewController creates a controller. The workflow's connect callback is
// replaced so joins go through connector.
func NewController(w *wificonfig.Workflow, display wificonfig.Display, connector wifi.Connector, opts ...Option) *Controller {
	c := &Controller{
		workflow:  w,
		display:   display,
		connector: connector,
		tick:      50 * time.Millisecond,
		log:       logging.Named("device"),
		results:   make(chan joinResult, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected returns the SSID of the last successful session. It is only
// safe to call from the exit hook or after Run returns.
func (c *Controller) Connected() string {
	return c.connected
}

// Run processes events until ctx is cancelled or the event channel closes.
func (c *Controller) Run(ctx context.Context, events <-chan keyboard.KeyEvent) error {
	c.workflow.SetConnectFunc(func(ssid, password string) {
		go c.join(ctx, ssid, password)
	})

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	if c.autoStart {
		c.workflow.Start(ctx)
	} else {
		c.showIdle()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				c.log.Info("Key event stream closed")
				return nil
			}
			c.handleKey(ctx, ev)
		case r := <-c.results:
			c.log.Debug("Join finished", zap.String("ssid", r.ssid), zap.Bool("ok", r.ok))
			c.workflow.OnConnectResult(r.ok)
		case now := <-ticker.C:
			if c.workflow.IsActive() {
				c.workflow.Tick(now)
			}
		}
	}
}

func (c *Controller) handleKey(ctx context.Context, ev keyboard.KeyEvent) {
	if !c.workflow.IsActive() {
		if !ev.Pressed || ev.IsModifier {
			return
		}
		switch ev.Code {
		case keyboard.KeyW:
			c.workflow.Start(ctx)
		case keyboard.KeyS:
			c.workflow.StartWithSavedList()
		}
		return
	}

	switch res := c.workflow.HandleKeyEvent(ev); res {
	case wificonfig.ResultConnected:
		c.connected = c.workflow.Target()
		c.exit(res, c.connected)
	case wificonfig.ResultCancelled:
		c.exit(res, "")
	}
}

func (c *Controller) exit(res wificonfig.Result, ssid string) {
	c.log.Info("WiFi session ended", zap.Stringer("result", res), zap.String("ssid", ssid))
	if c.onExit != nil {
		c.onExit(res, ssid)
	}
	c.showIdle()
}

// join runs off the controller goroutine and hands its result back.
func (c *Controller) join(ctx context.Context, ssid, password string) {
	ok := wifi.Join(ctx, c.connector, ssid, password, c.joinOpts)
	select {
	case c.results <- joinResult{ssid: ssid, ok: ok}:
	case <-ctx.Done():
	}
}

var (
	idleTitleStyle = lipgloss.NewStyle().
			Foreground(wificonfig.HeaderColor).
			Bold(true)

	idleStatusStyle = lipgloss.NewStyle().
			Foreground(wificonfig.SelectedColor)

	idleHintStyle = lipgloss.NewStyle().
			Foreground(wificonfig.SubtleColor)
)

// IdleFrame renders the screen shown between sessions.
func IdleFrame(connected string) string {
	status := "WiFi: not connected"
	if connected != "" {
		status = "WiFi: " + connected
	}
	lines := []string{
		idleTitleStyle.Render("Cardputer"),
		"",
		idleStatusStyle.Render(status),
		"",
		idleHintStyle.Render("W  WiFi setup"),
		idleHintStyle.Render("S  Saved WiFi"),
	}
	return lipgloss.NewStyle().Width(wificonfig.ScreenColumns).Render(strings.Join(lines, "\n"))
}

func (c *Controller) showIdle() {
	if c.display != nil {
		c.display.Show(IdleFrame(c.connected))
	}
}
