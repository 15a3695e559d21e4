package wificonfig

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/keyboard"
	"github.com/muurk/cardputer/internal/logging"
	"github.com/muurk/cardputer/internal/wifi"
)

const (
	// MaxVisibleItems is the number of list rows that fit on screen.
	MaxVisibleItems = 4
	// MaxInputLength caps the SSID and password buffers, in characters.
	MaxInputLength = 64
	// DefaultBlinkInterval is the cursor blink period.
	DefaultBlinkInterval = 500 * time.Millisecond
)

// Display shows one rendered frame of the device screen.
type Display interface {
	Show(frame string)
}

// CredentialStore is the saved network list. The workflow reloads its copy
// after every mutation.
type CredentialStore interface {
	List() []wifi.Credential
	Save(ssid, password string) error
	RemoveAt(i int) error
}

// ConnectFunc starts a join for (ssid, password) and returns immediately.
// The outcome must be reported later through OnConnectResult.
type ConnectFunc func(ssid, password string)

// Option configures a Workflow.
type Option func(*Workflow)

// WithConnectFunc sets the connection request callback.
func WithConnectFunc(f ConnectFunc) Option {
	return func(w *Workflow) { w.connect = f }
}

// WithBlinkInterval overrides the cursor blink period.
func WithBlinkInterval(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.blink = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// Workflow is the WiFi configuration session: a scan, a network pick or
// manual entry, a password prompt and a join attempt. It is not safe for
// concurrent use; one goroutine drives it.
type Workflow struct {
	display Display
	scanner wifi.Scanner
	store   CredentialStore
	connect ConnectFunc
	now     func() time.Time
	blink   time.Duration
	log     *zap.Logger

	keys keyMap
	help help.Model

	state    State
	active   bool
	scanning bool

	results  []wifi.ScanResult
	selected int
	scroll   int

	saved         []wifi.Credential
	savedSelected int
	savedScroll   int

	ssidInput     string
	password      string
	target        string
	focusPassword bool

	cursorVisible bool
	lastToggle    time.Time

	frame string
}

// New creates an inactive workflow.
func New(display Display, scanner wifi.Scanner, store CredentialStore, opts ...Option) *Workflow {
	w := &Workflow{
		display:       display,
		scanner:       scanner,
		store:         store,
		now:           time.Now,
		blink:         DefaultBlinkInterval,
		log:           logging.Named("wificonfig"),
		keys:          defaultKeyMap(),
		help:          help.New(),
		cursorVisible: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.help.ShortSeparator = " "
	return w
}

// SetConnectFunc replaces the connection request callback.
func (w *Workflow) SetConnectFunc(f ConnectFunc) {
	w.connect = f
}

func (w *Workflow) reset() {
	w.active = true
	w.selected, w.scroll = 0, 0
	w.savedSelected, w.savedScroll = 0, 0
	w.ssidInput, w.password, w.target = "", "", ""
	w.focusPassword = false
	w.cursorVisible = true
	w.lastToggle = w.now()
}

// Start begins a session: it loads the saved networks and runs a blocking
// scan. With results the session moves to SelectWifi; without, it stays in
// Scanning showing the no-networks screen.
func (w *Workflow) Start(ctx context.Context) {
	w.log.Info("Starting WiFi configuration")
	w.reset()
	w.loadSaved()
	w.setState(StateScanning)

	w.scanning = true
	w.render()
	results, err := w.scanner.Scan(ctx)
	w.scanning = false
	if err != nil {
		w.log.Warn("WiFi scan failed", zap.Error(err))
		results = nil
	}
	w.results = wifi.Normalize(results)
	w.log.Info("WiFi scan complete", zap.Int("networks", len(w.results)))

	if len(w.results) > 0 {
		w.setState(StateSelectWifi)
	}
	w.render()
}

// StartWithSavedList begins a session on the saved network list without
// scanning.
func (w *Workflow) StartWithSavedList() {
	w.log.Info("Starting WiFi configuration with saved list")
	w.reset()
	w.results = nil
	w.showSavedList()
}

// IsActive reports whether a session is running.
func (w *Workflow) IsActive() bool {
	return w.active
}

// HandleKeyEvent feeds one key event to the session. Releases and modifier
// keys are ignored. Esc on the scan screens ends the session; once ended,
// every key reports ResultCancelled.
func (w *Workflow) HandleKeyEvent(ev keyboard.KeyEvent) Result {
	if !ev.Pressed || ev.IsModifier {
		return ResultNone
	}

	if w.matches(ev, w.keys.Back) && (w.state == StateScanning || w.state == StateSelectWifi) {
		w.active = false
		w.log.Info("WiFi configuration cancelled", zap.Stringer("state", w.state))
		return ResultCancelled
	}

	if !w.active {
		return ResultCancelled
	}

	switch w.state {
	case StateScanning:
		w.handleScanning(ev)
	case StateSelectWifi:
		w.handleSelectWifi(ev)
	case StateInputPassword:
		w.handlePasswordInput(ev)
	case StateInputSSID, StateInputManualPwd:
		w.handleManualInput(ev)
	case StateSavedList:
		w.handleSavedList(ev)
	case StateConnecting:
		// no input while a join is outstanding
	case StateSuccess:
		if w.matches(ev, w.keys.Confirm) {
			w.active = false
			w.log.Info("WiFi configuration finished", zap.String("ssid", w.target))
			return ResultConnected
		}
	case StateFailed:
		w.handleFailed(ev)
	}

	if !w.active {
		return ResultCancelled
	}
	return ResultNone
}

// OnConnectResult reports the outcome of the join requested by the last
// transition to Connecting. Results arriving in any other state are stale
// and ignored.
func (w *Workflow) OnConnectResult(ok bool) {
	if !w.active || w.state != StateConnecting {
		w.log.Debug("Ignoring stale connect result",
			zap.Bool("ok", ok),
			zap.Bool("active", w.active),
			zap.Stringer("state", w.state),
		)
		return
	}

	if !ok {
		w.log.Warn("WiFi connection failed", zap.String("ssid", w.target))
		w.setState(StateFailed)
		w.render()
		return
	}

	if err := w.store.Save(w.target, w.password); err != nil {
		w.log.Error("Failed to save WiFi credentials", zap.String("ssid", w.target), zap.Error(err))
	}
	w.loadSaved()
	w.log.Info("WiFi connected", zap.String("ssid", w.target))
	w.setState(StateSuccess)
	w.render()
}

// Tick drives the cursor blink. It toggles the cursor once at least the
// blink interval has passed since the last toggle and redraws the text
// entry screens without touching their buffers.
func (w *Workflow) Tick(now time.Time) {
	if now.Sub(w.lastToggle) < w.blink {
		return
	}
	w.cursorVisible = !w.cursorVisible
	w.lastToggle = now
	if w.active && w.state.isTextEntry() {
		w.render()
	}
}

func (w *Workflow) setState(s State) {
	if w.state != s {
		logging.LogStateTransition(w.state.String(), s.String())
	}
	w.state = s
}

func (w *Workflow) loadSaved() {
	w.saved = w.store.List()
}

// attemptConnection shows the connecting screen and hands the join to the
// connect callback.
func (w *Workflow) attemptConnection() {
	w.setState(StateConnecting)
	w.render()

	w.log.Info("Requesting WiFi connection",
		zap.String("ssid", w.target),
		logging.Secret("password", w.password),
	)
	if w.connect == nil {
		w.log.Warn("No connect callback registered; session will wait in connecting state")
		return
	}
	w.connect(w.target, w.password)
}

// State returns the current screen.
func (w *Workflow) State() State { return w.state }

// Selection returns the scan list cursor and scroll offset.
func (w *Workflow) Selection() (index, scroll int) { return w.selected, w.scroll }

// SavedSelection returns the saved list cursor and scroll offset.
func (w *Workflow) SavedSelection() (index, scroll int) { return w.savedSelected, w.savedScroll }

// Password returns the password buffer.
func (w *Workflow) Password() string { return w.password }

// SSIDInput returns the manual SSID buffer.
func (w *Workflow) SSIDInput() string { return w.ssidInput }

// Target returns the SSID of the network being joined.
func (w *Workflow) Target() string { return w.target }

// FocusOnPassword reports whether manual entry edits the password field.
func (w *Workflow) FocusOnPassword() bool { return w.focusPassword }

// CursorVisible reports the blink phase.
func (w *Workflow) CursorVisible() bool { return w.cursorVisible }

// ScanResults returns a copy of the last scan.
func (w *Workflow) ScanResults() []wifi.ScanResult {
	return append([]wifi.ScanResult(nil), w.results...)
}

// Saved returns a copy of the cached saved networks.
func (w *Workflow) Saved() []wifi.Credential {
	return append([]wifi.Credential(nil), w.saved...)
}

// Frame returns the last rendered frame.
func (w *Workflow) Frame() string { return w.frame }
