package wificonfig

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muurk/cardputer/internal/keyboard"
	"github.com/muurk/cardputer/internal/wifi"
)

type fakeScanner struct {
	results []wifi.ScanResult
	err     error
	calls   int
}

func (s *fakeScanner) Scan(ctx context.Context) ([]wifi.ScanResult, error) {
	s.calls++
	return s.results, s.err
}

type memStore struct {
	creds     []wifi.Credential
	saveErr   error
	removeErr error
}

func (m *memStore) List() []wifi.Credential {
	return append([]wifi.Credential(nil), m.creds...)
}

func (m *memStore) Save(ssid, password string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for i := range m.creds {
		if m.creds[i].SSID == ssid {
			m.creds[i].Password = password
			return nil
		}
	}
	m.creds = append([]wifi.Credential{{SSID: ssid, Password: password}}, m.creds...)
	return nil
}

func (m *memStore) RemoveAt(i int) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.creds = append(m.creds[:i], m.creds[i+1:]...)
	return nil
}

type recordDisplay struct {
	frames []string
}

func (d *recordDisplay) Show(frame string) { d.frames = append(d.frames, frame) }

func (d *recordDisplay) last() string {
	if len(d.frames) == 0 {
		return ""
	}
	return d.frames[len(d.frames)-1]
}

type connectCall struct {
	ssid, password string
}

type harness struct {
	w       *Workflow
	display *recordDisplay
	scanner *fakeScanner
	store   *memStore
	calls   []connectCall
	clock   time.Time
}

func newHarness(t *testing.T, results []wifi.ScanResult, saved ...wifi.Credential) *harness {
	t.Helper()
	h := &harness{
		display: &recordDisplay{},
		scanner: &fakeScanner{results: results},
		store:   &memStore{creds: saved},
		clock:   time.Unix(1700000000, 0),
	}
	h.w = New(h.display, h.scanner, h.store,
		WithConnectFunc(func(ssid, password string) {
			h.calls = append(h.calls, connectCall{ssid, password})
		}),
		WithClock(func() time.Time { return h.clock }),
	)
	return h
}

func press(code keyboard.KeyCode) keyboard.KeyEvent {
	return keyboard.KeyEvent{Pressed: true, Code: code}
}

func release(code keyboard.KeyCode) keyboard.KeyEvent {
	return keyboard.KeyEvent{Pressed: false, Code: code}
}

func char(r rune) keyboard.KeyEvent {
	code := keyboard.KeyA
	switch {
	case r >= 'a' && r <= 'z':
		code = keyboard.KeyA + keyboard.KeyCode(r-'a')
	case r >= 'A' && r <= 'Z':
		code = keyboard.KeyA + keyboard.KeyCode(r-'A')
	case r >= '1' && r <= '9':
		code = keyboard.Key1 + keyboard.KeyCode(r-'1')
	case r == '0':
		code = keyboard.Key0
	}
	return keyboard.KeyEvent{Pressed: true, Code: code, Char: string(r)}
}

func (h *harness) key(t *testing.T, ev keyboard.KeyEvent) Result {
	t.Helper()
	return h.w.HandleKeyEvent(ev)
}

func (h *harness) typeText(t *testing.T, s string) {
	t.Helper()
	for _, r := range s {
		if got := h.w.HandleKeyEvent(char(r)); got != ResultNone {
			t.Fatalf("typing %q returned %v", r, got)
		}
	}
}

func (h *harness) expectState(t *testing.T, want State) {
	t.Helper()
	if got := h.w.State(); got != want {
		t.Fatalf("state = %v, want %v", got, want)
	}
}

var twoNetworks = []wifi.ScanResult{
	{SSID: "A", RSSI: -45, Encrypted: true},
	{SSID: "B", RSSI: -72, Encrypted: true},
}

func TestStartWithResults(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())

	if !h.w.IsActive() {
		t.Fatal("session should be active")
	}
	h.expectState(t, StateSelectWifi)
	if idx, scroll := h.w.Selection(); idx != 0 || scroll != 0 {
		t.Errorf("Selection() = (%d, %d), want (0, 0)", idx, scroll)
	}
	if len(h.display.frames) < 2 {
		t.Fatalf("expected scanning and list frames, got %d", len(h.display.frames))
	}
	if !strings.Contains(h.display.frames[0], "Scanning WiFi") {
		t.Errorf("first frame should show scanning, got:\n%s", h.display.frames[0])
	}
	last := h.display.last()
	if !strings.Contains(last, "Select WiFi") || !strings.Contains(last, ">1.A") {
		t.Errorf("list frame missing selection:\n%s", last)
	}
}

func TestStartWithoutResults(t *testing.T) {
	tests := []struct {
		name    string
		results []wifi.ScanResult
		err     error
	}{
		{name: "empty scan"},
		{name: "scan error", err: errors.New("radio off")},
		{name: "only hidden networks", results: []wifi.ScanResult{{SSID: "", RSSI: -40}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.results)
			h.scanner.err = tt.err
			h.w.Start(context.Background())

			h.expectState(t, StateScanning)
			if len(h.w.ScanResults()) != 0 {
				t.Errorf("ScanResults() = %v, want empty", h.w.ScanResults())
			}
			if !strings.Contains(h.display.last(), "No WiFi found") {
				t.Errorf("expected no-networks screen, got:\n%s", h.display.last())
			}
		})
	}
}

func TestDownKeyMovesSelection(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())

	h.key(t, press(keyboard.KeyDot))
	if idx, scroll := h.w.Selection(); idx != 1 || scroll != 0 {
		t.Fatalf("after down: Selection() = (%d, %d), want (1, 0)", idx, scroll)
	}

	// clamps at the bottom
	h.key(t, press(keyboard.KeyDown))
	if idx, _ := h.w.Selection(); idx != 1 {
		t.Errorf("down past the end moved to %d", idx)
	}

	h.key(t, press(keyboard.KeySemicolon))
	h.key(t, press(keyboard.KeyUp))
	if idx, _ := h.w.Selection(); idx != 0 {
		t.Errorf("up past the top moved to %d", idx)
	}
}

func TestSelectionScrollsWindow(t *testing.T) {
	var results []wifi.ScanResult
	for i := 0; i < 7; i++ {
		results = append(results, wifi.ScanResult{SSID: string(rune('A' + i)), RSSI: -50 - i})
	}
	h := newHarness(t, results)
	h.w.Start(context.Background())

	for i := 0; i < 5; i++ {
		h.key(t, press(keyboard.KeyDot))
	}
	idx, scroll := h.w.Selection()
	if idx != 5 || scroll != 2 {
		t.Fatalf("Selection() = (%d, %d), want (5, 2)", idx, scroll)
	}
	if idx-scroll >= MaxVisibleItems || idx < scroll {
		t.Fatalf("cursor %d outside window starting %d", idx, scroll)
	}
	frame := h.display.last()
	if strings.Contains(frame, "1.A") || !strings.Contains(frame, ">6.F") {
		t.Errorf("window not scrolled:\n%s", frame)
	}

	for i := 0; i < 4; i++ {
		h.key(t, press(keyboard.KeySemicolon))
	}
	if idx, scroll := h.w.Selection(); idx != 1 || scroll != 1 {
		t.Errorf("after scrolling back: Selection() = (%d, %d), want (1, 1)", idx, scroll)
	}
}

func TestSuccessfulConnection(t *testing.T) {
	h := newHarness(t, []wifi.ScanResult{{SSID: "Home", RSSI: -40, Encrypted: true}})
	h.w.Start(context.Background())

	h.key(t, press(keyboard.KeyEnter))
	h.expectState(t, StateInputPassword)
	if h.w.Target() != "Home" {
		t.Fatalf("Target() = %q, want Home", h.w.Target())
	}

	h.typeText(t, "pass")
	if !strings.Contains(h.display.last(), ">>> ****") {
		t.Errorf("password should be masked:\n%s", h.display.last())
	}
	if strings.Contains(h.display.last(), "pass") {
		t.Errorf("password leaked into frame:\n%s", h.display.last())
	}

	h.key(t, press(keyboard.KeyEnter))
	h.expectState(t, StateConnecting)
	if len(h.calls) != 1 || h.calls[0] != (connectCall{"Home", "pass"}) {
		t.Fatalf("connect calls = %v, want [{Home pass}]", h.calls)
	}

	// no input while connecting
	if got := h.key(t, press(keyboard.KeyEsc)); got != ResultNone {
		t.Errorf("esc while connecting returned %v", got)
	}
	h.expectState(t, StateConnecting)

	h.w.OnConnectResult(true)
	h.expectState(t, StateSuccess)
	if len(h.store.creds) != 1 || h.store.creds[0] != (wifi.Credential{SSID: "Home", Password: "pass"}) {
		t.Fatalf("stored credentials = %v", h.store.creds)
	}
	if !strings.Contains(h.display.last(), "WiFi settings saved") {
		t.Errorf("success screen missing save note:\n%s", h.display.last())
	}

	if got := h.key(t, press(keyboard.KeyEnter)); got != ResultConnected {
		t.Fatalf("confirm on success returned %v, want connected", got)
	}
	if h.w.IsActive() {
		t.Error("session should end after confirming success")
	}
}

func TestSaveFailureStillSucceeds(t *testing.T) {
	h := newHarness(t, []wifi.ScanResult{{SSID: "Home", RSSI: -40}})
	h.store.saveErr = errors.New("disk full")
	h.w.Start(context.Background())

	h.key(t, press(keyboard.KeyEnter))
	h.typeText(t, "x")
	h.key(t, press(keyboard.KeyEnter))
	h.w.OnConnectResult(true)

	h.expectState(t, StateSuccess)
}

func TestFailedConnectionRetry(t *testing.T) {
	h := newHarness(t, []wifi.ScanResult{{SSID: "Home", RSSI: -40}})
	h.w.Start(context.Background())

	h.key(t, press(keyboard.KeyEnter))
	h.typeText(t, "pass")
	h.key(t, press(keyboard.KeyEnter))
	h.w.OnConnectResult(false)

	h.expectState(t, StateFailed)
	if len(h.store.creds) != 0 {
		t.Errorf("failed join should not save, got %v", h.store.creds)
	}

	h.key(t, press(keyboard.KeyEnter))
	h.expectState(t, StateInputPassword)
	if h.w.Password() != "pass" {
		t.Errorf("Password() = %q, want retained %q", h.w.Password(), "pass")
	}

	h.key(t, press(keyboard.KeyEnter))
	if len(h.calls) != 2 {
		t.Fatalf("retry should request a second join, calls = %v", h.calls)
	}
}

func TestFailedBackReturnsToList(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())

	h.key(t, press(keyboard.KeyEnter))
	h.typeText(t, "pw")
	h.key(t, press(keyboard.KeyEnter))
	h.w.OnConnectResult(false)

	if got := h.key(t, press(keyboard.KeyEsc)); got != ResultNone {
		t.Fatalf("esc on failed returned %v", got)
	}
	h.expectState(t, StateSelectWifi)
}

func TestStaleConnectResultIgnored(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())

	h.w.OnConnectResult(true)
	h.expectState(t, StateSelectWifi)
	if len(h.store.creds) != 0 {
		t.Errorf("stale result saved credentials: %v", h.store.creds)
	}

	h.key(t, press(keyboard.KeyEsc))
	h.w.OnConnectResult(true)
	if h.w.IsActive() {
		t.Error("stale result reactivated the session")
	}
}

func TestPasswordEntryEmptyConfirmIgnored(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())
	h.key(t, press(keyboard.KeyEnter))

	h.key(t, press(keyboard.KeyEnter))
	h.expectState(t, StateInputPassword)
	if len(h.calls) != 0 {
		t.Errorf("empty password requested a join: %v", h.calls)
	}
}

func TestBackspace(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())
	h.key(t, press(keyboard.KeyEnter))

	frames := len(h.display.frames)
	h.key(t, press(keyboard.KeyBackspace))
	if h.w.Password() != "" {
		t.Errorf("backspace on empty buffer changed it to %q", h.w.Password())
	}
	if len(h.display.frames) != frames {
		t.Error("backspace on empty buffer should not redraw")
	}

	h.typeText(t, "ab")
	h.key(t, press(keyboard.KeyBackspace))
	if h.w.Password() != "a" {
		t.Errorf("Password() = %q, want %q", h.w.Password(), "a")
	}
}

func TestSpaceAndLengthCap(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())
	h.key(t, press(keyboard.KeyEnter))

	h.key(t, press(keyboard.KeySpace))
	if h.w.Password() != " " {
		t.Fatalf("space produced %q", h.w.Password())
	}

	h.typeText(t, strings.Repeat("x", MaxInputLength+5))
	if n := len([]rune(h.w.Password())); n != MaxInputLength {
		t.Errorf("password length = %d, want %d", n, MaxInputLength)
	}
}

func TestEscBackFromPasswordEntry(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())
	h.key(t, press(keyboard.KeyDot))
	h.key(t, press(keyboard.KeyEnter))
	h.typeText(t, "abc")

	h.key(t, press(keyboard.KeyEsc))
	h.expectState(t, StateSelectWifi)
	if !h.w.IsActive() {
		t.Fatal("esc from password entry should not end the session")
	}
	if idx, _ := h.w.Selection(); idx != 1 {
		t.Errorf("selection lost: %d", idx)
	}

	h.key(t, press(keyboard.KeyEnter))
	if h.w.Password() != "" {
		t.Errorf("password entry should start empty, got %q", h.w.Password())
	}
	if h.w.Target() != "B" {
		t.Errorf("Target() = %q, want B", h.w.Target())
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		results []wifi.ScanResult
		state   State
	}{
		{name: "from list", results: twoNetworks, state: StateSelectWifi},
		{name: "from no-networks screen", state: StateScanning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.results)
			h.w.Start(context.Background())
			h.expectState(t, tt.state)

			if got := h.key(t, press(keyboard.KeyEsc)); got != ResultCancelled {
				t.Fatalf("esc returned %v, want cancelled", got)
			}
			if h.w.IsActive() {
				t.Fatal("session still active after cancel")
			}
			for _, ev := range []keyboard.KeyEvent{press(keyboard.KeyEnter), char('a'), press(keyboard.KeyDot)} {
				if got := h.key(t, ev); got != ResultCancelled {
					t.Errorf("%v on inactive session returned %v", ev, got)
				}
			}
		})
	}
}

func TestReleasesAndModifiersIgnored(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())
	frames := len(h.display.frames)

	events := []keyboard.KeyEvent{
		release(keyboard.KeyEsc),
		release(keyboard.KeyEnter),
		{Pressed: true, IsModifier: true, Code: keyboard.KeyLeftShift},
	}
	for _, ev := range events {
		if got := h.key(t, ev); got != ResultNone {
			t.Errorf("%+v returned %v", ev, got)
		}
	}
	h.expectState(t, StateSelectWifi)
	if len(h.display.frames) != frames {
		t.Error("ignored events redrew the screen")
	}

	h.key(t, press(keyboard.KeyEsc))
	if got := h.key(t, release(keyboard.KeyEnter)); got != ResultNone {
		t.Errorf("release on inactive session returned %v, want none", got)
	}
}

func TestManualEntry(t *testing.T) {
	h := newHarness(t, nil)
	h.w.Start(context.Background())

	h.key(t, char('w'))
	h.expectState(t, StateInputSSID)
	if h.w.FocusOnPassword() {
		t.Fatal("manual entry should focus the SSID field")
	}

	h.typeText(t, "Lab")
	h.key(t, press(keyboard.KeyTab))
	h.expectState(t, StateInputManualPwd)
	h.typeText(t, "secret")

	if h.w.SSIDInput() != "Lab" || h.w.Password() != "secret" {
		t.Fatalf("buffers = (%q, %q)", h.w.SSIDInput(), h.w.Password())
	}

	h.key(t, press(keyboard.KeyTab))
	h.expectState(t, StateInputSSID)
	h.key(t, press(keyboard.KeyBackspace))
	if h.w.SSIDInput() != "La" || h.w.Password() != "secret" {
		t.Fatalf("backspace edited the wrong field: (%q, %q)", h.w.SSIDInput(), h.w.Password())
	}

	h.key(t, press(keyboard.KeyEnter))
	h.expectState(t, StateConnecting)
	if len(h.calls) != 1 || h.calls[0] != (connectCall{"La", "secret"}) {
		t.Fatalf("connect calls = %v", h.calls)
	}
}

func TestManualEntryRequiresSSID(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())
	h.key(t, char('w'))

	h.key(t, press(keyboard.KeyTab))
	h.typeText(t, "pw")
	h.key(t, press(keyboard.KeyEnter))
	h.expectState(t, StateInputManualPwd)
	if len(h.calls) != 0 {
		t.Errorf("join requested without SSID: %v", h.calls)
	}

	h.key(t, press(keyboard.KeyEsc))
	h.expectState(t, StateSelectWifi)
}

func TestManualEntryOpenNetwork(t *testing.T) {
	h := newHarness(t, nil)
	h.w.Start(context.Background())
	h.key(t, char('w'))
	h.typeText(t, "Open")
	h.key(t, press(keyboard.KeyEnter))

	if len(h.calls) != 1 || h.calls[0] != (connectCall{"Open", ""}) {
		t.Fatalf("connect calls = %v", h.calls)
	}
}

func TestSavedListConnect(t *testing.T) {
	h := newHarness(t, twoNetworks,
		wifi.Credential{SSID: "Home", Password: "pw1"},
		wifi.Credential{SSID: "Work", Password: "pw2"},
	)
	h.w.Start(context.Background())

	h.key(t, char('s'))
	h.expectState(t, StateSavedList)
	if !strings.Contains(h.display.last(), "(2/10)") {
		t.Errorf("saved title missing count:\n%s", h.display.last())
	}

	h.key(t, press(keyboard.KeyDot))
	h.key(t, press(keyboard.KeyEnter))
	h.expectState(t, StateConnecting)
	if len(h.calls) != 1 || h.calls[0] != (connectCall{"Work", "pw2"}) {
		t.Fatalf("connect calls = %v", h.calls)
	}
}

func TestSavedListDelete(t *testing.T) {
	h := newHarness(t, nil,
		wifi.Credential{SSID: "A", Password: "1"},
		wifi.Credential{SSID: "B", Password: "2"},
		wifi.Credential{SSID: "C", Password: "3"},
	)
	h.w.StartWithSavedList()
	h.expectState(t, StateSavedList)

	h.key(t, press(keyboard.KeyDot))
	h.key(t, press(keyboard.KeyDot))
	if idx, _ := h.w.SavedSelection(); idx != 2 {
		t.Fatalf("SavedSelection() = %d, want 2", idx)
	}

	h.key(t, press(keyboard.KeyBackspace))
	if got := h.w.Saved(); len(got) != 2 || got[1].SSID != "B" {
		t.Fatalf("Saved() = %v", got)
	}
	if idx, _ := h.w.SavedSelection(); idx != 1 {
		t.Errorf("SavedSelection() = %d, want 1", idx)
	}

	h.key(t, press(keyboard.KeyBackspace))
	h.key(t, press(keyboard.KeyBackspace))
	if len(h.w.Saved()) != 0 {
		t.Fatalf("Saved() = %v, want empty", h.w.Saved())
	}
	if idx, scroll := h.w.SavedSelection(); idx != 0 || scroll != 0 {
		t.Errorf("SavedSelection() = (%d, %d), want (0, 0)", idx, scroll)
	}

	// deleting from an empty list is a no-op
	h.key(t, press(keyboard.KeyBackspace))
	if !strings.Contains(h.display.last(), "No saved WiFi") {
		t.Errorf("expected empty saved screen:\n%s", h.display.last())
	}
}

func TestSavedListDeleteKeepsCursorInWindow(t *testing.T) {
	var creds []wifi.Credential
	for i := 0; i < 6; i++ {
		creds = append(creds, wifi.Credential{SSID: string(rune('A' + i))})
	}
	h := newHarness(t, nil, creds...)
	h.w.StartWithSavedList()

	for i := 0; i < 5; i++ {
		h.key(t, press(keyboard.KeyDot))
	}
	for i := 0; i < 5; i++ {
		h.key(t, press(keyboard.KeyBackspace))
		idx, scroll := h.w.SavedSelection()
		if idx < scroll || idx >= scroll+MaxVisibleItems {
			t.Fatalf("after %d deletes cursor %d outside window at %d", i+1, idx, scroll)
		}
	}
}

func TestSavedListDeleteError(t *testing.T) {
	h := newHarness(t, nil, wifi.Credential{SSID: "A"})
	h.store.removeErr = errors.New("read-only")
	h.w.StartWithSavedList()

	h.key(t, press(keyboard.KeyBackspace))
	if len(h.w.Saved()) != 1 {
		t.Errorf("failed delete changed the list: %v", h.w.Saved())
	}
	h.expectState(t, StateSavedList)
}

func TestSavedListBack(t *testing.T) {
	h := newHarness(t, nil)
	h.w.StartWithSavedList()
	if h.scanner.calls != 0 {
		t.Errorf("saved list start scanned %d times", h.scanner.calls)
	}

	h.key(t, press(keyboard.KeyEsc))
	h.expectState(t, StateSelectWifi)
	if !h.w.IsActive() {
		t.Fatal("esc on saved list should not end the session")
	}
	if got := h.key(t, press(keyboard.KeyEsc)); got != ResultCancelled {
		t.Errorf("esc on list returned %v", got)
	}
}

func TestTickBlinksCursor(t *testing.T) {
	h := newHarness(t, twoNetworks)
	h.w.Start(context.Background())

	// no redraw outside text entry
	frames := len(h.display.frames)
	h.clock = h.clock.Add(time.Second)
	h.w.Tick(h.clock)
	if len(h.display.frames) != frames {
		t.Error("tick redrew a list screen")
	}

	h.key(t, press(keyboard.KeyEnter))
	h.typeText(t, "ab")
	visible := h.w.CursorVisible()

	h.w.Tick(h.clock.Add(DefaultBlinkInterval / 2))
	if h.w.CursorVisible() != visible {
		t.Fatal("cursor toggled before the blink interval")
	}

	frames = len(h.display.frames)
	h.w.Tick(h.clock.Add(DefaultBlinkInterval))
	if h.w.CursorVisible() == visible {
		t.Fatal("cursor did not toggle after the blink interval")
	}
	if len(h.display.frames) != frames+1 {
		t.Errorf("tick should redraw once, got %d frames", len(h.display.frames)-frames)
	}
	if h.w.Password() != "ab" {
		t.Errorf("tick changed the buffer to %q", h.w.Password())
	}
}

func TestNoNetworksShortcuts(t *testing.T) {
	h := newHarness(t, nil, wifi.Credential{SSID: "Home"})
	h.w.Start(context.Background())

	h.key(t, char('s'))
	h.expectState(t, StateSavedList)
	if len(h.w.Saved()) != 1 {
		t.Errorf("Saved() = %v", h.w.Saved())
	}
}
