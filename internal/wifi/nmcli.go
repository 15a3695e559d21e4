package wifi

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/logging"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandError is a failed nmcli invocation.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("nmcli %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("nmcli %s: %v: %s", strings.Join(e.Args, " "), e.Err, out)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NMCLI drives Linux NetworkManager through its command line client.
type NMCLI struct {
	// Interface restricts scans and joins to one device when set
	Interface string

	run Runner
}

// NewNMCLI creates an nmcli backend. A nil runner executes the real binary.
func NewNMCLI(iface string, run Runner) *NMCLI {
	if run == nil {
		run = execRunner
	}
	return &NMCLI{Interface: iface, run: run}
}

// Scan implements Scanner by listing access points after a rescan.
func (n *NMCLI) Scan(ctx context.Context) ([]ScanResult, error) {
	args := []string{"-t", "-f", "SSID,SIGNAL,SECURITY", "device", "wifi", "list", "--rescan", "yes"}
	if n.Interface != "" {
		args = append(args, "ifname", n.Interface)
	}
	out, err := n.run(ctx, "nmcli", args...)
	if err != nil {
		return nil, &CommandError{Args: args, Output: string(out), Err: err}
	}

	results := parseWifiList(out)
	logging.Debug("nmcli scan complete", zap.Int("networks", len(results)))
	return results, nil
}

// Connect implements Connector. nmcli blocks until activation finishes, so
// a nil error normally means the link is already up.
func (n *NMCLI) Connect(ctx context.Context, ssid, password string) error {
	if ssid == "" {
		return ErrEmptySSID
	}
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	if n.Interface != "" {
		args = append(args, "ifname", n.Interface)
	}

	out, err := n.run(ctx, "nmcli", args...)
	if err != nil {
		return &CommandError{Args: redactPassword(args), Output: string(out), Err: err}
	}
	return nil
}

// IsConnected implements Connector using the NetworkManager global state.
func (n *NMCLI) IsConnected(ctx context.Context) bool {
	out, err := n.run(ctx, "nmcli", "-t", "-f", "STATE", "general")
	if err != nil {
		logging.Debug("nmcli state query failed", zap.Error(err))
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(out)), "connected")
}

func redactPassword(args []string) []string {
	out := append([]string(nil), args...)
	for i := 0; i+1 < len(out); i++ {
		if out[i] == "password" {
			out[i+1] = "***"
		}
	}
	return out
}

// parseWifiList parses terse SSID:SIGNAL:SECURITY lines. Access points
// broadcasting the same SSID are reported once, at first sighting.
func parseWifiList(out []byte) []ScanResult {
	var results []ScanResult
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := splitTerse(sc.Text())
		if len(fields) < 3 {
			continue
		}
		ssid := fields[0]
		if ssid == "" || seen[ssid] {
			continue
		}
		pct, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		sec := strings.TrimSpace(fields[2])
		seen[ssid] = true
		results = append(results, ScanResult{
			SSID:      ssid,
			RSSI:      percentToDBm(pct),
			Encrypted: sec != "" && sec != "--",
		})
	}
	return Normalize(results)
}

// splitTerse splits an nmcli terse line on unescaped colons.
func splitTerse(line string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, cur.String())
}

// percentToDBm maps NetworkManager's 0-100 quality to dBm the way
// NetworkManager derives quality from dBm.
func percentToDBm(pct int) int {
	pct = max(0, min(100, pct))
	return pct/2 - 100
}
