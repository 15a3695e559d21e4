// Package wifi holds the network scan and connect collaborators used by the
// configuration workflow: the scan result model, the bounded join loop, and
// two backends (a simulated radio and NetworkManager through nmcli).
package wifi

import (
	"context"
	"errors"
)

// MaxScanResults caps the number of networks kept from one scan.
const MaxScanResults = 20

// ErrEmptySSID is returned when connecting without a network name.
var ErrEmptySSID = errors.New("wifi: empty ssid")

// ScanResult is one network seen by a scan.
type ScanResult struct {
	SSID      string
	RSSI      int // dBm, more negative is weaker
	Encrypted bool
}

// Credential is a saved network.
type Credential struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// Scanner performs a blocking scan.
type Scanner interface {
	Scan(ctx context.Context) ([]ScanResult, error)
}

// Connector starts a join and reports link status.
type Connector interface {
	Connect(ctx context.Context, ssid, password string) error
	// IsConnected reports link status; the query gives up when ctx ends.
	IsConnected(ctx context.Context) bool
}

// Manager is a radio that can both scan and connect.
type Manager interface {
	Scanner
	Connector
}

// Normalize drops hidden networks and caps the list at MaxScanResults,
// keeping discovery order.
func Normalize(results []ScanResult) []ScanResult {
	out := make([]ScanResult, 0, min(len(results), MaxScanResults))
	for _, r := range results {
		if len(out) == MaxScanResults {
			break
		}
		if r.SSID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SignalBars renders RSSI as a four-cell bar.
func SignalBars(rssi int) string {
	switch {
	case rssi >= -50:
		return "████"
	case rssi >= -60:
		return "███░"
	case rssi >= -70:
		return "██░░"
	case rssi >= -80:
		return "█░░░"
	default:
		return "░░░░"
	}
}
