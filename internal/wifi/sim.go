package wifi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/cardputer/internal/logging"
)

// Simulated join failures.
var (
	ErrNoSuchNetwork = errors.New("wifi: network not in range")
	ErrAuthFailed    = errors.New("wifi: authentication failed")
)

// SimAccessPoint is an access point in the simulated radio environment.
type SimAccessPoint struct {
	ScanResult
	Password string
}

// Sim is an in-memory radio. Scans return the configured access points and
// a join succeeds after JoinDelay when the password matches (open networks
// accept any password).
type Sim struct {
	ScanDelay time.Duration
	JoinDelay time.Duration

	mu        sync.Mutex
	aps       []SimAccessPoint
	now       func() time.Time
	target    string
	linkUpAt  time.Time
	connected string
}

// NewSim creates a simulated radio seeing aps.
func NewSim(aps []SimAccessPoint) *Sim {
	return &Sim{
		ScanDelay: 300 * time.Millisecond,
		JoinDelay: 800 * time.Millisecond,
		aps:       append([]SimAccessPoint(nil), aps...),
		now:       time.Now,
	}
}

// Scan implements Scanner.
func (s *Sim) Scan(ctx context.Context) ([]ScanResult, error) {
	if s.ScanDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.ScanDelay):
		}
	}

	s.mu.Lock()
	results := make([]ScanResult, 0, len(s.aps))
	for _, ap := range s.aps {
		results = append(results, ap.ScanResult)
	}
	s.mu.Unlock()

	results = Normalize(results)
	logging.Debug("Simulated scan complete", zap.Int("networks", len(results)))
	return results, nil
}

// Connect implements Connector. The link comes up JoinDelay after a
// successful request.
func (s *Sim) Connect(_ context.Context, ssid, password string) error {
	if ssid == "" {
		return ErrEmptySSID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = ""
	s.connected = ""

	for _, ap := range s.aps {
		if ap.SSID != ssid {
			continue
		}
		if ap.Encrypted && ap.Password != password {
			return fmt.Errorf("join %q: %w", ssid, ErrAuthFailed)
		}
		s.target = ssid
		s.linkUpAt = s.now().Add(s.JoinDelay)
		return nil
	}
	return fmt.Errorf("join %q: %w", ssid, ErrNoSuchNetwork)
}

// IsConnected implements Connector.
func (s *Sim) IsConnected(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected != "" {
		return true
	}
	if s.target != "" && !s.now().Before(s.linkUpAt) {
		s.connected = s.target
		return true
	}
	return false
}

// Connected returns the SSID of the joined network, or "".
func (s *Sim) Connected() string {
	if !s.IsConnected(context.Background()) {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
