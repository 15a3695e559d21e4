package console

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/cardputer/internal/version"
)

const (
	// ServiceType is the mDNS service type consoles advertise
	ServiceType = "_cardputer._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultBrowseTimeout is the default time spent listening for consoles
	DefaultBrowseTimeout = 3 * time.Second
)

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// Advertise registers a console on port under instance. An empty instance
// uses the host name.
func Advertise(instance string, port int) (*Advertisement, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to read host name: %w", err)
		}
		instance = "cardputer-" + host
	}
	text := []string{"version=" + version.Version, "path=/ws"}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Console is a remote console found on the network.
type Console struct {
	// Instance is the advertised instance name
	Instance string

	// Hostname is the mDNS hostname
	Hostname string

	// IP prefers IPv4
	IP string

	Port int

	// Metadata contains the TXT record data
	Metadata map[string]string

	DiscoveredAt time.Time
}

// Address returns host:port for dialing.
func (c *Console) Address() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// String returns a human-readable string representation of the console
func (c *Console) String() string {
	return fmt.Sprintf("%s (%s) at %s", c.Instance, c.Hostname, c.Address())
}

// Browse listens for advertised consoles until timeout or ctx ends.
func Browse(ctx context.Context, timeout time.Duration) ([]*Console, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var mu sync.Mutex
	seen := make(map[string]bool)
	consoles := make([]*Console, 0)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				c := parseServiceEntry(entry)
				if c == nil {
					continue
				}
				mu.Lock()
				if !seen[c.Address()] {
					seen[c.Address()] = true
					consoles = append(consoles, c)
				}
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Console(nil), consoles...), nil
}

// parseServiceEntry converts a zeroconf entry, returning nil when it has no
// usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Console {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Console{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
