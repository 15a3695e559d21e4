package config

import (
	"fmt"
	"time"
)

// CurrentVersion is the settings file format version.
const CurrentVersion = 1

// Backend names accepted by wifi.backend.
const (
	BackendSim   = "sim"
	BackendNMCLI = "nmcli"
)

// Settings is the whole user configuration file.
type Settings struct {
	Version  int              `yaml:"version"`
	Keyboard KeyboardSettings `yaml:"keyboard"`
	Workflow WorkflowSettings `yaml:"workflow"`
	WiFi     WiFiSettings     `yaml:"wifi"`
	Console  ConsoleSettings  `yaml:"console"`
	Sim      SimSettings      `yaml:"sim"`
}

// KeyboardSettings tunes the key event source.
type KeyboardSettings struct {
	DebounceMS int `yaml:"debounce_ms"` // Settle time after an interrupt
}

// WorkflowSettings tunes the configuration screens.
type WorkflowSettings struct {
	BlinkMS int `yaml:"blink_ms"` // Cursor blink period
}

// WiFiSettings selects and tunes the network backend.
type WiFiSettings struct {
	Backend        string `yaml:"backend"`          // "sim" or "nmcli"
	JoinTimeoutMS  int    `yaml:"join_timeout_ms"`  // Upper bound on one join attempt
	PollIntervalMS int    `yaml:"poll_interval_ms"` // Link status poll period during a join
}

// ConsoleSettings controls the remote websocket console.
type ConsoleSettings struct {
	Enabled   bool `yaml:"enabled"`
	Port      int  `yaml:"port"`
	Advertise bool `yaml:"advertise"` // Register the console over mDNS
}

// SimSettings describes the simulated radio environment.
type SimSettings struct {
	Networks []SimNetwork `yaml:"networks,omitempty"`
}

// SimNetwork is one simulated access point.
type SimNetwork struct {
	SSID      string `yaml:"ssid"`
	RSSI      int    `yaml:"rssi"`
	Encrypted bool   `yaml:"encrypted"`
	Password  string `yaml:"password,omitempty"` // Accepted password for encrypted networks
}

// Defaults returns settings populated with default values.
func Defaults() *Settings {
	return &Settings{
		Version:  CurrentVersion,
		Keyboard: KeyboardSettings{DebounceMS: 10},
		Workflow: WorkflowSettings{BlinkMS: 500},
		WiFi: WiFiSettings{
			Backend:        BackendSim,
			JoinTimeoutMS:  10000,
			PollIntervalMS: 100,
		},
		Console: ConsoleSettings{
			Port:      8787,
			Advertise: true,
		},
		Sim: SimSettings{
			Networks: []SimNetwork{
				{SSID: "HomeNet", RSSI: -45, Encrypted: true, Password: "hunter22"},
				{SSID: "CoffeeShop", RSSI: -67, Encrypted: false},
				{SSID: "Neighbour-5G", RSSI: -78, Encrypted: true, Password: "letmein!"},
			},
		},
	}
}

// applyDefaults fills zero values left by a partial file.
func (s *Settings) applyDefaults() {
	d := Defaults()
	if s.Keyboard.DebounceMS == 0 {
		s.Keyboard.DebounceMS = d.Keyboard.DebounceMS
	}
	if s.Workflow.BlinkMS == 0 {
		s.Workflow.BlinkMS = d.Workflow.BlinkMS
	}
	if s.WiFi.Backend == "" {
		s.WiFi.Backend = d.WiFi.Backend
	}
	if s.WiFi.JoinTimeoutMS == 0 {
		s.WiFi.JoinTimeoutMS = d.WiFi.JoinTimeoutMS
	}
	if s.WiFi.PollIntervalMS == 0 {
		s.WiFi.PollIntervalMS = d.WiFi.PollIntervalMS
	}
	if s.Console.Port == 0 {
		s.Console.Port = d.Console.Port
	}
}

// Validate checks the settings for values the tools cannot run with.
func (s *Settings) Validate() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", s.Version, CurrentVersion)
	}
	if s.Keyboard.DebounceMS < 0 {
		return fmt.Errorf("keyboard.debounce_ms must not be negative: %d", s.Keyboard.DebounceMS)
	}
	if s.Workflow.BlinkMS <= 0 {
		return fmt.Errorf("workflow.blink_ms must be positive: %d", s.Workflow.BlinkMS)
	}
	switch s.WiFi.Backend {
	case BackendSim, BackendNMCLI:
	default:
		return fmt.Errorf("unknown wifi.backend %q (expected %q or %q)", s.WiFi.Backend, BackendSim, BackendNMCLI)
	}
	if s.WiFi.PollIntervalMS <= 0 || s.WiFi.JoinTimeoutMS < s.WiFi.PollIntervalMS {
		return fmt.Errorf("wifi.join_timeout_ms (%d) must be at least wifi.poll_interval_ms (%d) and both positive",
			s.WiFi.JoinTimeoutMS, s.WiFi.PollIntervalMS)
	}
	if s.Console.Port <= 0 || s.Console.Port > 65535 {
		return fmt.Errorf("console.port out of range: %d", s.Console.Port)
	}
	for i, n := range s.Sim.Networks {
		if n.SSID == "" {
			return fmt.Errorf("sim.networks[%d]: empty ssid", i)
		}
	}
	return nil
}

// Debounce returns the keyboard debounce interval.
func (s *Settings) Debounce() time.Duration {
	return time.Duration(s.Keyboard.DebounceMS) * time.Millisecond
}

// BlinkInterval returns the cursor blink period.
func (s *Settings) BlinkInterval() time.Duration {
	return time.Duration(s.Workflow.BlinkMS) * time.Millisecond
}

// JoinTimeout returns the bound on one join attempt.
func (s *Settings) JoinTimeout() time.Duration {
	return time.Duration(s.WiFi.JoinTimeoutMS) * time.Millisecond
}

// PollInterval returns the link status poll period during a join.
func (s *Settings) PollInterval() time.Duration {
	return time.Duration(s.WiFi.PollIntervalMS) * time.Millisecond
}
