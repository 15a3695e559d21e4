// Package credstore persists the WiFi networks the device has joined.
//
// The store is a small YAML file (networks.yaml in the config directory)
// holding at most Capacity entries, newest first. Passwords are stored in
// clear text with file mode 0600, as the device firmware keeps them in its
// own flash.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/cardputer/internal/config"
	"github.com/muurk/cardputer/internal/logging"
	"github.com/muurk/cardputer/internal/wifi"
)

const (
	// Capacity is the number of networks kept.
	Capacity = 10
	// FileName is the store file name inside the config directory.
	FileName = "networks.yaml"

	fileVersion = 1
)

var (
	ErrIndexOutOfRange = errors.New("credstore: index out of range")
	ErrEmptySSID       = errors.New("credstore: empty ssid")
)

type fileFormat struct {
	Version  int               `yaml:"version"`
	Networks []wifi.Credential `yaml:"networks"`
}

// Store is a file-backed list of saved networks. It is safe for concurrent
// use.
type Store struct {
	path string

	mu      sync.RWMutex
	entries []wifi.Credential
}

// DefaultPath returns networks.yaml in the config directory.
func DefaultPath() (string, error) {
	return config.DataPath(FileName)
}

// Open loads the store at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the file, discarding the in-memory list.
func (s *Store) Reload() error {
	entries, err := readFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

func readFile(path string) ([]wifi.Credential, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential store: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credential store: %w", err)
	}
	if f.Version != 0 && f.Version != fileVersion {
		return nil, fmt.Errorf("unsupported credential store version: %d (expected %d)", f.Version, fileVersion)
	}

	entries := make([]wifi.Credential, 0, len(f.Networks))
	for _, c := range f.Networks {
		if c.SSID == "" {
			continue
		}
		entries = append(entries, c)
	}
	if len(entries) > Capacity {
		entries = entries[:Capacity]
	}
	return entries, nil
}

// List returns a copy of the saved networks, newest first.
func (s *Store) List() []wifi.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]wifi.Credential(nil), s.entries...)
}

// Len returns the number of saved networks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Save adds or updates a network. An existing SSID keeps its position and
// gets the new password; a new SSID goes to the front, evicting the oldest
// entry when the store is full.
func (s *Store) Save(ssid, password string) error {
	if ssid == "" {
		return ErrEmptySSID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]wifi.Credential(nil), s.entries...)
	updated := false
	for i := range next {
		if next[i].SSID == ssid {
			next[i].Password = password
			updated = true
			break
		}
	}
	if !updated {
		if len(next) >= Capacity {
			evicted := next[len(next)-1]
			next = next[:Capacity-1]
			logging.Info("Credential store full, evicting oldest network", zap.String("ssid", evicted.SSID))
		}
		next = append([]wifi.Credential{{SSID: ssid, Password: password}}, next...)
	}

	if err := s.write(next); err != nil {
		return err
	}
	s.entries = next
	logging.Info("Saved network credentials",
		zap.String("ssid", ssid),
		zap.Bool("updated", updated),
		logging.Secret("password", password),
	)
	return nil
}

// RemoveAt deletes the entry at index i.
func (s *Store) RemoveAt(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(s.entries))
	}

	removed := s.entries[i].SSID
	next := append(append([]wifi.Credential(nil), s.entries[:i]...), s.entries[i+1:]...)
	if err := s.write(next); err != nil {
		return err
	}
	s.entries = next
	logging.Info("Removed saved network", zap.String("ssid", removed), zap.Int("index", i))
	return nil
}

func (s *Store) write(entries []wifi.Credential) error {
	data, err := yaml.Marshal(fileFormat{Version: fileVersion, Networks: entries})
	if err != nil {
		return fmt.Errorf("failed to marshal credential store: %w", err)
	}
	if err := config.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write credential store: %w", err)
	}
	return nil
}

// Watch reloads the store whenever another process rewrites the file and
// then calls onChange (which may be nil). The parent directory is watched
// because atomic writes replace the file. Watching stops when ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	log := logging.Named("credstore")

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					log.Warn("Failed to reload credential store", zap.Error(err))
					continue
				}
				log.Debug("Credential store reloaded", zap.Int("networks", s.Len()))
				if onChange != nil {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
