// Package settings loads the congregation settings file edited from the desktop UI.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LanguageGroup is a language group with its own meeting attendance.
type LanguageGroup struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// OnlineReporting controls the remote sync pushes.
type OnlineReporting struct {
	Enabled        bool `yaml:"enabled"`
	GroupReporting bool `yaml:"groupReporting"`
}

// Settings is the congregation configuration.
type Settings struct {
	CongregationID   string          `yaml:"congregationId"`
	CongregationName string          `yaml:"congregationName"`
	Language         string          `yaml:"language"`
	LanguageGroups   []LanguageGroup `yaml:"languageGroups"`
	OnlineReporting  OnlineReporting `yaml:"onlineReporting"`
}

// PushEnabled reports whether group report summaries should be pushed to the server.
func (s Settings) PushEnabled() bool {
	return s.OnlineReporting.Enabled && s.OnlineReporting.GroupReporting
}

func (s *Settings) applyDefaults() {
	if strings.TrimSpace(s.Language) == "" {
		s.Language = "en"
	}
}

func (s Settings) validate() error {
	seen := map[string]struct{}{}
	for _, g := range s.LanguageGroups {
		if strings.TrimSpace(g.ID) == "" {
			return errors.New("language group id is required")
		}
		if _, dup := seen[g.ID]; dup {
			return fmt.Errorf("duplicate language group %q", g.ID)
		}
		seen[g.ID] = struct{}{}
	}
	if s.OnlineReporting.Enabled && strings.TrimSpace(s.CongregationID) == "" {
		return errors.New("congregationId is required when online reporting is enabled")
	}
	return nil
}

// Store holds the current settings and persists changes back to disk.
type Store struct {
	path    string
	mu      sync.RWMutex
	current Settings
}

// Load reads path; a missing file yields defaults.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	var parsed Settings
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("settings: parse %s: %w", path, err)
		}
	}
	parsed.applyDefaults()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	s.current = parsed
	return s, nil
}

// Static wraps fixed settings without a backing file.
func Static(s Settings) *Store {
	s.applyDefaults()
	return &Store{current: s}
}

// Current returns a copy of the active settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	out.LanguageGroups = append([]LanguageGroup(nil), s.current.LanguageGroups...)
	return out
}

// Save validates and writes next, replacing the active settings.
func (s *Store) Save(next Settings) error {
	next.applyDefaults()
	if err := next.validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		data, err := yaml.Marshal(next)
		if err != nil {
			return fmt.Errorf("settings: encode: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return fmt.Errorf("settings: create dir: %w", err)
		}
		if err := os.WriteFile(s.path, data, 0o600); err != nil {
			return fmt.Errorf("settings: write %s: %w", s.path, err)
		}
	}
	s.current = next
	return nil
}
