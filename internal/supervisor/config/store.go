package config

import (
	"fmt"
	"sync/atomic"
)

// Store holds the current kiosk config snapshot. Readers never block; a new
// snapshot replaces the old one only after it parsed and validated.
type Store struct {
	path    string
	current atomic.Pointer[KioskConfig]
}

func NewStore(path string) (*Store, error) {
	cfg, err := LoadKioskConfig(path)
	if err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	s := &Store{path: path}
	s.current.Store(cfg)
	return s, nil
}

// NewStaticStore wraps an already loaded snapshot; Reload keeps returning it
// when path is empty.
func NewStaticStore(path string, cfg *KioskConfig) *Store {
	s := &Store{path: path}
	s.current.Store(cfg)
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Current() *KioskConfig {
	return s.current.Load()
}

// Reload re-reads the file. On error the previous snapshot stays current and
// is returned together with the error.
func (s *Store) Reload() (*KioskConfig, error) {
	if s.path == "" {
		return s.Current(), nil
	}
	cfg, err := LoadKioskConfig(s.path)
	if err != nil {
		return s.Current(), fmt.Errorf("Store.Reload: %w", err)
	}
	s.current.Store(cfg)
	return cfg, nil
}
