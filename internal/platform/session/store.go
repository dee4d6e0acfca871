package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store is the single source of truth for the bearer credential. It is
// constructed once in main and handed to every consumer by reference.
// The credential value itself is never logged.
type Store struct {
	path string

	mu         sync.Mutex
	credential string
	nextSubID  int
	observers  map[int]func(credential string)
}

func NewStore(path string) *Store {
	return &Store{
		path:      path,
		observers: make(map[int]func(string)),
	}
}

// Load reads the persisted credential at startup. A missing file, an empty
// value, or a stale "undefined" artifact all resolve to the anonymous state.
// Load never writes and never fails; malformed input degrades to anonymous.
func (s *Store) Load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	credential := normalize(string(data))
	if credential == "" {
		log.Debug().Msg("persisted credential unusable, starting anonymous")
		return
	}

	s.mu.Lock()
	s.credential = credential
	s.mu.Unlock()
}

// normalize cleans a persisted value. A value that was double-JSON-encoded
// by an earlier write bug is unwrapped once; if unwrapping fails the raw
// string is used as-is.
func normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "undefined" {
		return ""
	}

	var unwrapped string
	if err := json.Unmarshal([]byte(raw), &unwrapped); err == nil {
		raw = strings.TrimSpace(unwrapped)
	}
	if raw == "undefined" {
		return ""
	}
	return raw
}

// Login persists the credential and transitions the store to authenticated.
// Empty input is rejected as a no-op.
func (s *Store) Login(credential string) error {
	if credential == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, []byte(credential), 0600); err != nil {
		return err
	}

	s.mu.Lock()
	s.credential = credential
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, notify := range observers {
		notify(credential)
	}
	return nil
}

// Logout clears the persisted value and transitions to anonymous.
func (s *Store) Logout() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to remove persisted credential")
	}

	s.mu.Lock()
	s.credential = ""
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, notify := range observers {
		notify("")
	}
}

// Current returns the active credential, or "" when anonymous. Pure read.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

func (s *Store) Authenticated() bool {
	return s.Current() != ""
}

// Subscribe registers an observer called on every login and logout with the
// new credential ("" on logout). Returns an unsubscribe func.
func (s *Store) Subscribe(observer func(credential string)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.observers[id] = observer
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotObservers() []func(string) {
	observers := make([]func(string), 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	return observers
}
