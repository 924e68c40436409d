package recents

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/CodeWithFin/mnada-web-app-sub000/limits"
)

// state is the on-disk shape.
type state struct {
	Emoji    []string `json:"emoji"`
	Searches []string `json:"searches"`
}

// Store holds the persisted recents lists.
type Store struct {
	path string

	mu    sync.Mutex
	state state
}

// Open loads the store from path, starting empty when the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read recents file: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		// A corrupt state file is not fatal; start fresh.
		logrus.WithFields(logrus.Fields{
			"function": "Open",
			"path":     path,
			"error":    err.Error(),
		}).Warn("Recents file corrupt, starting empty")
		s.state = state{}
	}
	return s, nil
}

// AddEmoji records a reaction emoji as most recently used.
func (s *Store) AddEmoji(emoji string) error {
	if emoji == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Emoji = push(s.state.Emoji, emoji, limits.MaxRecentEmoji)
	return s.saveLocked()
}

// AddSearch records a search term as most recently used.
func (s *Store) AddSearch(term string) error {
	if term == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Searches = push(s.state.Searches, term, limits.MaxRecentSearches)
	return s.saveLocked()
}

// RecentEmoji returns the recent reaction emoji, most recent first.
func (s *Store) RecentEmoji() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.Emoji...)
}

// RecentSearches returns the recent search terms, most recent first.
func (s *Store) RecentSearches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.Searches...)
}

// push prepends value, removing any earlier occurrence and enforcing the cap.
func push(list []string, value string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// saveLocked rewrites the state file via a temp-file rename so a crash can
// never leave a half-written file.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(&s.state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".recents-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
