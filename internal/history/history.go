// Package history keeps the most recent commands assembled by the extension.
// Entries are stored newest first in a JSON file and the list never grows
// beyond its limit; the oldest entries are dropped from the tail.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"
)

var (
	ErrInvalidLimit = errors.New("history limit must be positive")
)

// Entry is one saved command. Timestamp is milliseconds since the epoch.
type Entry struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"timestamp"`
	Agent     string   `json:"agent,omitempty"`
	Prompt    string   `json:"prompt,omitempty"`
	Files     []string `json:"files,omitempty"`
	Command   string   `json:"command,omitempty"`
}

// Store is a capped, file-backed list of entries.
type Store struct {
	path  string
	limit int
	now   func() time.Time
	mu    sync.Mutex
}

// NewStore returns a store persisting to path and holding at most limit entries.
func NewStore(path string, limit int) (*Store, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	return &Store{path: path, limit: limit, now: time.Now}, nil
}

// Limit returns the maximum number of entries kept.
func (s *Store) Limit() int {
	return s.limit
}

// Add stamps e with an id and timestamp, inserts it at the head and trims
// the tail. The stored entry is returned.
func (s *Store) Add(e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}

	now := s.now()
	e.Timestamp = now.UnixMilli()
	e.ID = strconv.FormatInt(now.UnixMilli(), 36) + lo.RandomString(8, lo.LowerCaseLettersCharset)

	entries = append([]Entry{e}, entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	if err := s.save(entries); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns the entries, newest first. A missing file is an empty list.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	// A file written under a larger limit is trimmed on read.
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]Entry{})
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}

	entries := []Entry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", s.path, err)
	}
	return entries, nil
}

// save replaces the history file atomically.
func (s *Store) save(entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
