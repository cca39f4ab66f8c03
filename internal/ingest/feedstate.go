package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Validator is the conditional-GET state remembered for one feed URL.
type Validator struct {
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// FeedState maps feed URLs to their validators. It is loaded at cycle start
// and saved atomically at cycle end.
type FeedState struct {
	path string

	mu      sync.Mutex
	entries map[string]Validator
}

// LoadFeedState reads path. A missing file yields an empty state.
func LoadFeedState(path string) (*FeedState, error) {
	s := &FeedState{path: path, entries: make(map[string]Validator)}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read feed state: %w", err)
	}
	if len(b) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s.entries); err != nil {
		return nil, fmt.Errorf("decode feed state %s: %w", path, err)
	}
	return s, nil
}

// Get returns the validator stored for url.
func (s *FeedState) Get(url string) (Validator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[url]
	return v, ok
}

// Set records the validator for url.
func (s *FeedState) Set(url string, v Validator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = v
}

// Len returns the number of remembered URLs.
func (s *FeedState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Save writes the state to a temp file next to path and renames it into place.
func (s *FeedState) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	snapshot := maps.Clone(s.entries)
	s.mu.Unlock()

	b, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feed state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".feed_state-*.json")
	if err != nil {
		return fmt.Errorf("create feed state temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write feed state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close feed state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace feed state: %w", err)
	}
	return nil
}

// Reload discards validators recorded since the last Save by re-reading the
// file. Without a file the state is emptied.
func (s *FeedState) Reload() error {
	fresh, err := LoadFeedState(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = fresh.entries
	s.mu.Unlock()
	return nil
}
