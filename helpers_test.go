package logq

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// recordingSink stores every line it receives.
type recordingSink struct {
	mu      sync.Mutex
	lines   []string
	fail    bool
	closed  int
	onClose func()
}

func (s *recordingSink) Write(message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, message)
	return !s.fail
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	s.closed++
	fn := s.onClose
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (s *recordingSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// mapStore is an in-memory Store keyed by section.
type mapStore struct {
	sections map[string]map[string]string
	current  string
	syncs    int
	syncErr  error
}

func newMapStore() *mapStore {
	return &mapStore{sections: make(map[string]map[string]string)}
}

func (m *mapStore) BeginSection(name string) { m.current = name }
func (m *mapStore) EndSection()              { m.current = "" }

func (m *mapStore) Get(key, def string) string {
	if v, ok := m.sections[m.current][key]; ok {
		return v
	}
	return def
}

func (m *mapStore) Set(key, value string) {
	if m.sections[m.current] == nil {
		m.sections[m.current] = make(map[string]string)
	}
	m.sections[m.current][key] = value
}

func (m *mapStore) Keys() []string {
	keys := make([]string, 0, len(m.sections[m.current]))
	for k := range m.sections[m.current] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mapStore) Sync() error {
	m.syncs++
	return m.syncErr
}

var errSyncFailed = errors.New("sync failed")

// fixedClock returns a clock frozen at a known instant.
func fixedClock() func() time.Time {
	t := time.Date(2026, 10, 17, 9, 30, 15, 123_000_000, time.UTC)
	return func() time.Time { return t }
}

// lineText extracts the text field of a rendered line.
func lineText(t *testing.T, s string) string {
	t.Helper()
	line, ok := ParseLine(s)
	if !ok {
		t.Fatalf("ParseLine(%q) failed", s)
	}
	return line.Text
}
