package settings

import (
	"maps"
	"slices"
	"sync"
)

// sections is the in-memory state shared by every store: section name to
// key to value, plus the section selected by BeginSection.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The selected section is
//     shared, so callers group a BeginSection/EndSection run themselves.
type sections struct {
	mu      sync.Mutex
	data    map[string]map[string]string
	current string
	onSet   func(section, key, value string)
}

func newSections() sections {
	return sections{data: make(map[string]map[string]string)}
}

// BeginSection selects the section later calls operate on.
func (s *sections) BeginSection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = name
}

// EndSection returns to the unnamed top-level section.
func (s *sections) EndSection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ""
}

// Get returns the value stored under key, or def when there is none.
func (s *sections) Get(key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[s.current][key]; ok {
		return v
	}
	return def
}

// Set stores value under key in the current section.
func (s *sections) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec := s.data[s.current]
	if sec == nil {
		sec = make(map[string]string)
		s.data[s.current] = sec
	}
	sec[key] = value
	if s.onSet != nil {
		s.onSet(s.current, key, value)
	}
}

// Keys returns the keys of the current section in sorted order.
func (s *sections) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.data[s.current]))
}

// Sections returns the names of every non-empty section in sorted order.
func (s *sections) Sections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.data))
	for name, sec := range s.data {
		if len(sec) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// snapshot returns a deep copy of the data. The caller must hold mu.
func (s *sections) snapshot() map[string]map[string]string {
	out := make(map[string]map[string]string, len(s.data))
	for name, sec := range s.data {
		if len(sec) > 0 {
			out[name] = maps.Clone(sec)
		}
	}
	return out
}

// replace swaps in freshly loaded data. The caller must hold mu.
func (s *sections) replace(data map[string]map[string]string) {
	if data == nil {
		data = make(map[string]map[string]string)
	}
	s.data = data
}
