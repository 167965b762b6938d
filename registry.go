package logq

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultLevelKey is the settings key that stores the default threshold.
// It cannot collide with a derived module name, which never contains '*'.
const DefaultLevelKey = "*default*"

// DefaultSection is the settings section used when none is configured.
const DefaultSection = "logq"

// FinalPolicy decides whether a final module level may be replaced.
type FinalPolicy int

const (
	// FinalOverridableByFinal lets a final entry be replaced by a call that
	// itself passes final=true. Non-final calls are rejected.
	FinalOverridableByFinal FinalPolicy = iota

	// FinalImmutable rejects every change to a final entry.
	FinalImmutable
)

// String returns the configuration spelling of the policy.
func (p FinalPolicy) String() string {
	switch p {
	case FinalImmutable:
		return "immutable"
	default:
		return "final_overrides"
	}
}

// ParseFinalPolicy parses "final_overrides" or "immutable".
func ParseFinalPolicy(s string) (FinalPolicy, error) {
	switch s {
	case "", "final_overrides":
		return FinalOverridableByFinal, nil
	case "immutable":
		return FinalImmutable, nil
	default:
		return FinalOverridableByFinal, fmt.Errorf("unknown final policy %q", s)
	}
}

// ModuleLevel is the threshold assigned to one module.
type ModuleLevel struct {
	Level Level
	// Final entries are locked against casual override; loaded entries are final.
	Final bool
}

// ModuleEntry is a ModuleLevel together with its module name.
type ModuleEntry struct {
	Module string
	ModuleLevel
}

// Store is the key-value persistence collaborator used by Save and Load.
//
// Implementations live in the settings package (YAML, TOML and SQLite).
// Calls are grouped into a section: BeginSection, Get/Set/Keys, EndSection.
type Store interface {
	BeginSection(name string)
	Get(key, def string) string
	Set(key, value string)
	Keys() []string
	EndSection()
	Sync() error
}

// LevelRegistry maps module names to thresholds and holds the default
// threshold applied to modules seen for the first time.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - A single mutex guards entries and the default level; it is never held
//     while calling into a Store from another lock.
type LevelRegistry struct {
	mu           sync.Mutex
	modules      map[string]ModuleLevel
	defaultLevel Level
	policy       FinalPolicy
	section      string
}

// NewLevelRegistry creates an empty registry.
//
// An invalid defaultLevel falls back to LevelDebug.
func NewLevelRegistry(defaultLevel Level, policy FinalPolicy) *LevelRegistry {
	if !defaultLevel.Valid() {
		defaultLevel = LevelDebug
	}
	return &LevelRegistry{
		modules:      make(map[string]ModuleLevel),
		defaultLevel: defaultLevel,
		policy:       policy,
		section:      DefaultSection,
	}
}

// SetSection changes the settings section used by Save and Load.
func (r *LevelRegistry) SetSection(name string) {
	if name == "" {
		name = DefaultSection
	}
	r.mu.Lock()
	r.section = name
	r.mu.Unlock()
}

// Policy returns the configured final policy.
func (r *LevelRegistry) Policy() FinalPolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.policy
}

// SetLevel assigns a threshold to module and returns the effective level.
//
// Parameters:
//   - module: Module name; empty names are not stored
//   - level: Threshold; invalid values are replaced by the default level
//   - final: Lock the entry against later non-final changes
//
// Returns:
//   - Level: The level now in effect for module. When the entry is final and
//     the policy rejects the change this is the existing level. LevelStub
//     means nothing was stored.
func (r *LevelRegistry) SetLevel(module string, level Level, final bool) Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	ml, _ := r.setLocked(module, level, final)
	return ml.Level
}

// Apply is SetLevel that also reports whether the call was applied.
//
// Returns:
//   - ModuleLevel: The entry now in effect for module
//   - bool: false when module is empty or a final entry was kept
func (r *LevelRegistry) Apply(module string, level Level, final bool) (ModuleLevel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLocked(module, level, final)
}

// setLocked implements SetLevel and Apply. The caller holds r.mu.
func (r *LevelRegistry) setLocked(module string, level Level, final bool) (ModuleLevel, bool) {
	if module == "" {
		return ModuleLevel{Level: LevelStub}, false
	}
	if !level.Valid() {
		level = r.defaultLevel
	}

	existing, ok := r.modules[module]
	if ok && existing.Final && !r.allowsOverride(final) {
		return existing, false
	}

	ml := ModuleLevel{Level: level, Final: final}
	r.modules[module] = ml
	return ml, true
}

// allowsOverride reports whether a call with the given final flag may
// replace a final entry.
func (r *LevelRegistry) allowsOverride(final bool) bool {
	switch r.policy {
	case FinalImmutable:
		return false
	default:
		return final
	}
}

// GetLevel looks up module without creating an entry.
func (r *LevelRegistry) GetLevel(module string) (ModuleLevel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ml, ok := r.modules[module]
	return ml, ok
}

// Resolve returns the threshold for module, creating a non-final entry with
// the default level when the module has not been seen before.
func (r *LevelRegistry) Resolve(module string) Level {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ml, ok := r.modules[module]; ok {
		return ml.Level
	}
	r.modules[module] = ModuleLevel{Level: r.defaultLevel}
	return r.defaultLevel
}

// DefaultLevel returns the threshold applied to new modules.
func (r *LevelRegistry) DefaultLevel() Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultLevel
}

// SetDefaultLevel changes the threshold applied to new modules.
// Existing entries keep their level. Invalid levels are rejected.
func (r *LevelRegistry) SetDefaultLevel(level Level) bool {
	if !level.Valid() {
		return false
	}
	r.mu.Lock()
	r.defaultLevel = level
	r.mu.Unlock()
	return true
}

// Modules returns a snapshot of every known module, sorted by name.
func (r *LevelRegistry) Modules() []ModuleEntry {
	r.mu.Lock()
	out := make([]ModuleEntry, 0, len(r.modules))
	for name, ml := range r.modules {
		out = append(out, ModuleEntry{Module: name, ModuleLevel: ml})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Module < out[j].Module
	})
	return out
}

// Len returns the number of known modules.
func (r *LevelRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.modules)
}

// Clear drops every module entry. The default level is kept.
func (r *LevelRegistry) Clear() {
	r.mu.Lock()
	r.modules = make(map[string]ModuleLevel)
	r.mu.Unlock()
}

// Save writes the default level and every module level to store and syncs it.
//
// Returns:
//   - error: ErrNoStore when store is nil, or the store's Sync error
func (r *LevelRegistry) Save(store Store) error {
	if store == nil {
		return ErrNoStore
	}

	r.mu.Lock()
	store.BeginSection(r.section)
	store.Set(DefaultLevelKey, r.defaultLevel.String())
	for name, ml := range r.modules {
		store.Set(name, ml.Level.String())
	}
	store.EndSection()
	r.mu.Unlock()

	if err := store.Sync(); err != nil {
		return fmt.Errorf("syncing module levels: %w", err)
	}
	return nil
}

// Load reads the default level and module levels from store.
//
// Every loaded module is marked final, so the stored configuration wins over
// entries created lazily at run time. Values that do not parse as a level
// fall back to the default level.
//
// Returns:
//   - error: ErrNoStore when store is nil
func (r *LevelRegistry) Load(store Store) error {
	if store == nil {
		return ErrNoStore
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	store.BeginSection(r.section)
	defer store.EndSection()

	keys := store.Keys()
	if raw := store.Get(DefaultLevelKey, ""); raw != "" {
		if l, err := ParseLevel(raw); err == nil {
			r.defaultLevel = l
		}
	}

	for _, key := range keys {
		if key == DefaultLevelKey {
			continue
		}
		l, _ := ParseLevel(store.Get(key, "")) //nolint:errcheck // LevelStub falls back to the default level
		r.setLocked(key, l, true)
	}
	return nil
}
