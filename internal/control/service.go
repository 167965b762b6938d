package control

import (
	"fmt"
	"sync"

	"github.com/nerrad567/logq"
)

// Change sources.
const (
	SourceAPI    = "api"
	SourceMQTT   = "mqtt"
	SourceReload = "reload"
)

// Change describes one applied level change.
type Change struct {
	// Module is the module name, or logq.DefaultLevelKey for the default level.
	Module string
	Level  logq.Level
	Final  bool
	Source string
}

// Service applies level changes to a logger and notifies listeners.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Listeners run synchronously on the goroutine that made the change.
type Service struct {
	logger *logq.Logger
	reload func() error

	mu        sync.RWMutex
	listeners []func(Change)
}

// NewService creates a Service for logger.
//
// Parameters:
//   - logger: The logger whose registry is changed
//   - reload: Refreshes the settings store from its backing file or table
//     before Reload applies it; nil when the store needs no refresh
func NewService(logger *logq.Logger, reload func() error) *Service {
	return &Service{
		logger: logger,
		reload: reload,
	}
}

// OnChange registers fn to be called after every applied change.
func (s *Service) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// SetModule assigns level to module.
//
// Returns:
//   - Change: The change as applied
//   - error: ErrEmptyModule, logq.ErrInvalidLevel, or ErrRejected when a
//     final entry kept its existing level (Change then holds that level)
func (s *Service) SetModule(module string, level logq.Level, final bool, source string) (Change, error) {
	if module == "" || module == logq.DefaultLevelKey {
		return Change{}, ErrEmptyModule
	}
	if !level.Valid() {
		return Change{}, fmt.Errorf("%w: %d", logq.ErrInvalidLevel, int(level))
	}

	current, applied := s.logger.Levels().Apply(module, level, final)
	if !applied {
		return Change{Module: module, Level: current.Level, Final: current.Final, Source: source},
			fmt.Errorf("%w: %s stays at %s", ErrRejected, module, current.Level)
	}

	c := Change{Module: module, Level: level, Final: final, Source: source}
	s.notify(c)
	return c, nil
}

// SetDefault changes the level applied to modules seen for the first time.
func (s *Service) SetDefault(level logq.Level, source string) (Change, error) {
	if !s.logger.Levels().SetDefaultLevel(level) {
		return Change{}, fmt.Errorf("%w: %d", logq.ErrInvalidLevel, int(level))
	}
	c := Change{Module: logq.DefaultLevelKey, Level: level, Source: source}
	s.notify(c)
	return c, nil
}

// Module returns the entry for one module.
func (s *Service) Module(name string) (logq.ModuleLevel, bool) {
	return s.logger.Levels().GetLevel(name)
}

// Modules returns every known module, sorted by name.
func (s *Service) Modules() []logq.ModuleEntry {
	return s.logger.Levels().Modules()
}

// DefaultLevel returns the level applied to new modules.
func (s *Service) DefaultLevel() logq.Level {
	return s.logger.Levels().DefaultLevel()
}

// Stats returns the logger's counters.
func (s *Service) Stats() logq.Stats {
	return s.logger.Stats()
}

// Save persists the registry to the logger's settings store.
func (s *Service) Save() error {
	if err := s.logger.SaveLevels(); err != nil {
		return fmt.Errorf("saving levels: %w", err)
	}
	return nil
}

// Reload refreshes the settings store and applies it. Loaded entries are
// final. Listeners receive one change for the default level.
func (s *Service) Reload(source string) error {
	if s.reload != nil {
		if err := s.reload(); err != nil {
			return fmt.Errorf("reloading settings: %w", err)
		}
	}
	if err := s.logger.LoadLevels(); err != nil {
		return fmt.Errorf("loading levels: %w", err)
	}
	s.notify(Change{Module: logq.DefaultLevelKey, Level: s.DefaultLevel(), Source: source})
	return nil
}

func (s *Service) notify(c Change) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}
