package control

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/settings"
)

// newTestService returns a service over a logger with a YAML store in a temp dir.
func newTestService(t *testing.T, policy logq.FinalPolicy) (*Service, *settings.FileStore) {
	t.Helper()

	store, err := settings.OpenFile(filepath.Join(t.TempDir(), "levels.yaml"))
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	logger := logq.New(
		logq.WithDefaultLevel(logq.LevelLog),
		logq.WithFinalPolicy(policy),
		logq.WithStore(store, false),
	)
	t.Cleanup(func() {
		logger.Shutdown(context.Background()) //nolint:errcheck // Test cleanup
	})
	return NewService(logger, store.Reload), store
}

// recordChanges collects every change svc reports.
func recordChanges(svc *Service) *[]Change {
	var changes []Change
	svc.OnChange(func(c Change) {
		changes = append(changes, c)
	})
	return &changes
}

// =============================================================================
// SetModule Tests
// =============================================================================

func TestSetModule(t *testing.T) {
	svc, _ := newTestService(t, logq.FinalOverridableByFinal)
	changes := recordChanges(svc)

	c, err := svc.SetModule("net-Conn", logq.LevelDebug, false, SourceAPI)
	if err != nil {
		t.Fatalf("SetModule() error = %v", err)
	}
	want := Change{Module: "net-Conn", Level: logq.LevelDebug, Source: SourceAPI}
	if c != want {
		t.Errorf("SetModule() = %+v, want %+v", c, want)
	}
	if len(*changes) != 1 || (*changes)[0] != want {
		t.Errorf("listeners saw %+v", *changes)
	}

	ml, ok := svc.Module("net-Conn")
	if !ok || ml.Level != logq.LevelDebug || ml.Final {
		t.Errorf("Module() = %+v, %v", ml, ok)
	}
}

func TestSetModule_Validation(t *testing.T) {
	svc, _ := newTestService(t, logq.FinalOverridableByFinal)
	changes := recordChanges(svc)

	if _, err := svc.SetModule("", logq.LevelDebug, false, SourceAPI); !errors.Is(err, ErrEmptyModule) {
		t.Errorf("empty module error = %v", err)
	}
	if _, err := svc.SetModule(logq.DefaultLevelKey, logq.LevelDebug, false, SourceAPI); !errors.Is(err, ErrEmptyModule) {
		t.Errorf("default key error = %v", err)
	}
	if _, err := svc.SetModule("m", logq.LevelStub, false, SourceAPI); !errors.Is(err, logq.ErrInvalidLevel) {
		t.Errorf("stub level error = %v", err)
	}
	if len(*changes) != 0 {
		t.Errorf("listeners saw %+v", *changes)
	}
}

func TestSetModule_FinalPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    logq.FinalPolicy
		final     bool
		wantErr   bool
		wantLevel logq.Level
	}{
		{"non-final change rejected", logq.FinalOverridableByFinal, false, true, logq.LevelError},
		{"final change accepted", logq.FinalOverridableByFinal, true, false, logq.LevelDebugFine},
		{"immutable rejects final change", logq.FinalImmutable, true, true, logq.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.policy)
			if _, err := svc.SetModule("db", logq.LevelError, true, SourceAPI); err != nil {
				t.Fatalf("initial SetModule() error = %v", err)
			}
			changes := recordChanges(svc)

			c, err := svc.SetModule("db", logq.LevelDebugFine, tt.final, SourceMQTT)
			if tt.wantErr {
				if !errors.Is(err, ErrRejected) {
					t.Errorf("SetModule() error = %v, want ErrRejected", err)
				}
				if len(*changes) != 0 {
					t.Errorf("rejected change notified: %+v", *changes)
				}
			} else if err != nil {
				t.Fatalf("SetModule() error = %v", err)
			}
			if c.Level != tt.wantLevel {
				t.Errorf("Change.Level = %s, want %s", c.Level, tt.wantLevel)
			}
			if ml, _ := svc.Module("db"); ml.Level != tt.wantLevel {
				t.Errorf("stored level = %s, want %s", ml.Level, tt.wantLevel)
			}
		})
	}
}

func TestSetModule_ImmutableSameLevelRejected(t *testing.T) {
	svc, _ := newTestService(t, logq.FinalImmutable)
	if _, err := svc.SetModule("db", logq.LevelError, true, SourceAPI); err != nil {
		t.Fatalf("initial SetModule() error = %v", err)
	}
	changes := recordChanges(svc)

	c, err := svc.SetModule("db", logq.LevelError, true, SourceMQTT)
	if !errors.Is(err, ErrRejected) {
		t.Errorf("SetModule() error = %v, want ErrRejected", err)
	}
	if c.Level != logq.LevelError || !c.Final {
		t.Errorf("Change = %+v, want the kept final ERROR entry", c)
	}
	if len(*changes) != 0 {
		t.Errorf("rejected change notified: %+v", *changes)
	}
}

// =============================================================================
// Default Level Tests
// =============================================================================

func TestSetDefault(t *testing.T) {
	svc, _ := newTestService(t, logq.FinalOverridableByFinal)
	changes := recordChanges(svc)

	if _, err := svc.SetDefault(logq.LevelWarning, SourceAPI); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}
	if got := svc.DefaultLevel(); got != logq.LevelWarning {
		t.Errorf("DefaultLevel() = %s, want WARNING", got)
	}
	if len(*changes) != 1 || (*changes)[0].Module != logq.DefaultLevelKey {
		t.Errorf("listeners saw %+v", *changes)
	}

	if _, err := svc.SetDefault(logq.Level(42), SourceAPI); !errors.Is(err, logq.ErrInvalidLevel) {
		t.Errorf("SetDefault(42) error = %v", err)
	}
	if got := svc.DefaultLevel(); got != logq.LevelWarning {
		t.Errorf("DefaultLevel() after invalid = %s", got)
	}
}

// =============================================================================
// Save / Reload Tests
// =============================================================================

func TestSaveAndReload(t *testing.T) {
	svc, store := newTestService(t, logq.FinalOverridableByFinal)

	if _, err := svc.SetModule("net-Conn", logq.LevelDebug, false, SourceAPI); err != nil {
		t.Fatal(err)
	}
	if err := svc.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Edit the file behind the store's back, as an operator would.
	edited := "logq:\n  '*default*': ERROR\n  net-Conn: WARNING\n  db: LOG_FINE\n"
	if err := os.WriteFile(store.Path(), []byte(edited), 0o600); err != nil {
		t.Fatal(err)
	}

	changes := recordChanges(svc)
	if err := svc.Reload(SourceReload); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if got := svc.DefaultLevel(); got != logq.LevelError {
		t.Errorf("DefaultLevel() = %s, want ERROR", got)
	}
	for module, want := range map[string]logq.Level{"net-Conn": logq.LevelWarning, "db": logq.LevelLogFine} {
		ml, ok := svc.Module(module)
		if !ok || ml.Level != want || !ml.Final {
			t.Errorf("Module(%q) = %+v, %v; want final %s", module, ml, ok, want)
		}
	}
	if len(*changes) != 1 || (*changes)[0].Source != SourceReload {
		t.Errorf("listeners saw %+v", *changes)
	}
	if n := len(svc.Modules()); n != 2 {
		t.Errorf("Modules() has %d entries, want 2", n)
	}
}

func TestReload_StoreError(t *testing.T) {
	svc, store := newTestService(t, logq.FinalOverridableByFinal)

	if err := os.WriteFile(store.Path(), []byte("logq: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := svc.Reload(SourceReload)
	if err == nil || !strings.Contains(err.Error(), "reloading settings") {
		t.Errorf("Reload() error = %v", err)
	}
}

func TestSave_NoStore(t *testing.T) {
	logger := logq.New()
	defer logger.Shutdown(context.Background()) //nolint:errcheck // Test cleanup
	svc := NewService(logger, nil)

	if err := svc.Save(); !errors.Is(err, logq.ErrNoStore) {
		t.Errorf("Save() error = %v, want ErrNoStore", err)
	}
	if err := svc.Reload(SourceReload); !errors.Is(err, logq.ErrNoStore) {
		t.Errorf("Reload() error = %v, want ErrNoStore", err)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(t, logq.FinalOverridableByFinal)
	if _, err := svc.SetModule("a", logq.LevelLog, false, SourceAPI); err != nil {
		t.Fatal(err)
	}
	if got := svc.Stats().Modules; got != 1 {
		t.Errorf("Stats().Modules = %d, want 1", got)
	}
}
