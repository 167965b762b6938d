package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/api"
	"github.com/nerrad567/logq/settings"
)

const testSecret = "test-secret-for-development-only-0123456789"

// writeConfig writes a config that logs to a file sink under dir and keeps
// levels in dir/levels.yaml. extra is appended verbatim.
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	content := fmt.Sprintf(`
logger:
  default_level: log
  startup_banner: false
  shutdown_timeout: 5

settings:
  backend: file
  path: %q

sinks:
  console:
    enabled: false
  file:
    enabled: true
    path: %q

logging:
  level: error
  output: discard
%s`, filepath.Join(dir, "levels.yaml"), filepath.Join(dir, "logq.log"), extra)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// runApp runs the command tree with args and returns stdout.
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(strings.NewReader(stdin), &out).Run(context.Background(), append([]string{"logq"}, args...))
	return out.String(), err
}

// readLines parses every rendered line in the log file.
func readLines(t *testing.T, path string) []logq.Line {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	var lines []logq.Line
	for _, raw := range strings.Split(string(data), "\n") {
		if line, ok := logq.ParseLine(raw); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("LOGQ_CONFIG", "")
	os.Unsetenv("LOGQ_CONFIG") //nolint:errcheck // Restored by t.Setenv

	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("LOGQ_CONFIG", "/custom/path/config.yaml")

	if got := getConfigPath(); got != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want %q", got, "/custom/path/config.yaml")
	}
}

func TestSplitLevel(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel logq.Level
		wantText  string
	}{
		{"plain text", logq.LevelLog, "plain text"},
		{"ERROR: disk full", logq.LevelError, "disk full"},
		{"WARNF: slow", logq.LevelWarningFine, "slow"},
		{"debug_fine:raw", logq.LevelDebugFine, "raw"},
		{"1: first item", logq.LevelLog, "1: first item"},
		{"note: not a level", logq.LevelLog, "note: not a level"},
		{": empty prefix", logq.LevelLog, ": empty prefix"},
		{"ERROR:", logq.LevelError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			level, text := splitLevel(tt.line)
			if level != tt.wantLevel || text != tt.wantText {
				t.Errorf("splitLevel(%q) = (%s, %q), want (%s, %q)", tt.line, level, text, tt.wantLevel, tt.wantText)
			}
		})
	}
}

func TestHealthCheck_NoClients(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil, nil); err != nil {
		t.Errorf("healthCheck() with nothing enabled = %v", err)
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, strings.NewReader(""), serveOptions{configPath: "/nonexistent/path/config.yaml", stdin: true})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_ForwardsStdin verifies lines are filtered, delivered to the file
// sink and module levels persisted on exit.
func TestRun_ForwardsStdin(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "")

	input := strings.Join([]string{
		"hello world",
		"ERROR: boom",
		"DEBUG: hidden below the default level",
		"WARN: careful",
	}, "\n")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx, strings.NewReader(input), serveOptions{configPath: configPath, stdin: true, module: "app"}); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	var got []string
	for _, line := range readLines(t, filepath.Join(dir, "logq.log")) {
		if line.Module == "app" {
			got = append(got, line.Level.String()+" "+line.Text)
		}
	}
	want := []string{"LOG hello world", "ERROR boom", "WARNING careful"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("forwarded lines = %q, want %q", got, want)
	}

	store, err := settings.OpenFile(filepath.Join(dir, "levels.yaml"))
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	store.BeginSection(logq.DefaultSection)
	defer store.EndSection()
	if v := store.Get("app", ""); v != "LOG" {
		t.Errorf("stored level for app = %q, want LOG", v)
	}
}

// TestRun_AppliesStoredLevels verifies levels saved before start filter
// forwarded lines.
func TestRun_AppliesStoredLevels(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "")

	if _, err := runApp(t, "", "--config", configPath, "levels", "set", "app", "error"); err != nil {
		t.Fatalf("levels set error: %v", err)
	}

	if err := run(context.Background(), strings.NewReader("LOG: dropped\nERROR: kept\n"), serveOptions{configPath: configPath, stdin: true, module: "app"}); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "logq.log"))
	if len(lines) != 1 || lines[0].Text != "kept" {
		t.Errorf("lines = %+v, want only the ERROR line", lines)
	}
}

// TestRun_ContextCancelled verifies a signal stops a service that is not
// reading stdin.
func TestRun_ContextCancelled(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, strings.NewReader(""), serveOptions{configPath: configPath, stdin: false})
	}()

	// Give startup a moment before signalling
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() after cancel error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after context cancellation")
	}
}

// TestRun_SQLiteBackend verifies the archive sink and the settings table
// share the database and levels survive a restart.
func TestRun_SQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, fmt.Sprintf("database:\n  path: %q\n", filepath.Join(dir, "logq.db")))

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data, []byte("backend: file"), []byte("backend: sqlite"), 1)
	data = bytes.Replace(data, []byte("sinks:\n"), []byte("sinks:\n  archive:\n    enabled: true\n"), 1)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		t.Fatal(err)
	}

	if err := run(context.Background(), strings.NewReader("ERROR: archived\n"), serveOptions{configPath: configPath, stdin: true, module: "app"}); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	out, err := runApp(t, "", "--config", configPath, "levels", "list")
	if err != nil {
		t.Fatalf("levels list error: %v", err)
	}
	if !strings.Contains(out, "app") {
		t.Errorf("levels list output missing module saved at shutdown:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "levels.yaml")); !os.IsNotExist(err) {
		t.Errorf("levels.yaml written with the sqlite backend (stat error %v)", err)
	}
}

func TestLevelsCommands(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "")

	if _, err := runApp(t, "", "--config", configPath, "levels", "set", "db-Conn", "debug"); err != nil {
		t.Fatalf("levels set error: %v", err)
	}
	if _, err := runApp(t, "", "--config", configPath, "levels", "set", "db-Conn", "warnf"); err != nil {
		t.Fatalf("levels set over stored entry error: %v", err)
	}
	if _, err := runApp(t, "", "--config", configPath, "levels", "default", "warning"); err != nil {
		t.Fatalf("levels default error: %v", err)
	}

	out, err := runApp(t, "", "--config", configPath, "levels", "list")
	if err != nil {
		t.Fatalf("levels list error: %v", err)
	}
	for _, want := range []string{"db-Conn", "WARNING_FINE", logq.DefaultLevelKey, "WARNING", "1 stored modules"} {
		if !strings.Contains(out, want) {
			t.Errorf("levels list output missing %q:\n%s", want, out)
		}
	}
}

func TestLevelsCommands_Errors(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "")

	tests := []struct {
		name string
		args []string
	}{
		{"set missing level", []string{"levels", "set", "db"}},
		{"set invalid level", []string{"levels", "set", "db", "loud"}},
		{"set default key", []string{"levels", "set", logq.DefaultLevelKey, "log"}},
		{"default missing level", []string{"levels", "default"}},
		{"default invalid level", []string{"levels", "default", "99"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", configPath}, tt.args...)
			if _, err := runApp(t, "", args...); err == nil {
				t.Errorf("%v succeeded, want error", tt.args)
			}
		})
	}
}

func TestWithLevels_NoStore(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, "")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data, []byte("backend: file"), []byte("backend: none"), 1)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		t.Fatal(err)
	}

	err = withLevels(context.Background(), configPath, false, func(*logq.LevelRegistry) error { return nil })
	if !errors.Is(err, errNoStore) {
		t.Errorf("withLevels() error = %v, want errNoStore", err)
	}
}

func TestDBCommands(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, fmt.Sprintf("database:\n  path: %q\n", filepath.Join(dir, "logq.db")))

	out, err := runApp(t, "", "--config", configPath, "db", "status")
	if err != nil {
		t.Fatalf("db status error: %v", err)
	}
	if strings.Contains(out, "applied ") || !strings.Contains(out, "create_settings") {
		t.Errorf("fresh db status:\n%s", out)
	}

	if out, err = runApp(t, "", "--config", configPath, "db", "migrate"); err != nil {
		t.Fatalf("db migrate error: %v", err)
	}
	if !strings.Contains(out, "applied 2 migrations") {
		t.Errorf("db migrate output = %q", out)
	}

	if out, err = runApp(t, "", "--config", configPath, "db", "rollback"); err != nil {
		t.Fatalf("db rollback error: %v", err)
	}
	if !strings.Contains(out, "create_log_messages") {
		t.Errorf("db rollback output = %q", out)
	}

	out, err = runApp(t, "", "--config", configPath, "db", "status")
	if err != nil {
		t.Fatalf("db status error: %v", err)
	}
	if strings.Count(out, "applied") != 1 || strings.Count(out, "pending") != 1 {
		t.Errorf("db status after rollback:\n%s", out)
	}
}

func TestTokenCommand(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), fmt.Sprintf("security:\n  jwt:\n    secret: %q\n", testSecret))

	out, err := runApp(t, "", "--config", configPath, "token", "--subject", "ops", "--ttl", "5m")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	subject, err := api.ValidateToken(testSecret, strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if subject != "ops" {
		t.Errorf("subject = %q, want ops", subject)
	}
}

func TestIssueToken_NoSecret(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "")

	var out bytes.Buffer
	if err := issueToken(&out, configPath, "admin", 0); !errors.Is(err, errNoSecret) {
		t.Errorf("issueToken() error = %v, want errNoSecret", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "", "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "logq "+version) {
		t.Errorf("version output = %q", out)
	}
}
