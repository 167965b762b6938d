package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/settings"
)

// Settings backends.
const (
	SettingsBackendFile   = "file"
	SettingsBackendSQLite = "sqlite"
	SettingsBackendNone   = "none"
)

// minJWTSecretLength is the shortest accepted HS256 secret.
const minJWTSecretLength = 32

// Config is the root configuration structure for logq.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Logger    LoggerConfig    `yaml:"logger"`
	Settings  SettingsConfig  `yaml:"settings"`
	Sinks     SinksConfig     `yaml:"sinks"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// LoggerConfig controls the level registry and the logger itself.
type LoggerConfig struct {
	// DefaultLevel is the threshold for modules without a stored level.
	DefaultLevel string `yaml:"default_level"`

	// FinalPolicy is "final_overrides" or "immutable".
	FinalPolicy string `yaml:"final_policy"`

	// Section is the settings section module levels are stored under.
	Section string `yaml:"section"`

	// StartupBanner logs a timestamped line when the logger starts.
	StartupBanner bool `yaml:"startup_banner"`

	// LoadOnStart reads stored module levels before the first message.
	LoadOnStart bool `yaml:"load_on_start"`

	// ShutdownTimeout bounds the queue drain on shutdown (seconds).
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

// SettingsConfig selects where module levels are persisted.
type SettingsConfig struct {
	// Backend is "file", "sqlite" or "none".
	Backend string `yaml:"backend"`

	// Path is the YAML or TOML file used by the file backend.
	Path string `yaml:"path"`

	// Watch reloads levels when the settings file changes.
	Watch bool `yaml:"watch"`
}

// SinksConfig enables and configures output sinks.
type SinksConfig struct {
	Console  ConsoleSinkConfig `yaml:"console"`
	File     FileSinkConfig    `yaml:"file"`
	Archive  ArchiveSinkConfig `yaml:"archive"`
	MQTT     MQTTSinkConfig    `yaml:"mqtt"`
	InfluxDB InfluxSinkConfig  `yaml:"influxdb"`
}

// ConsoleSinkConfig configures terminal output.
type ConsoleSinkConfig struct {
	Enabled bool `yaml:"enabled"`
	Colour  bool `yaml:"colour"`

	// Stream is "stdout" or "stderr".
	Stream string `yaml:"stream"`
}

// FileSinkConfig configures the rotating file sink.
type FileSinkConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// ArchiveSinkConfig configures the SQLite archive sink.
type ArchiveSinkConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MQTTSinkConfig configures publishing lines to MQTT.
type MQTTSinkConfig struct {
	Enabled     bool   `yaml:"enabled"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

// InfluxSinkConfig configures writing lines as InfluxDB points.
type InfluxSinkConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Control subscribes to remote level changes.
	Control bool `yaml:"control"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains admin HTTP API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains live-tail WebSocket settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// LoggingConfig controls the diagnostic logger logq uses to report on
// itself (sink failures, reloads, API requests).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains admin token settings.
type JWTConfig struct {
	// Secret signs HS256 tokens. Empty disables API authentication.
	Secret string `yaml:"secret"`

	// AccessTokenTTL is the lifetime of issued tokens (minutes).
	AccessTokenTTL int `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults); skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LOGQ_SECTION_KEY
// For example: LOGQ_DEFAULT_LEVEL, LOGQ_DATABASE_PATH, LOGQ_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults: console output, levels
// in a YAML file, everything networked disabled.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{
			DefaultLevel:    "debug",
			FinalPolicy:     logq.FinalOverridableByFinal.String(),
			Section:         logq.DefaultSection,
			StartupBanner:   true,
			LoadOnStart:     true,
			ShutdownTimeout: 10,
		},
		Settings: SettingsConfig{
			Backend: SettingsBackendFile,
			Path:    "./data/levels.yaml",
		},
		Sinks: SinksConfig{
			Console: ConsoleSinkConfig{
				Enabled: true,
				Colour:  true,
				Stream:  "stderr",
			},
			File: FileSinkConfig{
				Path:       "./data/logq.log",
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     30,
			},
			MQTT: MQTTSinkConfig{
				QoS: 0,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/logq.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "logq",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "logq",
			Bucket:        "logs",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8480,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LOGQ_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Logger
	if v := os.Getenv("LOGQ_DEFAULT_LEVEL"); v != "" {
		cfg.Logger.DefaultLevel = v
	}

	// Settings
	if v := os.Getenv("LOGQ_SETTINGS_BACKEND"); v != "" {
		cfg.Settings.Backend = v
	}
	if v := os.Getenv("LOGQ_SETTINGS_PATH"); v != "" {
		cfg.Settings.Path = v
	}

	// Database
	if v := os.Getenv("LOGQ_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("LOGQ_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LOGQ_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LOGQ_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("LOGQ_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("LOGQ_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("LOGQ_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Security
	if v := os.Getenv("LOGQ_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and inconsistent sections.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Logger
	if _, err := logq.ParseLevel(c.Logger.DefaultLevel); err != nil {
		errs = append(errs, fmt.Sprintf("logger.default_level %q is not a level", c.Logger.DefaultLevel))
	}
	if _, err := logq.ParseFinalPolicy(c.Logger.FinalPolicy); err != nil {
		errs = append(errs, "logger.final_policy must be final_overrides or immutable")
	}

	// Settings
	switch c.Settings.Backend {
	case SettingsBackendFile:
		if _, err := settings.FormatFor(c.Settings.Path); err != nil {
			errs = append(errs, "settings.path must end in .yaml, .yml or .toml")
		}
	case SettingsBackendSQLite, SettingsBackendNone:
	default:
		errs = append(errs, "settings.backend must be file, sqlite or none")
	}
	if c.Settings.Watch && c.Settings.Backend != SettingsBackendFile {
		errs = append(errs, "settings.watch requires the file backend")
	}

	// Sinks
	if c.Sinks.Console.Enabled && c.Sinks.Console.Stream != "stdout" && c.Sinks.Console.Stream != "stderr" {
		errs = append(errs, "sinks.console.stream must be stdout or stderr")
	}
	if c.Sinks.File.Enabled && c.Sinks.File.Path == "" {
		errs = append(errs, "sinks.file.path is required when the file sink is enabled")
	}
	if c.Sinks.MQTT.Enabled && !c.MQTT.Enabled {
		errs = append(errs, "sinks.mqtt requires mqtt.enabled")
	}
	if c.Sinks.MQTT.QoS < 0 || c.Sinks.MQTT.QoS > 2 {
		errs = append(errs, "sinks.mqtt.qos must be 0, 1, or 2")
	}
	if c.Sinks.InfluxDB.Enabled && !c.InfluxDB.Enabled {
		errs = append(errs, "sinks.influxdb requires influxdb.enabled")
	}

	// Database
	if c.NeedsDatabase() && c.Database.Path == "" {
		errs = append(errs, "database.path is required for the sqlite settings backend and the archive sink")
	}

	// MQTT
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Control && !c.MQTT.Enabled {
		errs = append(errs, "mqtt.control requires mqtt.enabled")
	}

	// API
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security - the secret is optional, but a short one is worse than a
	// visible decision to run without authentication.
	if c.Security.JWT.Secret != "" && len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NeedsDatabase reports whether any enabled component uses the SQLite database.
func (c *Config) NeedsDatabase() bool {
	return c.Settings.Backend == SettingsBackendSQLite || c.Sinks.Archive.Enabled
}

// DefaultLevel returns the parsed logger.default_level. Call after Validate.
func (c *Config) DefaultLevel() logq.Level {
	level, err := logq.ParseLevel(c.Logger.DefaultLevel)
	if err != nil {
		return logq.LevelDebug
	}
	return level
}

// FinalPolicy returns the parsed logger.final_policy. Call after Validate.
func (c *Config) FinalPolicy() logq.FinalPolicy {
	policy, _ := logq.ParseFinalPolicy(c.Logger.FinalPolicy) //nolint:errcheck // Validated
	return policy
}

// GetShutdownTimeout returns the logger shutdown timeout as a Duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.Logger.ShutdownTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTokenTTL returns the admin token lifetime as a Duration.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}
