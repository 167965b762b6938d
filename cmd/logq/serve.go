package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/api"
	"github.com/nerrad567/logq/internal/control"
	"github.com/nerrad567/logq/internal/infrastructure/config"
	"github.com/nerrad567/logq/internal/infrastructure/database"
	"github.com/nerrad567/logq/internal/infrastructure/influxdb"
	"github.com/nerrad567/logq/internal/infrastructure/logging"
	"github.com/nerrad567/logq/internal/infrastructure/mqtt"
	"github.com/nerrad567/logq/settings"
	"github.com/nerrad567/logq/sinks"
)

// maxLineSize is the longest stdin line forwarded as one message.
const maxLineSize = 1 << 20

// serveOptions are the serve command's flags.
type serveOptions struct {
	configPath string
	stdin      bool
	module     string
}

func serveCommand(in io.Reader) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the logger: forward stdin, serve the admin API, accept remote level changes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdin",
				Usage: "Forward standard input lines as messages and stop at EOF",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "module",
				Usage: "Module name for forwarded lines",
				Value: "stdin",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, in, serveOptions{
				configPath: c.String("config"),
				stdin:      c.Bool("stdin"),
				module:     c.String("module"),
			})
		},
	}
}

// run is the service logic, separated from the command for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - in: Source of forwarded lines when opts.stdin is set
//   - opts: Parsed command flags
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, in io.Reader, opts serveOptions) error {
	// Use default logger until config is loaded
	log := logging.Default()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // Nothing left to report to
	log.Info("starting logq",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", opts.configPath,
	)

	// Open database (settings table and archive sink)
	var db *database.DB
	if cfg.NeedsDatabase() {
		db, err = openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database ready", "path", cfg.Database.Path)
	}

	store, reload, err := openStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	log.Info("settings store opened", "backend", cfg.Settings.Backend)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", mqttClient.ClientID(),
		)
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			stats := influxClient.Stats()
			log.Info("closing InfluxDB connection", "points", stats.Written, "failed", stats.Failed)
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	sinkList, err := buildSinks(ctx, cfg, db, mqttClient, influxClient)
	if err != nil {
		return err
	}

	logOpts := []logq.Option{
		logq.WithDefaultLevel(cfg.DefaultLevel()),
		logq.WithFinalPolicy(cfg.FinalPolicy()),
		logq.WithSection(cfg.Logger.Section),
		logq.WithSinks(sinkList...),
		logq.WithDiagnostics(log),
		logq.WithStartupBanner(cfg.Logger.StartupBanner),
	}
	if store != nil {
		logOpts = append(logOpts, logq.WithStore(store, cfg.Logger.LoadOnStart))
	}
	logger := logq.New(logOpts...)
	defer func() {
		// Fresh context: ctx is already cancelled on a signal
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		if shutdownErr := logger.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error("error shutting down logger", "error", shutdownErr)
		}
	}()
	log.Info("logger started",
		"default_level", logger.Levels().DefaultLevel().String(),
		"sinks", len(sinkList),
		"modules", logger.Levels().Len(),
	)

	svc := control.NewService(logger, reload)
	svc.OnChange(func(c control.Change) {
		log.Info("module level changed",
			"module", c.Module,
			"level", c.Level.String(),
			"final", c.Final,
			"source", c.Source,
		)
	})
	if influxClient != nil {
		svc.OnChange(func(c control.Change) {
			influxClient.WriteLevelChange(c.Module, c.Level.String(), c.Final, c.Source)
		})
	}

	// Remote level control over MQTT
	if cfg.MQTT.Control {
		listener := control.NewListener(mqttClient, svc, byte(cfg.MQTT.QoS)) //nolint:gosec // QoS validated 0-2
		if err := listener.Start(); err != nil {
			return fmt.Errorf("starting level control listener: %w", err)
		}
		defer func() {
			if stopErr := listener.Stop(); stopErr != nil {
				log.Warn("error stopping level control listener", "error", stopErr)
			}
		}()
		log.Info("MQTT level control enabled", "topics", mqttClient.Subscriptions())
	}

	// Reload levels when the settings file changes
	if cfg.Settings.Watch {
		watchCtx, stopWatch := context.WithCancel(ctx)
		watchErrs, err := settings.Watch(watchCtx, cfg.Settings.Path, reloadOnChange(store, svc, log))
		if err != nil {
			stopWatch()
			return fmt.Errorf("watching settings: %w", err)
		}
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			for err := range watchErrs {
				log.Warn("settings watch error", "error", err)
			}
		}()
		// Stopped before the logger shuts down so no reload refills the
		// cleared registry.
		defer func() {
			stopWatch()
			<-watchDone
		}()
		log.Info("watching settings file", "path", cfg.Settings.Path)
	}

	// Admin API and live tail
	if cfg.API.Enabled {
		srv, err := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log,
			Levels:   svc,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		svc.OnChange(srv.Hub().PublishChange)
		if err := logger.AddSink(srv.Hub()); err != nil {
			return fmt.Errorf("adding live tail sink: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete")

	if !opts.stdin {
		<-ctx.Done()
		log.Info("shutdown signal received, cleaning up")
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- forwardLines(in, logger, opts.module)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
		return nil
	case err := <-done:
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		log.Info("end of input, cleaning up")
		return nil
	}
}

// changeDetector is implemented by stores that can tell their own writes
// apart from external edits.
type changeDetector interface {
	Changed() (bool, error)
}

// reloadOnChange returns the settings watch callback. Events caused by the
// store's own Sync leave the file matching the store and are skipped, so a
// save never marks lazily created modules final.
func reloadOnChange(store logq.Store, svc *control.Service, log *logging.Logger) func() {
	return func() {
		if d, ok := store.(changeDetector); ok {
			changed, err := d.Changed()
			switch {
			case err != nil:
				log.Warn("checking settings file", "error", err)
			case !changed:
				log.Debug("settings file unchanged, reload skipped")
				return
			}
		}
		if err := svc.Reload(control.SourceReload); err != nil {
			log.Error("reloading levels", "error", err)
		}
	}
}

// buildSinks creates the enabled sinks in a fixed order: console, file,
// archive, MQTT, InfluxDB.
//
// Parameters:
//   - ctx: Context for preparing the archive statement
//   - cfg: Application configuration
//   - db: Open database, or nil when the archive is disabled
//   - mqttClient: Connected client, or nil when MQTT is disabled
//   - influxClient: Connected client, or nil when InfluxDB is disabled
//
// Returns:
//   - []logq.Sink: Sinks to register with the logger
//   - error: If a sink cannot be created
func buildSinks(ctx context.Context, cfg *config.Config, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) ([]logq.Sink, error) {
	var out []logq.Sink

	if c := cfg.Sinks.Console; c.Enabled {
		w := os.Stderr
		if c.Stream == "stdout" {
			w = os.Stdout
		}
		out = append(out, sinks.NewConsole(w, c.Colour))
	}

	if f := cfg.Sinks.File; f.Enabled {
		file, err := sinks.NewFile(sinks.FileConfig{
			Path:       f.Path,
			MaxSizeMB:  f.MaxSize,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAge,
			Compress:   f.Compress,
		})
		if err != nil {
			return nil, fmt.Errorf("creating file sink: %w", err)
		}
		out = append(out, file)
	}

	if cfg.Sinks.Archive.Enabled {
		if db == nil {
			return nil, fmt.Errorf("archive sink: %w", errNoDatabase)
		}
		archive, err := sinks.NewSQLite(ctx, db.DB, "")
		if err != nil {
			return nil, fmt.Errorf("creating archive sink: %w", err)
		}
		out = append(out, archive)
	}

	if m := cfg.Sinks.MQTT; m.Enabled && mqttClient != nil {
		out = append(out, sinks.NewMQTT(mqttClient, m.TopicPrefix, byte(m.QoS))) //nolint:gosec // QoS validated 0-2
	}

	if cfg.Sinks.InfluxDB.Enabled && influxClient != nil {
		out = append(out, sinks.NewInflux(influxClient))
	}

	return out, nil
}

// forwardLines logs every line read from in until EOF. A line of the form
// "LEVEL: text" whose prefix names a level is logged at that level;
// anything else is logged at LOG.
func forwardLines(in io.Reader, logger *logq.Logger, module string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		level, text := splitLevel(scanner.Text())
		logger.Log(level, module, text, nil)
	}
	return scanner.Err()
}

// splitLevel separates an optional "LEVEL:" prefix from line. Numeric
// prefixes are not levels here, so "1: item" stays intact.
func splitLevel(line string) (logq.Level, string) {
	prefix, text, ok := strings.Cut(line, ":")
	if !ok || prefix == "" || !unicode.IsLetter(rune(prefix[0])) {
		return logq.LevelLog, line
	}
	level, err := logq.ParseLevel(prefix)
	if err != nil {
		return logq.LevelLog, line
	}
	return level, strings.TrimPrefix(text, " ")
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database to check (may be nil if not needed)
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
