// Lovi Core - WiFi Presence Sensor Hub
//
// This is the main entry point for the Lovi Core daemon. It polls a
// fleet of Lovi WiFi presence and radar sensors over their local HTTP
// APIs and fans their state out to MQTT, InfluxDB, SQLite history, and
// a REST API for dashboards and Home Assistant.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lovi-home/lovi-core/internal/api"
	"github.com/lovi-home/lovi-core/internal/client"
	"github.com/lovi-home/lovi-core/internal/coordinator"
	"github.com/lovi-home/lovi-core/internal/device"
	"github.com/lovi-home/lovi-core/internal/infrastructure/config"
	"github.com/lovi-home/lovi-core/internal/infrastructure/database"
	"github.com/lovi-home/lovi-core/internal/infrastructure/influxdb"
	"github.com/lovi-home/lovi-core/internal/infrastructure/logging"
	"github.com/lovi-home/lovi-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// historyPruneInterval is how often expired history rows are removed.
const historyPruneInterval = time.Hour

// commandTimeout bounds a single MQTT-delivered settings command.
const commandTimeout = 10 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lovi Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Bootstrap schema
	if bootErr := db.Bootstrap(ctx); bootErr != nil {
		return fmt.Errorf("bootstrapping database: %w", bootErr)
	}

	// State history store
	history := device.NewSQLiteStateHistoryRepository(db.DB)

	// Device registry with the built-in models
	registry := device.NewRegistry()
	registry.RegisterDefaults()
	registry.SetLogger(log)
	log.Info("device registry initialised", "types", registry.SupportedTypes())

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	var publisher *mqtt.Publisher
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
		publisher = mqtt.NewPublisher(mqttClient)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
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
	} else {
		log.Info("InfluxDB disabled")
	}

	// Prometheus registry shared by the coordinators and the API
	promReg := prometheus.NewRegistry()
	metrics := coordinator.NewMetrics(promReg)

	// One coordinator per configured device
	coordinators, err := buildCoordinators(cfg, registry, history, publisher, influxClient, metrics, log)
	if err != nil {
		return err
	}
	if len(coordinators) == 0 {
		log.Warn("no enabled devices configured")
	}
	for id, c := range coordinators {
		c.Start(ctx)
		log.Info("coordinator started", "device_id", id)
	}
	defer func() {
		for id, c := range coordinators {
			log.Info("stopping coordinator", "device_id", id)
			c.Stop()
		}
	}()

	// Inbound command channel (optional, rides on MQTT)
	if mqttClient != nil {
		if err := subscribeCommands(ctx, mqttClient, coordinators, log); err != nil {
			return fmt.Errorf("subscribing to command topics: %w", err)
		}
		log.Info("command subscription active", "topic", mqtt.Topics{}.AllDeviceCommands())
	}

	// History retention
	if cfg.Database.HistoryRetentionDays > 0 {
		go pruneHistoryLoop(ctx, history, cfg.Database.HistoryRetentionDays, log)
	}

	// REST API server
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Logger:       log,
		Coordinators: coordinators,
		History:      history,
		DB:           db,
		MQTT:         mqttClient,
		Metrics:      promReg,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Coordinators (publish offline availability)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("Lovi Core stopped")
	return nil
}

// buildCoordinators creates a coordinator and HTTP client per enabled device.
func buildCoordinators(
	cfg *config.Config,
	registry *device.Registry,
	history device.StateHistoryRepository,
	publisher *mqtt.Publisher,
	influxClient *influxdb.Client,
	metrics *coordinator.Metrics,
	log *logging.Logger,
) (map[string]*coordinator.Coordinator, error) {
	coordinators := make(map[string]*coordinator.Coordinator, len(cfg.Devices))

	for _, d := range cfg.Devices {
		if !d.IsEnabled() {
			log.Info("device disabled, skipping", "device_id", d.ID)
			continue
		}

		cli, err := client.New(client.Config{
			Host:          d.Host,
			Port:          d.Port,
			Credentials:   client.Credentials{APIKey: d.APIKey},
			Timeout:       time.Duration(cfg.Poll.Timeout) * time.Second,
			MaxRetries:    cfg.Poll.MaxRetries,
			BackoffFactor: cfg.Poll.BackoffFactor,
		})
		if err != nil {
			return nil, fmt.Errorf("creating client for %s: %w", d.ID, err)
		}
		cli.SetLogger(log)

		ccfg := coordinator.Config{
			API:        cli,
			Registry:   registry,
			DeviceID:   d.ID,
			DeviceType: d.Type,
			Interval:   cfg.PollInterval(d),
			History:    history,
			Metrics:    metrics,
		}
		// Assign optional sinks only when present; a nil concrete type
		// stored in an interface field would not compare equal to nil.
		if publisher != nil {
			ccfg.Publisher = publisher
		}
		if influxClient != nil {
			ccfg.TSDB = influxClient
		}

		c, err := coordinator.New(ccfg)
		if err != nil {
			return nil, fmt.Errorf("creating coordinator for %s: %w", d.ID, err)
		}
		c.SetLogger(log)
		coordinators[d.ID] = c
	}

	return coordinators, nil
}

// subscribeCommands routes lovi/command/{device_id} messages to the
// matching coordinator. Payloads are JSON settings bundles, e.g.
// {"sensitivity": 80, "led": false}; the client validates them before
// anything reaches the device.
func subscribeCommands(
	ctx context.Context,
	mqttClient *mqtt.Client,
	coordinators map[string]*coordinator.Coordinator,
	log *logging.Logger,
) error {
	return mqttClient.Subscribe(mqtt.Topics{}.AllDeviceCommands(), 1, func(topic string, payload []byte) error {
		id, ok := mqtt.CommandDeviceID(topic)
		if !ok {
			return fmt.Errorf("malformed command topic %q", topic)
		}
		c, ok := coordinators[id]
		if !ok {
			return fmt.Errorf("command for unknown device %q", id)
		}

		var settings map[string]any
		if err := json.Unmarshal(payload, &settings); err != nil {
			return fmt.Errorf("decoding command for %s: %w", id, err)
		}
		if len(settings) == 0 {
			return nil
		}

		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		if err := c.SetSettings(cmdCtx, settings); err != nil {
			return fmt.Errorf("applying command for %s: %w", id, err)
		}

		log.Info("command applied", "device_id", id)
		return nil
	})
}

// pruneHistoryLoop periodically removes history rows older than the
// configured retention window.
func pruneHistoryLoop(ctx context.Context, history *device.SQLiteStateHistoryRepository, retentionDays int, log *logging.Logger) {
	retention := time.Duration(retentionDays) * 24 * time.Hour

	ticker := time.NewTicker(historyPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := history.PruneHistory(ctx, retention)
			if err != nil {
				log.Error("history prune failed", "error", err)
				continue
			}
			if pruned > 0 {
				log.Info("history pruned", "rows", pruned, "retention_days", retentionDays)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses LOVI_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LOVI_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
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
