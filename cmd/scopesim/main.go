// Scope Sim Core - Microscope Device Simulation Harness
//
// This is the main entry point for the simulation harness. It assembles a
// simulated microscope rig (hub, cameras, shutters, stages, autofocus) whose
// every emitted image is a transcript of the setting traffic that produced
// it, and serves the rig over HTTP, WebSocket, and MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
	"github.com/nerrad567/scope-sim-core/internal/api"
	"github.com/nerrad567/scope-sim-core/internal/archive"
	"github.com/nerrad567/scope-sim-core/internal/device"
	"github.com/nerrad567/scope-sim-core/internal/events"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/config"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/database"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/logging"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/mqtt"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Scope Sim Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration; fall back to built-in defaults when no file exists
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
		log.Warn("config file not found, using defaults", "path", configPath)
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

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

	// Prepare the frame archive
	recorder := archive.New(db.DB)
	recorder.SetLogger(log)
	if schemaErr := recorder.EnsureSchema(ctx); schemaErr != nil {
		return fmt.Errorf("preparing archive schema: %w", schemaErr)
	}
	log.Info("frame archive ready")

	// Build the simulated rig
	hub := device.NewHub(cfg.Devices.HubName)
	cam := cfg.Devices.Camera
	if geoErr := hub.SetGeometry(cam.ImageWidth, cam.ImageHeight, cam.ImageBytesPerPixel); geoErr != nil {
		return fmt.Errorf("configuring image geometry: %w", geoErr)
	}

	registry := device.NewRegistry(hub)
	registry.SetLogger(log)
	registry.SetSinkFactory(func(string) acquisition.FrameSink {
		return acquisition.NewMemorySink(cam.SinkCapacity)
	})

	roster := cfg.Devices.Roster
	if len(roster) == 0 {
		roster = append([]string{hub.Name()}, hub.InstalledDevices()...)
	}
	for _, name := range roster {
		if _, constructErr := registry.Construct(name); constructErr != nil {
			return fmt.Errorf("constructing %s: %w", name, constructErr)
		}
	}
	if initErr := registry.InitializeAll(); initErr != nil {
		return fmt.Errorf("initializing devices: %w", initErr)
	}
	log.Info("rig assembled",
		"hub", hub.Name(),
		"devices", registry.Count(),
		"geometry", fmt.Sprintf("%dx%dx%d", cam.ImageWidth, cam.ImageHeight, cam.ImageBytesPerPixel),
	)

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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub is shared between the API server and the event fan-out
	wsHub := api.NewHub(cfg.WebSocket, log)
	go wsHub.Run(ctx)

	// Fan acquisition events out to the archive, WebSocket clients, MQTT,
	// and InfluxDB
	notifiers := []acquisition.Notifier{
		archive.NewObserver(recorder),
		api.NewHubNotifier(wsHub),
	}
	if mqttClient != nil {
		publisher := events.NewPublisher(mqttClient, byte(cfg.MQTT.QoS))
		publisher.SetLogger(log)
		notifiers = append(notifiers, publisher)

		// Inbound: route broker-published device commands into the registry
		consumer := events.NewCommandConsumer(mqttClient, registry, byte(cfg.MQTT.QoS))
		consumer.SetLogger(log)
		if err := consumer.Start(); err != nil {
			return fmt.Errorf("starting command consumer: %w", err)
		}
	}
	if influxClient != nil {
		telemetry := events.NewTelemetry(influxClient)
		telemetry.SetLogger(log)
		notifiers = append(notifiers, telemetry)
	}
	for _, camera := range registry.Cameras() {
		camera.Engine().SetLogger(log)
		camera.Engine().SetNotifier(acquisition.MultiNotifier(notifiers))
	}
	log.Info("event fan-out wired", "observers", len(notifiers), "cameras", len(registry.Cameras()))

	// Start API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Registry:    registry,
		Archive:     recorder,
		ExternalHub: wsHub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Stop any running acquisitions before the defer chain tears down the
	// infrastructure they publish through.
	if shutdownErr := registry.ShutdownAll(); shutdownErr != nil {
		log.Error("device shutdown error", "error", shutdownErr)
	}

	log.Info("Scope Sim Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SCOPESIM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SCOPESIM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
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
