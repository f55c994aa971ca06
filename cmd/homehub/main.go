// HomeHub Core - IoT device communication and state synchronisation hub.
//
// This is the main entry point for the HomeHub Core application. It wires
// together the SQLite-backed repositories, the MQTT hub, the optional
// InfluxDB telemetry mirror, and the REST API, then waits for a shutdown
// signal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/homehub/hub-core/migrations"

	"github.com/homehub/hub-core/internal/api"
	"github.com/homehub/hub-core/internal/device"
	"github.com/homehub/hub-core/internal/event"
	"github.com/homehub/hub-core/internal/hub"
	"github.com/homehub/hub-core/internal/infrastructure/config"
	"github.com/homehub/hub-core/internal/infrastructure/database"
	"github.com/homehub/hub-core/internal/infrastructure/influxdb"
	"github.com/homehub/hub-core/internal/infrastructure/logging"
	"github.com/homehub/hub-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so every exit
// path flows through one error return.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting HomeHub Core",
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

	// Open database and run migrations
	db, err := database.Open(ctx, database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Repositories
	roomRepo := device.NewSQLiteRoomRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	attachmentRepo := device.NewSQLiteAttachmentRepository(db.DB)
	eventRepo := event.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB mirror disabled")
		influxClient = nil
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
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
	}

	// Create and start the hub
	deviceHub, err := hub.New(hub.Options{
		MQTT:        &hubMQTTAdapter{client: mqttClient},
		Devices:     deviceRepo,
		Attachments: attachmentRepo,
		Events:      eventRepo,
		Telemetry:   influxClient,
		QoS:         byte(cfg.MQTT.QoS),
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("creating hub: %w", err)
	}

	if err := deviceHub.Start(ctx); err != nil {
		return fmt.Errorf("starting hub: %w", err)
	}

	// Rerun the connect reconciliation cycle after every broker reconnect,
	// so the fleet re-reports online state and receives fresh configuration.
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		deviceHub.HandleConnect(ctx)
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("hub started")

	// Start the REST API
	apiServer, err := api.New(api.Deps{
		Config:          cfg.API,
		DiscoveryWindow: cfg.GetDiscoveryWindow(),
		Logger:          log,
		Rooms:           roomRepo,
		Devices:         deviceRepo,
		Attachments:     attachmentRepo,
		Events:          eventRepo,
		Hub:             deviceHub,
		DB:              db,
		MQTT:            mqttClient,
		Version:         version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HOMEHUB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMEHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// hubMQTTAdapter adapts the infrastructure MQTT client to the hub's
// MQTTClient interface. The only difference is the Subscribe handler type:
// the infrastructure client takes a named mqtt.MessageHandler, the hub
// declares a plain func signature.
type hubMQTTAdapter struct {
	client *mqtt.Client
}

// Publish implements hub.MQTTClient.
func (a *hubMQTTAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements hub.MQTTClient.
func (a *hubMQTTAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}
