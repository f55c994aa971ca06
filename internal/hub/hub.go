package hub

import (
	"context"
	"sync"
	"time"

	"github.com/homehub/hub-core/internal/device"
	"github.com/homehub/hub-core/internal/event"
	"github.com/homehub/hub-core/internal/infrastructure/influxdb"
	"github.com/homehub/hub-core/internal/infrastructure/logging"
	"github.com/homehub/hub-core/internal/infrastructure/mqtt"
)

// MQTTClient is the narrow broker surface the hub depends on.
// *mqtt.Client satisfies it through a small adapter in cmd/homehub.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// Hub coordinates all device communication over MQTT.
//
// It owns the single global/# subscription, dispatches inbound messages to
// ephemeral listeners and built-in handlers, reconciles device online state,
// ingests sensor samples into day buckets, and fans out per-device
// configuration.
//
// Construct one Hub per process with New; there is no package-level state.
type Hub struct {
	mqtt        MQTTClient
	devices     device.Repository
	attachments device.AttachmentRepository
	events      event.Repository

	// telemetry is the optional InfluxDB mirror; nil disables it and every
	// write helper on it is a nil-safe no-op.
	telemetry *influxdb.Client

	topics mqtt.Topics
	qos    byte
	logger *logging.Logger

	// now is injectable so day-bucket tests can pin the clock.
	now func() time.Time

	// ctx carries the Start context's values to repository calls made
	// from the dispatch path. It is detached from cancellation so a
	// shutdown never aborts a store write mid-message.
	ctx context.Context

	listenerMu sync.Mutex
	listeners  map[string][]listenerEntry
	nextID     uint64
}

// Options configures a Hub.
type Options struct {
	MQTT        MQTTClient
	Devices     device.Repository
	Attachments device.AttachmentRepository
	Events      event.Repository

	// Telemetry is optional; nil runs without the InfluxDB mirror.
	Telemetry *influxdb.Client

	// QoS for every publish and the global subscription.
	QoS byte

	Logger *logging.Logger

	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// New creates a Hub. MQTT client and repositories are required.
func New(opts Options) (*Hub, error) {
	if opts.MQTT == nil {
		return nil, ErrNoMQTTClient
	}
	if opts.Devices == nil || opts.Attachments == nil || opts.Events == nil {
		return nil, ErrNoRepository
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Hub{
		mqtt:        opts.MQTT,
		devices:     opts.Devices,
		attachments: opts.Attachments,
		events:      opts.Events,
		telemetry:   opts.Telemetry,
		qos:         opts.QoS,
		logger:      logger.With("component", "hub"),
		now:         now,
		ctx:         context.Background(),
		listeners:   make(map[string][]listenerEntry),
	}, nil
}

// Start subscribes to all controller traffic and runs the initial
// connection reconciliation.
//
// Wire HandleConnect to the MQTT client's on-connect callback so the same
// reconciliation reruns after every broker reconnect.
func (h *Hub) Start(ctx context.Context) error {
	h.ctx = context.WithoutCancel(ctx)

	if err := h.mqtt.Subscribe(h.topics.AllGlobal(), h.qos, h.dispatch); err != nil {
		return err
	}

	h.HandleConnect(ctx)
	return nil
}

// HandleConnect re-establishes consistent fleet state. It runs on initial
// start and on every broker reconnect, and every step is idempotent:
//
//  1. Announce on global/reportOnlineState (zero payload) so controllers
//     re-report their online state.
//  2. Mark all devices offline; reports arriving after the announce flip
//     them back.
//  3. Fan out configuration to all devices.
//
// Failures are logged and skipped; the next reconnect retries everything.
func (h *Hub) HandleConnect(ctx context.Context) {
	h.logger.Info("running connect reconciliation")

	h.Send(h.topics.ReportOnlineState(), nil)

	if err := h.devices.MarkAllOffline(ctx); err != nil {
		h.logger.Error("marking devices offline", "error", err)
	}

	if err := h.PublishConfig(ctx, ""); err != nil {
		h.logger.Error("configuration fan-out", "error", err)
	}
}

// Send publishes a message best-effort. Failures (including publishing
// while disconnected) are logged and abandoned; delivery is reconciled on
// the next connect cycle instead of retried here.
func (h *Hub) Send(topic string, payload []byte) {
	if err := h.mqtt.Publish(topic, payload, h.qos, false); err != nil {
		h.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}
