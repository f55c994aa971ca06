package api

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/homehub/hub-core/internal/device"
	"github.com/homehub/hub-core/internal/event"
	"github.com/homehub/hub-core/internal/hub"
	"github.com/homehub/hub-core/internal/infrastructure/config"
	"github.com/homehub/hub-core/internal/infrastructure/logging"
)

// fakeHub records hub boundary calls made by handlers.
type fakeHub struct {
	mu         sync.Mutex
	sent       []sentMessage
	configMACs []string
	discovered []hub.DiscoveredDevice
}

type sentMessage struct {
	Topic   string
	Payload []byte
}

func (f *fakeHub) Send(topic string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Topic: topic, Payload: payload})
}

func (f *fakeHub) PublishConfig(_ context.Context, mac string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configMACs = append(f.configMACs, mac)
	return nil
}

func (f *fakeHub) Discover(_ context.Context, _ time.Duration) ([]hub.DiscoveredDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discovered, nil
}

// lastConfigMAC returns the most recent fan-out target, or "" if none.
func (f *fakeHub) lastConfigMAC() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.configMACs) == 0 {
		return ""
	}
	return f.configMACs[len(f.configMACs)-1]
}

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE rooms (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE TABLE devices (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			mac_address TEXT NOT NULL UNIQUE,
			room_id     TEXT REFERENCES rooms(id) ON DELETE SET NULL,
			is_online   INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE TABLE attachments (
			id              TEXT PRIMARY KEY,
			device_id       TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			name            TEXT NOT NULL,
			type            TEXT NOT NULL,
			pin             TEXT NOT NULL,
			characteristics TEXT NOT NULL DEFAULT '{}',
			created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			UNIQUE (device_id, pin)
		) STRICT;
		CREATE TABLE events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			attachment_id TEXT NOT NULL REFERENCES attachments(id) ON DELETE CASCADE,
			type          TEXT NOT NULL,
			day           TEXT NOT NULL,
			samples       TEXT NOT NULL DEFAULT '[]',
			UNIQUE (attachment_id, type, day)
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testServer bundles a Server with its collaborators for handler tests.
type testServer struct {
	srv         *Server
	hub         *fakeHub
	rooms       device.RoomRepository
	devices     device.Repository
	attachments device.AttachmentRepository
	events      event.Repository
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	db := setupTestDB(t)
	fake := &fakeHub{}

	rooms := device.NewSQLiteRoomRepository(db)
	devices := device.NewSQLiteRepository(db)
	attachments := device.NewSQLiteAttachmentRepository(db)
	events := event.NewSQLiteRepository(db)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		DiscoveryWindow: 50 * time.Millisecond,
		Logger:          log,
		Rooms:           rooms,
		Devices:         devices,
		Attachments:     attachments,
		Events:          events,
		Hub:             fake,
		Version:         "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return &testServer{
		srv:         srv,
		hub:         fake,
		rooms:       rooms,
		devices:     devices,
		attachments: attachments,
		events:      events,
	}
}

// addDevice registers a device directly in the repository.
func (ts *testServer) addDevice(t *testing.T, id, mac string) {
	t.Helper()
	dev := &device.Device{ID: id, Name: "Controller " + id, MACAddress: mac, IsOnline: true}
	if err := ts.devices.Create(context.Background(), dev); err != nil {
		t.Fatalf("creating device %s: %v", id, err)
	}
}

// addAttachment wires an attachment with default characteristics.
func (ts *testServer) addAttachment(t *testing.T, id, deviceID string, attType device.AttachmentType, pin device.Pin) {
	t.Helper()
	ch, err := device.DefaultCharacteristics(attType)
	if err != nil {
		t.Fatalf("DefaultCharacteristics(%q): %v", attType, err)
	}
	att := &device.Attachment{
		ID:              id,
		DeviceID:        deviceID,
		Name:            string(attType) + " " + string(pin),
		Type:            attType,
		Pin:             pin,
		Characteristics: ch,
	}
	if err := ts.attachments.Create(context.Background(), att); err != nil {
		t.Fatalf("creating attachment %s: %v", id, err)
	}
}
