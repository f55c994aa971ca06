package hub

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/homehub/hub-core/internal/device"
	"github.com/homehub/hub-core/internal/event"
)

// fakeMQTT records publishes and hands delivered messages to the
// subscribed handler, standing in for a live broker.
type fakeMQTT struct {
	mu         sync.Mutex
	published  []publishedMessage
	handler    func(topic string, payload []byte) error
	subscribed []string
	publishErr error
}

type publishedMessage struct {
	Topic   string
	Payload []byte
}

func (f *fakeMQTT) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMessage{Topic: topic, Payload: payload})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler func(topic string, payload []byte) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, topic)
	f.handler = handler
	return nil
}

// deliver simulates an inbound broker message.
func (f *fakeMQTT) deliver(t *testing.T, topic string, payload string) {
	t.Helper()
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler == nil {
		t.Fatal("no handler subscribed")
	}
	if err := handler(topic, []byte(payload)); err != nil {
		t.Fatalf("dispatch(%s) error = %v", topic, err)
	}
}

// deliverAsync is deliver without test plumbing, for goroutine use.
func (f *fakeMQTT) deliverAsync(topic string, payload string) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		_ = handler(topic, []byte(payload))
	}
}

// publishedTo returns all publishes to one topic.
func (f *fakeMQTT) publishedTo(topic string) []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedMessage
	for _, m := range f.published {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// reset discards recorded publishes.
func (f *fakeMQTT) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = nil
}

// fakeClock is an injectable, settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
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

// testHub bundles a started hub with its collaborators.
type testHub struct {
	hub         *Hub
	mqtt        *fakeMQTT
	clock       *fakeClock
	devices     device.Repository
	attachments device.AttachmentRepository
	events      event.Repository
}

// setupHub creates a hub over an in-memory database and starts it.
// The publishes recorded during the initial connect cycle are discarded
// so tests see only their own traffic.
func setupHub(t *testing.T) *testHub {
	t.Helper()

	db := setupTestDB(t)
	fake := &fakeMQTT{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}

	devices := device.NewSQLiteRepository(db)
	attachments := device.NewSQLiteAttachmentRepository(db)
	events := event.NewSQLiteRepository(db)

	h, err := New(Options{
		MQTT:        fake,
		Devices:     devices,
		Attachments: attachments,
		Events:      events,
		QoS:         1,
		Now:         clock.Now,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	fake.reset()

	return &testHub{
		hub:         h,
		mqtt:        fake,
		clock:       clock,
		devices:     devices,
		attachments: attachments,
		events:      events,
	}
}

// addDevice registers a device directly in the repository.
func (th *testHub) addDevice(t *testing.T, id, mac string, online bool) {
	t.Helper()
	dev := &device.Device{ID: id, Name: "Controller " + id, MACAddress: mac, IsOnline: online}
	if err := th.devices.Create(context.Background(), dev); err != nil {
		t.Fatalf("creating device %s: %v", id, err)
	}
}

// addAttachment wires an attachment with default characteristics.
func (th *testHub) addAttachment(t *testing.T, id, deviceID string, attType device.AttachmentType, pin device.Pin) {
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
	if err := th.attachments.Create(context.Background(), att); err != nil {
		t.Fatalf("creating attachment %s: %v", id, err)
	}
}
