package device

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

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

// testDevice creates a device for testing.
func testDevice(id, name, mac string) *Device {
	return &Device{
		ID:         id,
		Name:       name,
		MACAddress: mac,
	}
}

// testAttachment creates a valid attachment of the given type for testing.
func testAttachment(t *testing.T, id, deviceID string, attType AttachmentType, pin Pin) *Attachment {
	t.Helper()

	ch, err := DefaultCharacteristics(attType)
	if err != nil {
		t.Fatalf("DefaultCharacteristics(%q) error = %v", attType, err)
	}

	return &Attachment{
		ID:              id,
		DeviceID:        deviceID,
		Name:            string(attType) + " " + string(pin),
		Type:            attType,
		Pin:             pin,
		Characteristics: ch,
	}
}
