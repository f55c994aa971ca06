package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// AttachmentRepository defines the interface for attachment persistence.
type AttachmentRepository interface {
	// GetByID retrieves an attachment by its unique identifier.
	// Returns ErrAttachmentNotFound if the attachment does not exist.
	GetByID(ctx context.Context, id string) (*Attachment, error)

	// List retrieves all attachments.
	List(ctx context.Context) ([]Attachment, error)

	// ListByDevice retrieves all attachments wired to a specific device.
	ListByDevice(ctx context.Context, deviceID string) ([]Attachment, error)

	// Create inserts a new attachment.
	// Returns ErrAttachmentExists if the ID or (device, pin) pair is taken,
	// ErrDeviceNotFound if the device does not exist.
	Create(ctx context.Context, attachment *Attachment) error

	// Update modifies an existing attachment.
	// Returns ErrAttachmentNotFound if the attachment does not exist.
	Update(ctx context.Context, attachment *Attachment) error

	// Delete removes an attachment by ID.
	// Returns ErrAttachmentNotFound if the attachment does not exist.
	Delete(ctx context.Context, id string) error

	// UpdateCharacteristics replaces only the characteristics of an
	// attachment. Used by the hub to mirror incoming sensor values.
	UpdateCharacteristics(ctx context.Context, id string, ch Characteristics) error
}

// SQLiteAttachmentRepository implements AttachmentRepository using SQLite.
type SQLiteAttachmentRepository struct {
	db *sql.DB
}

// NewSQLiteAttachmentRepository creates a new SQLite-backed attachment repository.
func NewSQLiteAttachmentRepository(db *sql.DB) *SQLiteAttachmentRepository {
	return &SQLiteAttachmentRepository{db: db}
}

const attachmentColumns = `id, device_id, name, type, pin, characteristics, created_at, updated_at`

// GetByID retrieves an attachment by its unique identifier.
func (r *SQLiteAttachmentRepository) GetByID(ctx context.Context, id string) (*Attachment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id)

	a, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("querying attachment by id: %w", err)
	}
	return a, nil
}

// List retrieves all attachments.
func (r *SQLiteAttachmentRepository) List(ctx context.Context) ([]Attachment, error) {
	return r.queryAttachments(ctx,
		`SELECT `+attachmentColumns+` FROM attachments ORDER BY device_id, pin`)
}

// ListByDevice retrieves all attachments wired to a specific device.
func (r *SQLiteAttachmentRepository) ListByDevice(ctx context.Context, deviceID string) ([]Attachment, error) {
	return r.queryAttachments(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE device_id = ? ORDER BY pin`, deviceID)
}

// Create inserts a new attachment.
func (r *SQLiteAttachmentRepository) Create(ctx context.Context, attachment *Attachment) error {
	chJSON, err := json.Marshal(attachment.Characteristics)
	if err != nil {
		return fmt.Errorf("marshalling characteristics: %w", err)
	}

	now := time.Now().UTC()
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = now
	}
	attachment.UpdatedAt = now

	query := `
		INSERT INTO attachments (id, device_id, name, type, pin, characteristics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		attachment.ID,
		attachment.DeviceID,
		attachment.Name,
		string(attachment.Type),
		string(attachment.Pin),
		string(chJSON),
		attachment.CreatedAt.Format(time.RFC3339),
		attachment.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAttachmentExists
		}
		if isForeignKeyError(err) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("inserting attachment: %w", err)
	}

	return nil
}

// Update modifies an existing attachment.
func (r *SQLiteAttachmentRepository) Update(ctx context.Context, attachment *Attachment) error {
	chJSON, err := json.Marshal(attachment.Characteristics)
	if err != nil {
		return fmt.Errorf("marshalling characteristics: %w", err)
	}

	attachment.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE attachments SET
			device_id = ?, name = ?, type = ?, pin = ?, characteristics = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		attachment.DeviceID,
		attachment.Name,
		string(attachment.Type),
		string(attachment.Pin),
		string(chJSON),
		attachment.UpdatedAt.Format(time.RFC3339),
		attachment.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAttachmentExists
		}
		if isForeignKeyError(err) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("updating attachment: %w", err)
	}

	return requireRowsAffected(result, ErrAttachmentNotFound)
}

// Delete removes an attachment by ID.
func (r *SQLiteAttachmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting attachment: %w", err)
	}
	return requireRowsAffected(result, ErrAttachmentNotFound)
}

// UpdateCharacteristics replaces only the characteristics of an attachment.
func (r *SQLiteAttachmentRepository) UpdateCharacteristics(ctx context.Context, id string, ch Characteristics) error {
	chJSON, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshalling characteristics: %w", err)
	}

	query := `UPDATE attachments SET characteristics = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(chJSON),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating attachment characteristics: %w", err)
	}

	return requireRowsAffected(result, ErrAttachmentNotFound)
}

// queryAttachments executes a query and returns a slice of attachments.
func (r *SQLiteAttachmentRepository) queryAttachments(ctx context.Context, query string, args ...any) ([]Attachment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		attachments = append(attachments, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attachments: %w", err)
	}

	return attachments, nil
}

// scanAttachment scans a row or rows result into an Attachment.
func scanAttachment(scanner rowScanner) (*Attachment, error) {
	var a Attachment
	var attachmentType, pin, chJSON string
	var createdAt, updatedAt string

	err := scanner.Scan(
		&a.ID,
		&a.DeviceID,
		&a.Name,
		&attachmentType,
		&pin,
		&chJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = AttachmentType(attachmentType)
	a.Pin = Pin(pin)

	if err := json.Unmarshal([]byte(chJSON), &a.Characteristics); err != nil {
		return nil, fmt.Errorf("unmarshalling characteristics: %w", err)
	}

	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &a, nil
}
