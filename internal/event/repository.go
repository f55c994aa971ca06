package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for event persistence operations.
type Repository interface {
	// AppendSample appends one sample to the (attachment, type, day)
	// bucket, creating the bucket if it does not exist. The operation is a
	// single atomic statement, so concurrent appends and broker replays
	// never lose samples or create duplicate rows.
	AppendSample(ctx context.Context, attachmentID string, eventType Type, day string, sample Sample) error

	// GetByKey retrieves one bucket by its natural key.
	// Returns ErrNotFound if the bucket does not exist.
	GetByKey(ctx context.Context, attachmentID string, eventType Type, day string) (*Event, error)

	// ListByAttachment retrieves buckets for an attachment within the
	// inclusive [fromDay, toDay] range, oldest first. Pass empty strings
	// to leave either end unbounded; an empty eventType matches all types.
	ListByAttachment(ctx context.Context, attachmentID string, eventType Type, fromDay, toDay string) ([]Event, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// AppendSample appends one sample to a day bucket, creating it if needed.
func (r *SQLiteRepository) AppendSample(ctx context.Context, attachmentID string, eventType Type, day string, sample Sample) error {
	if err := validateType(eventType); err != nil {
		return err
	}
	if err := validateDay(day); err != nil {
		return err
	}

	sampleJSON, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshalling sample: %w", err)
	}

	// '$[#]' addresses one past the last array element, so json_insert
	// appends. The UNIQUE(attachment_id, type, day) index turns the insert
	// into an in-place append when the bucket already exists.
	query := `
		INSERT INTO events (attachment_id, type, day, samples)
		VALUES (?, ?, ?, json_array(json(?)))
		ON CONFLICT(attachment_id, type, day)
		DO UPDATE SET samples = json_insert(samples, '$[#]', json(?))`

	if _, err := r.db.ExecContext(ctx, query,
		attachmentID,
		string(eventType),
		day,
		string(sampleJSON),
		string(sampleJSON),
	); err != nil {
		return fmt.Errorf("appending sample: %w", err)
	}

	return nil
}

// GetByKey retrieves one bucket by its natural key.
func (r *SQLiteRepository) GetByKey(ctx context.Context, attachmentID string, eventType Type, day string) (*Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, attachment_id, type, day, samples
		 FROM events
		 WHERE attachment_id = ? AND type = ? AND day = ?`,
		attachmentID, string(eventType), day)

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying event bucket: %w", err)
	}
	return e, nil
}

// ListByAttachment retrieves buckets for an attachment, optionally
// filtered by event type and day range.
func (r *SQLiteRepository) ListByAttachment(ctx context.Context, attachmentID string, eventType Type, fromDay, toDay string) ([]Event, error) {
	query := `SELECT id, attachment_id, type, day, samples FROM events WHERE attachment_id = ?`
	args := []any{attachmentID}

	if eventType != "" {
		if err := validateType(eventType); err != nil {
			return nil, err
		}
		query += ` AND type = ?`
		args = append(args, string(eventType))
	}
	if fromDay != "" {
		if err := validateDay(fromDay); err != nil {
			return nil, err
		}
		query += ` AND day >= ?`
		args = append(args, fromDay)
	}
	if toDay != "" {
		if err := validateDay(toDay); err != nil {
			return nil, err
		}
		query += ` AND day <= ?`
		args = append(args, toDay)
	}
	query += ` ORDER BY day, type`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying event buckets: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event bucket: %w", err)
		}
		events = append(events, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event buckets: %w", err)
	}

	return events, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a row or rows result into an Event.
func scanEvent(scanner rowScanner) (*Event, error) {
	var e Event
	var eventType, samplesJSON string

	if err := scanner.Scan(&e.ID, &e.AttachmentID, &eventType, &e.Day, &samplesJSON); err != nil {
		return nil, err
	}

	e.Type = Type(eventType)
	if err := json.Unmarshal([]byte(samplesJSON), &e.Samples); err != nil {
		return nil, fmt.Errorf("unmarshalling samples: %w", err)
	}

	return &e, nil
}

// validateType checks an event type against the known set.
func validateType(t Type) error {
	for _, known := range AllTypes() {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidType, t)
}

// validateDay checks a day key is a calendar date in DayFormat.
func validateDay(day string) error {
	if _, err := time.Parse(DayFormat, day); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return nil
}
