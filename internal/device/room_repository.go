package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RoomRepository defines the interface for room persistence operations.
type RoomRepository interface {
	// GetByID retrieves a room by its unique identifier.
	// Returns ErrRoomNotFound if the room does not exist.
	GetByID(ctx context.Context, id string) (*Room, error)

	// List retrieves all rooms.
	List(ctx context.Context) ([]Room, error)

	// Create inserts a new room.
	// Returns ErrRoomExists if a room with the same ID already exists.
	Create(ctx context.Context, room *Room) error

	// Update modifies an existing room.
	// Returns ErrRoomNotFound if the room does not exist.
	Update(ctx context.Context, room *Room) error

	// Delete removes a room by ID. Devices in the room are kept and
	// detached (room_id set to NULL).
	Delete(ctx context.Context, id string) error
}

// SQLiteRoomRepository implements RoomRepository using SQLite.
type SQLiteRoomRepository struct {
	db *sql.DB
}

// NewSQLiteRoomRepository creates a new SQLite-backed room repository.
func NewSQLiteRoomRepository(db *sql.DB) *SQLiteRoomRepository {
	return &SQLiteRoomRepository{db: db}
}

// GetByID retrieves a room by its unique identifier.
func (r *SQLiteRoomRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM rooms WHERE id = ?`, id)

	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("querying room by id: %w", err)
	}
	return room, nil
}

// List retrieves all rooms.
func (r *SQLiteRoomRepository) List(ctx context.Context) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, *room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}

	return rooms, nil
}

// Create inserts a new room.
func (r *SQLiteRoomRepository) Create(ctx context.Context, room *Room) error {
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	query := `INSERT INTO rooms (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.CreatedAt.Format(time.RFC3339),
		room.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRoomExists
		}
		return fmt.Errorf("inserting room: %w", err)
	}

	return nil
}

// Update modifies an existing room.
func (r *SQLiteRoomRepository) Update(ctx context.Context, room *Room) error {
	room.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, updated_at = ? WHERE id = ?`,
		room.Name,
		room.UpdatedAt.Format(time.RFC3339),
		room.ID,
	)
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}

	return requireRowsAffected(result, ErrRoomNotFound)
}

// Delete removes a room by ID.
func (r *SQLiteRoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}
	return requireRowsAffected(result, ErrRoomNotFound)
}

// scanRoom scans a row or rows result into a Room.
func scanRoom(scanner rowScanner) (*Room, error) {
	var room Room
	var createdAt, updatedAt string

	if err := scanner.Scan(&room.ID, &room.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if room.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &room, nil
}
