package event

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the events table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Concurrent appends share this single in-memory connection.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			attachment_id TEXT NOT NULL,
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

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func tempSample(ts time.Time, temp float64) Sample {
	return Sample{Timestamp: ts, Temperature: floatPtr(temp)}
}

func TestAppendSample_CreatesAndAppends(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day := DayOf(base)

	// First sample creates the bucket.
	if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, day, tempSample(base, 20.0)); err != nil {
		t.Fatalf("AppendSample() error = %v", err)
	}

	// Subsequent samples on the same day append to the same row.
	for i := 1; i < 5; i++ {
		s := tempSample(base.Add(time.Duration(i)*time.Minute), 20.0+float64(i))
		if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, day, s); err != nil {
			t.Fatalf("AppendSample() #%d error = %v", i, err)
		}
	}

	got, err := repo.GetByKey(ctx, "att-001", TypeTemperatureHumidity, day)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if len(got.Samples) != 5 {
		t.Fatalf("bucket has %d samples, want 5", len(got.Samples))
	}

	// Arrival order is preserved.
	for i, s := range got.Samples {
		if s.Temperature == nil || *s.Temperature != 20.0+float64(i) {
			t.Errorf("sample %d temperature = %v, want %v", i, s.Temperature, 20.0+float64(i))
		}
	}

	// One row only.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("events table has %d rows, want 1", count)
	}
}

func TestAppendSample_NewDayNewBucket(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC)

	if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, DayOf(day1), tempSample(day1, 18.0)); err != nil {
		t.Fatalf("AppendSample() error = %v", err)
	}
	if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, DayOf(day2), tempSample(day2, 17.5)); err != nil {
		t.Fatalf("AppendSample() error = %v", err)
	}

	events, err := repo.ListByAttachment(ctx, "att-001", "", "", "")
	if err != nil {
		t.Fatalf("ListByAttachment() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListByAttachment() returned %d buckets, want 2", len(events))
	}
	if events[0].Day != "2026-03-01" || events[1].Day != "2026-03-02" {
		t.Errorf("bucket days = %s, %s; want 2026-03-01, 2026-03-02", events[0].Day, events[1].Day)
	}
}

func TestAppendSample_SeparateStreams(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day := DayOf(ts)

	if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, day, tempSample(ts, 21.0)); err != nil {
		t.Fatalf("AppendSample() error = %v", err)
	}
	door := Sample{Timestamp: ts, IsOpen: boolPtr(true)}
	if err := repo.AppendSample(ctx, "att-001", TypeDoor, day, door); err != nil {
		t.Fatalf("AppendSample() error = %v", err)
	}

	// Same attachment and day, different streams: two buckets.
	events, err := repo.ListByAttachment(ctx, "att-001", "", day, day)
	if err != nil {
		t.Fatalf("ListByAttachment() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListByAttachment() returned %d buckets, want 2", len(events))
	}

	got, err := repo.GetByKey(ctx, "att-001", TypeDoor, day)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if len(got.Samples) != 1 || got.Samples[0].IsOpen == nil || !*got.Samples[0].IsOpen {
		t.Errorf("door bucket samples = %+v, want one open sample", got.Samples)
	}
}

func TestAppendSample_ConcurrentAppends(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day := DayOf(base)

	const writers = 10
	const perWriter = 20

	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s := tempSample(base.Add(time.Duration(w*perWriter+i)*time.Second), 20.0)
				if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, day, s); err != nil {
					errCh <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent AppendSample() error = %v", err)
	}

	got, err := repo.GetByKey(ctx, "att-001", TypeTemperatureHumidity, day)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if len(got.Samples) != writers*perWriter {
		t.Errorf("bucket has %d samples, want %d", len(got.Samples), writers*perWriter)
	}
}

func TestAppendSample_Validation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	s := tempSample(time.Now(), 20.0)

	if err := repo.AppendSample(ctx, "att-001", Type("bogus"), "2026-03-01", s); !errors.Is(err, ErrInvalidType) {
		t.Errorf("AppendSample() error = %v, want ErrInvalidType", err)
	}
	if err := repo.AppendSample(ctx, "att-001", TypeDoor, "not-a-day", s); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("AppendSample() error = %v, want ErrInvalidDay", err)
	}
}

func TestGetByKey_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetByKey(context.Background(), "att-001", TypeDoor, "2026-03-01")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByKey() error = %v, want ErrNotFound", err)
	}
}

func TestListByAttachment_DayRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, day := range []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04"} {
		ts, _ := time.Parse(DayFormat, day)
		if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, day, tempSample(ts, 20.0)); err != nil {
			t.Fatalf("AppendSample(%s) error = %v", day, err)
		}
	}

	events, err := repo.ListByAttachment(ctx, "att-001", "", "2026-03-02", "2026-03-03")
	if err != nil {
		t.Fatalf("ListByAttachment() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListByAttachment() returned %d buckets, want 2", len(events))
	}
	if events[0].Day != "2026-03-02" || events[1].Day != "2026-03-03" {
		t.Errorf("bucket days = %s, %s; want 2026-03-02, 2026-03-03", events[0].Day, events[1].Day)
	}

	// Unknown attachment returns empty, not an error.
	none, err := repo.ListByAttachment(ctx, "no-such-attachment", "", "", "")
	if err != nil {
		t.Fatalf("ListByAttachment() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListByAttachment() returned %d buckets for unknown attachment, want 0", len(none))
	}
}

func TestListByAttachment_TypeFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day := DayOf(ts)

	if err := repo.AppendSample(ctx, "att-001", TypeTemperatureHumidity, day, tempSample(ts, 21.0)); err != nil {
		t.Fatalf("AppendSample() error = %v", err)
	}
	if err := repo.AppendSample(ctx, "att-001", TypeDoor, day, Sample{Timestamp: ts, IsOpen: boolPtr(true)}); err != nil {
		t.Fatalf("AppendSample() error = %v", err)
	}

	doors, err := repo.ListByAttachment(ctx, "att-001", TypeDoor, "", "")
	if err != nil {
		t.Fatalf("ListByAttachment() error = %v", err)
	}
	if len(doors) != 1 || doors[0].Type != TypeDoor {
		t.Fatalf("ListByAttachment(door) returned %+v, want one door bucket", doors)
	}

	if _, err := repo.ListByAttachment(ctx, "att-001", Type("bogus"), "", ""); !errors.Is(err, ErrInvalidType) {
		t.Errorf("ListByAttachment(bogus) error = %v, want ErrInvalidType", err)
	}
}

func TestDayOf(t *testing.T) {
	ts := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	if got := DayOf(ts); got != "2026-03-01" {
		t.Errorf("DayOf() = %q, want 2026-03-01", got)
	}
}
