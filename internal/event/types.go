package event

import "time"

// Type identifies the kind of sensor stream an event row aggregates.
type Type string

// Event type constants.
const (
	// TypeTemperatureHumidity buckets temperature/humidity samples.
	TypeTemperatureHumidity Type = "temperature-humidity"

	// TypeDoor buckets door open/close transitions.
	TypeDoor Type = "door"
)

// AllTypes returns all valid event type values.
func AllTypes() []Type {
	return []Type{TypeTemperatureHumidity, TypeDoor}
}

// DayFormat is the bucket key layout. Days are calendar dates in the hub's
// local timezone, so a bucket rolls over at local midnight.
const DayFormat = "2006-01-02"

// DayOf returns the bucket key for a point in time.
func DayOf(t time.Time) string {
	return t.Format(DayFormat)
}

// Sample is one reading inside a day bucket. Which fields are set depends
// on the event type: temperature-humidity samples carry Temperature and
// optionally Humidity, door samples carry IsOpen.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`

	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	IsOpen      *bool    `json:"is_open,omitempty"`
}

// Event is one day bucket of samples for a single attachment and stream.
// Samples are append-only and kept in arrival order.
type Event struct {
	ID           int64    `json:"id"`
	AttachmentID string   `json:"attachment_id"`
	Type         Type     `json:"type"`
	Day          string   `json:"day"`
	Samples      []Sample `json:"samples"`
}
