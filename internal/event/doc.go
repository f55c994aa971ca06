// Package event stores sensor history as day buckets.
//
// One row holds all samples for a given (attachment, stream, day) triple,
// with the samples kept as an append-only JSON array. High-frequency sensor
// traffic therefore grows existing rows instead of inserting one row per
// reading, which keeps the table small and makes "everything for attachment
// X on day Y" a single-row read.
//
// Appends are a single INSERT ... ON CONFLICT DO UPDATE statement using
// SQLite's json_insert, so concurrent writers and broker message replays
// cannot lose samples or split a bucket into duplicate rows.
package event
