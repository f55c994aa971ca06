// Package database manages the HomeHub SQLite database.
//
// It provides connection lifecycle (WAL mode, busy timeout, foreign keys),
// health checks, and schema migrations embedded into the binary. SQLite was
// chosen for the same reasons it suits a single-box hub: one writer, zero
// operational dependencies, and atomic single-statement upserts, which the
// event store relies on for its day-bucket appends.
package database
