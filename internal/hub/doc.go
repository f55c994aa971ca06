// Package hub is the heart of HomeHub Core: it owns all MQTT communication
// with the controller fleet and keeps the database consistent with what the
// fleet reports.
//
// One Hub per process. It holds the single global/# subscription and runs
// four concerns off it:
//
//   - Dispatch: inbound messages are JSON-validated once, offered to
//     ephemeral listeners, then routed to at most one built-in handler by
//     exact topic.
//   - Reconciliation: controllers report online state on
//     global/deviceState; the hub applies it and pushes configuration to
//     controllers that just came online. On every broker (re)connect the
//     whole fleet is presumed offline until it re-reports.
//   - Ingestion: sensor samples on global/temperature and global/door are
//     appended to day buckets, mirrored onto attachment current values,
//     and optionally mirrored to InfluxDB.
//   - Fan-out: per-device pin configuration goes out on device/<mac>, one
//     message per sampling-capable characteristic.
//
// The boundary surface for other packages is Send, On, Listen, Discover,
// and PublishConfig. Everything else reacts to broker traffic.
package hub
