// Package influxdb mirrors sensor telemetry to InfluxDB for dashboarding.
//
// SQLite day buckets are the system of record for sensor history; InfluxDB
// is an optional secondary sink. The client wraps influxdb-client-go's
// non-blocking write API, so ingestion never waits on the mirror and a
// missing InfluxDB simply disables it (Connect returns ErrDisabled).
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    client = nil // run without telemetry
//	}
//
//	client.WriteTemperatureSample(attID, devID, 21.5, &humidity)
//
// All write helpers are nil-safe no-ops when the client is absent or
// disconnected.
package influxdb
