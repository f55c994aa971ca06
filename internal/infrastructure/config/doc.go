// Package config loads and validates HomeHub Core configuration.
//
// Configuration is read from a YAML file, with hardcoded defaults applied
// first and HOMEHUB_* environment variables applied last:
//
//	cfg, err := config.Load("configs/config.yaml")
//
// Secrets (MQTT credentials, InfluxDB token) should be supplied through the
// environment rather than committed to the config file.
package config
