// Package mqtt provides MQTT client connectivity for HomeHub Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and backoff
//   - Message publishing with QoS and timeouts
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Ordered per-connection message delivery
//
// # Architecture
//
// MQTT is the sole communication channel between the hub and the controller
// fleet. Controllers publish state and telemetry to the global/ hierarchy;
// the hub publishes per-device configuration to device/<mac>:
//
//	Controllers → global/#          → HomeHub Core
//	HomeHub Core → device/<mac>     → one controller
//	HomeHub Core → global/discovery → all controllers
//
// Publishing while disconnected fails immediately; nothing is queued.
// Reconnection is delegated to paho's retry loop, and the hub's on-connect
// callback re-establishes consistent state idempotently on every reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllGlobal(), 1,
//	    func(topic string, payload []byte) error {
//	        return dispatch(topic, payload)
//	    })
package mqtt
