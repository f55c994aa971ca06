package hub

import "encoding/json"

// dispatch routes one inbound message. It runs on the MQTT client's
// delivery goroutine, so messages are handled in per-connection arrival
// order and handlers must not block indefinitely.
//
// Processing order:
//
//  1. Validate the payload is JSON; malformed payloads are logged and
//     dropped before any handler runs.
//  2. Invoke ephemeral listeners registered for the exact topic, in
//     registration order.
//  3. Invoke at most one built-in handler, selected by exact topic match.
//
// dispatch always returns nil: a bad message is logged, never escalated,
// so one misbehaving controller cannot disturb the stream.
func (h *Hub) dispatch(topic string, payload []byte) error {
	if !json.Valid(payload) {
		h.logger.Warn("dropping non-JSON payload", "topic", topic, "bytes", len(payload))
		return nil
	}

	h.notifyListeners(topic, payload)

	switch topic {
	case h.topics.DeviceState():
		h.handleDeviceState(payload)
	case h.topics.Temperature():
		h.handleTemperature(payload)
	case h.topics.Door():
		h.handleDoor(payload)
	default:
		h.logger.Debug("no handler for topic", "topic", topic)
	}

	return nil
}
