package hub

import (
	"encoding/json"

	"github.com/homehub/hub-core/internal/event"
)

// handleTemperature ingests one temperature/humidity sample.
//
// The sample lands in three places, in order: the day bucket (system of
// record), the attachment's current values, and the optional InfluxDB
// mirror. Store errors are logged and the remaining steps still run; a
// failed append is lost, not retried.
func (h *Hub) handleTemperature(payload []byte) {
	var msg temperatureMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Warn("malformed temperature sample", "error", err)
		return
	}
	if msg.AttachmentID == nil || *msg.AttachmentID == "" || msg.Temperature == nil || msg.Humidity == nil {
		h.logger.Warn("temperature sample missing required fields", "payload", string(payload))
		return
	}

	att, err := h.attachments.GetByID(h.ctx, *msg.AttachmentID)
	if err != nil {
		h.logger.Warn("temperature sample for unknown attachment", "attachment_id", *msg.AttachmentID, "error", err)
		return
	}

	now := h.now()
	sample := event.Sample{
		Timestamp:   now,
		Temperature: msg.Temperature,
		Humidity:    msg.Humidity,
	}

	if err := h.events.AppendSample(h.ctx, att.ID, event.TypeTemperatureHumidity, event.DayOf(now), sample); err != nil {
		h.logger.Error("appending temperature sample", "attachment_id", att.ID, "error", err)
	}

	ch := att.Characteristics
	if ch.Temperature != nil {
		ch.Temperature.CurrentValue = *msg.Temperature
	}
	if ch.Humidity != nil {
		ch.Humidity.CurrentValue = *msg.Humidity
	}
	if err := h.attachments.UpdateCharacteristics(h.ctx, att.ID, ch); err != nil {
		h.logger.Error("mirroring temperature onto attachment", "attachment_id", att.ID, "error", err)
	}

	h.telemetry.WriteTemperatureSample(att.ID, att.DeviceID, *msg.Temperature, msg.Humidity)
}

// handleDoor ingests one door open/close transition. Same write order and
// error posture as handleTemperature.
func (h *Hub) handleDoor(payload []byte) {
	var msg doorMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Warn("malformed door sample", "error", err)
		return
	}
	if msg.AttachmentID == nil || *msg.AttachmentID == "" || msg.IsOpen == nil {
		h.logger.Warn("door sample missing required fields", "payload", string(payload))
		return
	}

	att, err := h.attachments.GetByID(h.ctx, *msg.AttachmentID)
	if err != nil {
		h.logger.Warn("door sample for unknown attachment", "attachment_id", *msg.AttachmentID, "error", err)
		return
	}

	now := h.now()
	sample := event.Sample{
		Timestamp: now,
		IsOpen:    msg.IsOpen,
	}

	if err := h.events.AppendSample(h.ctx, att.ID, event.TypeDoor, event.DayOf(now), sample); err != nil {
		h.logger.Error("appending door sample", "attachment_id", att.ID, "error", err)
	}

	ch := att.Characteristics
	if ch.IsOpen != nil {
		ch.IsOpen.CurrentValue = *msg.IsOpen
	}
	if err := h.attachments.UpdateCharacteristics(h.ctx, att.ID, ch); err != nil {
		h.logger.Error("mirroring door state onto attachment", "attachment_id", att.ID, "error", err)
	}

	h.telemetry.WriteDoorSample(att.ID, att.DeviceID, *msg.IsOpen)
}
