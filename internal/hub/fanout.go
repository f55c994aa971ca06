package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/homehub/hub-core/internal/device"
)

// PublishConfig fans out pin configuration over MQTT.
//
// An empty mac targets the whole fleet; otherwise only the named device.
// A mac that is not registered is a logged no-op, not an error. Each
// sampling-capable characteristic of each attachment becomes one message
// on device/<mac>; messages are independent and unordered.
func (h *Hub) PublishConfig(ctx context.Context, mac string) error {
	var targets []device.Device

	if mac == "" {
		all, err := h.devices.List(ctx)
		if err != nil {
			return fmt.Errorf("listing devices for fan-out: %w", err)
		}
		targets = all
	} else {
		dev, err := h.devices.GetByMAC(ctx, mac)
		if err != nil {
			h.logger.Warn("configuration fan-out for unregistered device", "mac", mac)
			return nil
		}
		targets = []device.Device{*dev}
	}

	for i := range targets {
		if err := h.publishDeviceConfig(ctx, &targets[i]); err != nil {
			h.logger.Error("device configuration fan-out",
				"device_id", targets[i].ID,
				"mac", targets[i].MACAddress,
				"error", err,
			)
		}
	}

	return nil
}

// publishDeviceConfig sends one device's full pin configuration.
func (h *Hub) publishDeviceConfig(ctx context.Context, dev *device.Device) error {
	attachments, err := h.attachments.ListByDevice(ctx, dev.ID)
	if err != nil {
		return fmt.Errorf("listing attachments: %w", err)
	}

	topic := h.topics.DeviceConfig(dev.MACAddress)

	sent := 0
	for _, att := range attachments {
		for _, nc := range att.Characteristics.Sampled() {
			msg := configMessage{
				DeviceID:       dev.ID,
				AttachmentID:   att.ID,
				AttachmentType: string(att.Type),
				Pin:            string(att.Pin),
				SampleInterval: nc.C.SampleIntervalMs,
				Invert:         nc.C.Invert,
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("marshalling config message: %w", err)
			}

			h.Send(topic, payload)
			sent++
		}
	}

	h.logger.Debug("device configuration published",
		"device_id", dev.ID,
		"mac", dev.MACAddress,
		"messages", sent,
	)

	return nil
}
