package hub

import (
	"encoding/json"

	"github.com/homehub/hub-core/internal/device"
)

// handleDeviceState applies a controller's online/offline report.
//
// Unknown MACs are dropped: provisioning happens through the API, never
// implicitly from a state report. A transition to online triggers exactly
// one targeted configuration fan-out so a freshly booted controller gets
// its pin setup.
func (h *Hub) handleDeviceState(payload []byte) {
	var msg deviceStateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Warn("malformed device state report", "error", err)
		return
	}
	if msg.MACAddress == nil || *msg.MACAddress == "" || msg.IsOnline == nil {
		h.logger.Warn("device state report missing required fields", "payload", string(payload))
		return
	}

	mac := device.NormalizeMAC(*msg.MACAddress)

	dev, err := h.devices.GetByMAC(h.ctx, mac)
	if err != nil {
		h.logger.Warn("state report for unregistered device", "mac", mac, "error", err)
		return
	}

	if err := h.devices.SetOnline(h.ctx, dev.ID, *msg.IsOnline); err != nil {
		h.logger.Error("updating device online state", "device_id", dev.ID, "error", err)
		return
	}

	h.logger.Info("device state reconciled",
		"device_id", dev.ID,
		"mac", mac,
		"is_online", *msg.IsOnline,
	)

	h.telemetry.WriteDeviceOnline(dev.ID, mac, *msg.IsOnline)

	// Came online: push its configuration.
	if *msg.IsOnline && !dev.IsOnline {
		if err := h.PublishConfig(h.ctx, mac); err != nil {
			h.logger.Error("targeted configuration fan-out", "mac", mac, "error", err)
		}
	}
}
