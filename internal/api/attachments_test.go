package api

import (
	"net/http"
	"testing"
)

func TestCreateAttachmentDefaultsCharacteristics(t *testing.T) {
	ts := setupServer(t)
	ts.addDevice(t, "dev-001", "AA:BB:CC:DD:EE:01")

	w := doRequest(t, ts, http.MethodPost, "/api/v1/attachments", map[string]any{
		"id":        "att-001",
		"device_id": "dev-001",
		"name":      "Ceiling Light",
		"type":      "light",
		"pin":       "D1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	resp := decodeBody(t, w)
	ch, ok := resp["characteristics"].(map[string]any)
	if !ok {
		t.Fatalf("characteristics missing from response: %v", resp)
	}
	isOn, ok := ch["is_on"].(map[string]any)
	if !ok {
		t.Fatalf("is_on characteristic missing: %v", ch)
	}
	if isOn["sample_interval_ms"] != float64(1000) {
		t.Errorf("sample_interval_ms = %v, want 1000", isOn["sample_interval_ms"])
	}

	// Creation republishes the owning controller's configuration.
	if got := ts.hub.lastConfigMAC(); got != "AA:BB:CC:DD:EE:01" {
		t.Errorf("fan-out target = %q, want AA:BB:CC:DD:EE:01", got)
	}
}

func TestCreateAttachmentPinConflict(t *testing.T) {
	ts := setupServer(t)
	ts.addDevice(t, "dev-001", "AA:BB:CC:DD:EE:01")
	ts.addAttachment(t, "att-001", "dev-001", "light", "D1")

	w := doRequest(t, ts, http.MethodPost, "/api/v1/attachments", map[string]any{
		"device_id": "dev-001",
		"name":      "Second Light",
		"type":      "light",
		"pin":       "D1",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("pin conflict status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCreateAttachmentUnknownDevice(t *testing.T) {
	ts := setupServer(t)

	w := doRequest(t, ts, http.MethodPost, "/api/v1/attachments", map[string]any{
		"device_id": "dev-missing",
		"name":      "Orphan",
		"type":      "light",
		"pin":       "D1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown device status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateAttachmentValidation(t *testing.T) {
	ts := setupServer(t)
	ts.addDevice(t, "dev-001", "AA:BB:CC:DD:EE:01")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown type", map[string]any{"device_id": "dev-001", "name": "x", "type": "blender", "pin": "D1"}},
		{"unknown pin", map[string]any{"device_id": "dev-001", "name": "x", "type": "light", "pin": "D9"}},
		{"missing name", map[string]any{"device_id": "dev-001", "type": "light", "pin": "D1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, ts, http.MethodPost, "/api/v1/attachments", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestToggleAttachment(t *testing.T) {
	ts := setupServer(t)
	ts.addDevice(t, "dev-001", "AA:BB:CC:DD:EE:01")
	ts.addAttachment(t, "att-001", "dev-001", "light", "D2")

	// First toggle: off -> on.
	w := doRequest(t, ts, http.MethodPost, "/api/v1/attachments/att-001/toggle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if resp := decodeBody(t, w); resp["is_on"] != true {
		t.Errorf("is_on after first toggle = %v, want true", resp["is_on"])
	}

	// Second toggle: on -> off.
	w = doRequest(t, ts, http.MethodPost, "/api/v1/attachments/att-001/toggle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second toggle status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp := decodeBody(t, w); resp["is_on"] != false {
		t.Errorf("is_on after second toggle = %v, want false", resp["is_on"])
	}

	// Both commands went to the actuator topic, in order.
	ts.hub.mu.Lock()
	defer ts.hub.mu.Unlock()
	if len(ts.hub.sent) != 2 {
		t.Fatalf("sent %d commands, want 2", len(ts.hub.sent))
	}
	for i, want := range []string{"on", "off"} {
		if ts.hub.sent[i].Topic != "lights/dev-001/D2" {
			t.Errorf("command %d topic = %q, want lights/dev-001/D2", i, ts.hub.sent[i].Topic)
		}
		if string(ts.hub.sent[i].Payload) != want {
			t.Errorf("command %d payload = %q, want %q", i, ts.hub.sent[i].Payload, want)
		}
	}
}

func TestToggleSensorRejected(t *testing.T) {
	ts := setupServer(t)
	ts.addDevice(t, "dev-001", "AA:BB:CC:DD:EE:01")
	ts.addAttachment(t, "att-001", "dev-001", "door-sensor", "D1")

	w := doRequest(t, ts, http.MethodPost, "/api/v1/attachments/att-001/toggle", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("toggle sensor status = %d, want %d", w.Code, http.StatusConflict)
	}

	ts.hub.mu.Lock()
	defer ts.hub.mu.Unlock()
	if len(ts.hub.sent) != 0 {
		t.Errorf("sent %d commands for a sensor, want 0", len(ts.hub.sent))
	}
}

func TestDeleteAttachmentRepublishesConfig(t *testing.T) {
	ts := setupServer(t)
	ts.addDevice(t, "dev-001", "AA:BB:CC:DD:EE:01")
	ts.addAttachment(t, "att-001", "dev-001", "light", "D1")

	w := doRequest(t, ts, http.MethodDelete, "/api/v1/attachments/att-001", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := ts.hub.lastConfigMAC(); got != "AA:BB:CC:DD:EE:01" {
		t.Errorf("fan-out target = %q, want AA:BB:CC:DD:EE:01", got)
	}
}

func TestListAttachmentsByDevice(t *testing.T) {
	ts := setupServer(t)
	ts.addDevice(t, "dev-001", "AA:BB:CC:DD:EE:01")
	ts.addDevice(t, "dev-002", "AA:BB:CC:DD:EE:02")
	ts.addAttachment(t, "att-001", "dev-001", "light", "D1")
	ts.addAttachment(t, "att-002", "dev-001", "door-sensor", "D2")
	ts.addAttachment(t, "att-003", "dev-002", "socket", "D1")

	w := doRequest(t, ts, http.MethodGet, "/api/v1/attachments?device_id=dev-001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", w.Code, http.StatusOK)
	}
	if resp := decodeBody(t, w); int(resp["count"].(float64)) != 2 {
		t.Errorf("count = %v, want 2", resp["count"])
	}
}
