package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/homehub/hub-core/internal/device"
	"github.com/homehub/hub-core/internal/hub"
)

// handleListAttachments returns all attachments, with optional device_id filter.
func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if deviceID := r.URL.Query().Get("device_id"); deviceID != "" {
		attachments, err := s.attachments.ListByDevice(ctx, deviceID)
		if err != nil {
			writeInternalError(w, "failed to list attachments")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attachments": attachments, "count": len(attachments)})
		return
	}

	attachments, err := s.attachments.List(ctx)
	if err != nil {
		writeInternalError(w, "failed to list attachments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attachments": attachments, "count": len(attachments)})
}

// handleGetAttachment returns a single attachment by ID.
func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	att, err := s.attachments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrAttachmentNotFound) {
			writeNotFound(w, "attachment not found")
			return
		}
		writeInternalError(w, "failed to get attachment")
		return
	}
	writeJSON(w, http.StatusOK, att)
}

// handleCreateAttachment wires a new peripheral to a controller pin.
//
// Characteristics are derived from the attachment type unless the caller
// supplies them. On success the owning controller's configuration is
// re-published so the firmware picks up the new pin.
func (s *Server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	var att device.Attachment
	if err := json.NewDecoder(r.Body).Decode(&att); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	if len(att.Characteristics.Named()) == 0 {
		ch, err := device.DefaultCharacteristics(att.Type)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		att.Characteristics = ch
	}

	if err := att.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.attachments.Create(r.Context(), &att); err != nil {
		switch {
		case errors.Is(err, device.ErrAttachmentExists):
			writeConflict(w, "pin already in use on this device")
		case errors.Is(err, device.ErrDeviceNotFound):
			writeBadRequest(w, "device not found")
		default:
			writeInternalError(w, "failed to create attachment")
		}
		return
	}

	s.republishDeviceConfig(r, att.DeviceID)

	writeJSON(w, http.StatusCreated, att)
}

// handleUpdateAttachment updates an attachment by ID.
func (s *Server) handleUpdateAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.attachments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrAttachmentNotFound) {
			writeNotFound(w, "attachment not found")
			return
		}
		writeInternalError(w, "failed to get attachment")
		return
	}

	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	existing.ID = id
	if err := existing.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.attachments.Update(r.Context(), existing); err != nil {
		switch {
		case errors.Is(err, device.ErrAttachmentNotFound):
			writeNotFound(w, "attachment not found")
		case errors.Is(err, device.ErrAttachmentExists):
			writeConflict(w, "pin already in use on this device")
		case errors.Is(err, device.ErrDeviceNotFound):
			writeBadRequest(w, "device not found")
		default:
			writeInternalError(w, "failed to update attachment")
		}
		return
	}

	s.republishDeviceConfig(r, existing.DeviceID)

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteAttachment removes an attachment by ID.
func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	att, err := s.attachments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrAttachmentNotFound) {
			writeNotFound(w, "attachment not found")
			return
		}
		writeInternalError(w, "failed to get attachment")
		return
	}

	if err := s.attachments.Delete(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrAttachmentNotFound) {
			writeNotFound(w, "attachment not found")
			return
		}
		writeInternalError(w, "failed to delete attachment")
		return
	}

	s.republishDeviceConfig(r, att.DeviceID)

	w.WriteHeader(http.StatusNoContent)
}

// handleToggleAttachment flips an actuator's isOn state and commands the
// controller. Sensors are rejected.
func (s *Server) handleToggleAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	att, err := s.attachments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrAttachmentNotFound) {
			writeNotFound(w, "attachment not found")
			return
		}
		writeInternalError(w, "failed to get attachment")
		return
	}

	if !att.Type.IsActuator() || att.Characteristics.IsOn == nil {
		writeConflict(w, "attachment is not an actuator")
		return
	}

	on, _ := att.Characteristics.IsOn.CurrentValue.(bool)
	on = !on
	att.Characteristics.IsOn.CurrentValue = on

	if err := s.attachments.UpdateCharacteristics(r.Context(), att.ID, att.Characteristics); err != nil {
		writeInternalError(w, "failed to persist state")
		return
	}

	command := hub.CommandOff
	if on {
		command = hub.CommandOn
	}
	s.hub.Send(s.topics.AttachmentCommand(string(att.Type), att.DeviceID, string(att.Pin)), []byte(command))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":    att.ID,
		"is_on": on,
	})
}

// republishDeviceConfig pushes fresh configuration to an attachment's owning
// controller. Failures are logged; the next connect cycle repairs them.
func (s *Server) republishDeviceConfig(r *http.Request, deviceID string) {
	dev, err := s.devices.GetByID(r.Context(), deviceID)
	if err != nil {
		s.logger.Error("looking up device for config fan-out",
			"device_id", deviceID, "error", err)
		return
	}
	if err := s.hub.PublishConfig(r.Context(), dev.MACAddress); err != nil {
		s.logger.Error("config fan-out", "device_id", deviceID, "error", err)
	}
}
