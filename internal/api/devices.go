package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/homehub/hub-core/internal/device"
)

// handleListDevices returns all devices, with optional room_id filter.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if roomID := r.URL.Query().Get("room_id"); roomID != "" {
		devices, err := s.devices.ListByRoom(ctx, roomID)
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	devices, err := s.devices.List(ctx)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice registers a new controller.
//
// A freshly provisioned controller is assumed reachable, so it is created
// online and its configuration is pushed immediately rather than waiting
// for the next deviceState report.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var dev device.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if dev.ID == "" {
		dev.ID = uuid.NewString()
	}
	dev.IsOnline = true

	if err := dev.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.devices.Create(r.Context(), &dev); err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceExists):
			writeConflict(w, "device already exists")
		case errors.Is(err, device.ErrRoomNotFound):
			writeBadRequest(w, "room not found")
		default:
			writeInternalError(w, "failed to create device")
		}
		return
	}

	if err := s.hub.PublishConfig(r.Context(), dev.MACAddress); err != nil {
		s.logger.Error("config fan-out after device create",
			"device_id", dev.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice updates a device by ID.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
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

	if err := s.devices.Update(r.Context(), existing); err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, device.ErrDeviceExists):
			writeConflict(w, "mac address already registered")
		case errors.Is(err, device.ErrRoomNotFound):
			writeBadRequest(w, "room not found")
		default:
			writeInternalError(w, "failed to update device")
		}
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteDevice removes a device. Its attachments cascade away with it.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.devices.Delete(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to delete device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDiscoverDevices runs a discovery round-trip and returns the
// unregistered controllers that answered within the window.
func (s *Server) handleDiscoverDevices(w http.ResponseWriter, r *http.Request) {
	discovered, err := s.hub.Discover(r.Context(), s.discoveryWindow)
	if err != nil {
		writeInternalError(w, "discovery failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": discovered, "count": len(discovered)})
}
