package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/homehub/hub-core/internal/device"
)

// handleListRooms returns all rooms.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleGetRoom returns a single room by ID.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	room, err := s.rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleCreateRoom creates a new room.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var room device.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if err := room.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.rooms.Create(r.Context(), &room); err != nil {
		if errors.Is(err, device.ErrRoomExists) {
			writeConflict(w, "room already exists")
			return
		}
		writeInternalError(w, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// handleUpdateRoom updates a room by ID.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
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

	if err := s.rooms.Update(r.Context(), existing); err != nil {
		if errors.Is(err, device.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to update room")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteRoom removes a room. Devices in the room are detached,
// not deleted.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.rooms.Delete(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to delete room")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
