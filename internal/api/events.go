package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homehub/hub-core/internal/device"
	"github.com/homehub/hub-core/internal/event"
)

// handleListAttachmentEvents returns an attachment's day buckets.
//
// Query parameters:
//   - type: filter by event type (temperature-humidity, door)
//   - from: inclusive first day, YYYY-MM-DD
//   - to: inclusive last day, YYYY-MM-DD
func (s *Server) handleListAttachmentEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	if _, err := s.attachments.GetByID(ctx, id); err != nil {
		if errors.Is(err, device.ErrAttachmentNotFound) {
			writeNotFound(w, "attachment not found")
			return
		}
		writeInternalError(w, "failed to get attachment")
		return
	}

	eventType := event.Type(r.URL.Query().Get("type"))
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	events, err := s.events.ListByAttachment(ctx, id, eventType, from, to)
	if err != nil {
		if errors.Is(err, event.ErrInvalidType) || errors.Is(err, event.ErrInvalidDay) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
