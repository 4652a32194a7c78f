package server

import (
	"encoding/json"
	"net/http"

	"github.com/Self-Labs/pmes/internal/model"
)

// scheduleType parses and validates the {type} path segment, writing the
// error response itself on failure.
func scheduleType(w http.ResponseWriter, r *http.Request) (model.ScheduleType, bool) {
	typ := model.ScheduleType(r.PathValue("type"))
	if !typ.IsValid() {
		writeError(w, http.StatusBadRequest, codeValidation, "unknown schedule type "+string(typ))
		return "", false
	}
	return typ, true
}

// handleGetSchedule handles GET /v1/schedules/{type}. The target unit is
// ?unit_id= when given, otherwise the caller's own unit. A unit that has
// never saved a schedule of this type yields {"schedule": null}, not 404:
// the editor opens empty.
func (s *RosterServer) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		return
	}
	typ, ok := scheduleType(w, r)
	if !ok {
		return
	}

	sched, err := s.getSchedule(r.Context(), actor, typ, r.URL.Query().Get("unit_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"schedule": sched})
}

// handleSaveSchedule handles PUT /v1/schedules/{type}.
func (s *RosterServer) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		return
	}
	typ, ok := scheduleType(w, r)
	if !ok {
		return
	}

	var in saveScheduleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	sched, err := s.saveSchedule(r.Context(), actor, typ, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// handleListSchedules handles GET /v1/schedules. Admin only; backs the
// administrative overview of which units have saved what.
func (s *RosterServer) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	scheds, err := s.store.ListSchedules(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if scheds == nil {
		scheds = []*model.Schedule{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"schedules": scheds})
}
