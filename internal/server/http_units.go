package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Self-Labs/pmes/internal/events"
	"github.com/Self-Labs/pmes/internal/idgen"
	"github.com/Self-Labs/pmes/internal/model"
)

type createUnitInput struct {
	ParentID *string `json:"parent_id"`
	Sigla    string  `json:"sigla"`
	Type     string  `json:"tipo"`
}

// handleCreateUnit handles POST /v1/units. Admin only.
func (s *RosterServer) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	var in createUnitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	if in.ParentID != nil {
		if _, err := s.store.GetUnit(r.Context(), *in.ParentID); errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusBadRequest, codeValidation, "unknown parent unit "+*in.ParentID)
			return
		} else if err != nil {
			respondError(w, r, err)
			return
		}
	}

	id, err := idgen.Generate(idgen.PrefixUnit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	now := s.now().UTC()
	unit := &model.Unit{
		ID:        id,
		ParentID:  in.ParentID,
		Sigla:     strings.TrimSpace(in.Sigla),
		Type:      model.UnitType(in.Type),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := model.ValidateUnit(unit); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.store.CreateUnit(r.Context(), unit); err != nil {
		respondError(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicUnitCreated, events.UnitCreated{Unit: unit})

	writeJSON(w, http.StatusCreated, unit)
}

// handleListUnits handles GET /v1/units. Pass active=true to exclude
// soft-deleted units.
func (s *RosterServer) handleListUnits(w http.ResponseWriter, r *http.Request) {
	filter := model.UnitFilter{ActiveOnly: r.URL.Query().Get("active") == "true"}

	units, err := s.store.ListUnits(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if units == nil {
		units = []*model.Unit{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"units": units})
}

// handleUnitTree handles GET /v1/units/tree. Returns the active unit forest
// with children nested.
func (s *RosterServer) handleUnitTree(w http.ResponseWriter, r *http.Request) {
	units, err := s.store.ListUnits(r.Context(), model.UnitFilter{ActiveOnly: true})
	if err != nil {
		respondError(w, r, err)
		return
	}

	tree := model.BuildUnitTree(units)
	if tree == nil {
		tree = []*model.UnitNode{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tree": tree})
}

// handleGetUnit handles GET /v1/units/{id}.
func (s *RosterServer) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	unit, err := s.store.GetUnit(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, codeNotFound, "unit not found")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, unit)
}

type updateUnitInput struct {
	ParentID *string `json:"parent_id"`
	Sigla    *string `json:"sigla"`
	Type     *string `json:"tipo"`
	Active   *bool   `json:"ativo"`

	parentIDSet bool
}

// handleUpdateUnit handles PATCH /v1/units/{id}. Admin only. Absent fields
// are left unchanged; parent_id present and null reroots the unit.
func (s *RosterServer) handleUpdateUnit(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	id := r.PathValue("id")

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	var in updateUnitInput
	for key, val := range raw {
		var err error
		switch key {
		case "parent_id":
			in.parentIDSet = true
			err = json.Unmarshal(val, &in.ParentID)
		case "sigla":
			err = json.Unmarshal(val, &in.Sigla)
		case "tipo":
			err = json.Unmarshal(val, &in.Type)
		case "ativo":
			err = json.Unmarshal(val, &in.Active)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid value for "+key)
			return
		}
	}

	unit, err := s.store.GetUnit(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, codeNotFound, "unit not found")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	if in.parentIDSet {
		if in.ParentID != nil {
			if _, err := s.store.GetUnit(r.Context(), *in.ParentID); errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusBadRequest, codeValidation, "unknown parent unit "+*in.ParentID)
				return
			} else if err != nil {
				respondError(w, r, err)
				return
			}
		}
		unit.ParentID = in.ParentID
	}
	if in.Sigla != nil {
		unit.Sigla = strings.TrimSpace(*in.Sigla)
	}
	if in.Type != nil {
		unit.Type = model.UnitType(*in.Type)
	}
	if in.Active != nil {
		unit.Active = *in.Active
	}
	unit.UpdatedAt = s.now().UTC()

	if err := model.ValidateUnit(unit); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.UpdateUnit(r.Context(), unit); err != nil {
		respondError(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicUnitUpdated, events.UnitUpdated{Unit: unit})

	writeJSON(w, http.StatusOK, unit)
}

// handleDeleteUnit handles DELETE /v1/units/{id}. Admin only. Units are
// soft-deleted: the row stays so existing schedules and the hierarchy walk
// keep working, but the unit drops out of active listings.
func (s *RosterServer) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	id := r.PathValue("id")

	unit, err := s.store.GetUnit(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, codeNotFound, "unit not found")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	unit.Active = false
	unit.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUnit(r.Context(), unit); err != nil {
		respondError(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicUnitDeleted, events.UnitDeleted{UnitID: unit.ID, Sigla: unit.Sigla})

	w.WriteHeader(http.StatusNoContent)
}
