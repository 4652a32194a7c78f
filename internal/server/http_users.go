package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Self-Labs/pmes/internal/auth"
	"github.com/Self-Labs/pmes/internal/events"
	"github.com/Self-Labs/pmes/internal/idgen"
	"github.com/Self-Labs/pmes/internal/model"
)

// handleListUsers handles GET /v1/users. Admin only. Pass pending=true to
// list only accounts awaiting approval.
func (s *RosterServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	users, err := s.store.ListUsers(r.Context(), r.URL.Query().Get("pending") == "true")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserInput struct {
	Name     string  `json:"nome"`
	Email    string  `json:"email"`
	Password string  `json:"senha"`
	Role     string  `json:"role"`
	UnitID   *string `json:"unidade_id"`
}

// handleCreateUser handles POST /v1/users. Admin only. Unlike signup, an
// admin-created account is active immediately and may hold any role,
// including an unbound (global) admin.
func (s *RosterServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	var in createUserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	if err := model.ValidatePassword(in.Password); err != nil {
		respondError(w, r, err)
		return
	}
	if in.UnitID != nil {
		if _, err := s.store.GetUnit(r.Context(), *in.UnitID); errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusBadRequest, codeValidation, "unknown unit "+*in.UnitID)
			return
		} else if err != nil {
			respondError(w, r, err)
			return
		}
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.store.GetUserByEmail(r.Context(), email); err == nil {
		writeError(w, http.StatusConflict, codeConflict, "email already registered")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		respondError(w, r, err)
		return
	}

	id, err := idgen.Generate(idgen.PrefixUser)
	if err != nil {
		respondError(w, r, err)
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           id,
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.Role(in.Role),
		UnitID:       in.UnitID,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := model.ValidateUser(user); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleGetUser handles GET /v1/users/{id}. Admin only.
func (s *RosterServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	user, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateUserInput struct {
	Name     *string `json:"nome"`
	Role     *string `json:"role"`
	UnitID   *string `json:"unidade_id"`
	Active   *bool   `json:"ativo"`
	Password *string `json:"senha"`

	unitIDSet bool
}

// handleUpdateUser handles PATCH /v1/users/{id}. Admin only. Absent fields
// are left unchanged; unidade_id present and null unbinds the user, which
// for an admin grants global scope.
func (s *RosterServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	id := r.PathValue("id")

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	var in updateUserInput
	for key, val := range raw {
		var err error
		switch key {
		case "nome":
			err = json.Unmarshal(val, &in.Name)
		case "role":
			err = json.Unmarshal(val, &in.Role)
		case "unidade_id":
			in.unitIDSet = true
			err = json.Unmarshal(val, &in.UnitID)
		case "ativo":
			err = json.Unmarshal(val, &in.Active)
		case "senha":
			err = json.Unmarshal(val, &in.Password)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid value for "+key)
			return
		}
	}

	user, err := s.store.GetUser(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		user.Role = model.Role(*in.Role)
	}
	if in.unitIDSet {
		if in.UnitID != nil {
			if _, err := s.store.GetUnit(r.Context(), *in.UnitID); errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusBadRequest, codeValidation, "unknown unit "+*in.UnitID)
				return
			} else if err != nil {
				respondError(w, r, err)
				return
			}
		}
		user.UnitID = in.UnitID
	}
	if in.Active != nil {
		user.Active = *in.Active
	}
	if in.Password != nil {
		if err := model.ValidatePassword(*in.Password); err != nil {
			respondError(w, r, err)
			return
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			respondError(w, r, err)
			return
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now().UTC()

	if err := model.ValidateUser(user); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleApproveUser handles POST /v1/users/{id}/approve. Admin only.
// Activates a pending signup.
func (s *RosterServer) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	id := r.PathValue("id")

	user, err := s.store.GetUser(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, codeNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !user.Active {
		user.Active = true
		user.UpdatedAt = s.now().UTC()
		if err := s.store.UpdateUser(r.Context(), user); err != nil {
			respondError(w, r, err)
			return
		}
		s.publish(r.Context(), events.TopicUserApproved, events.UserApproved{User: user})
	}

	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser handles DELETE /v1/users/{id}. Admin only. Actors cannot
// delete themselves.
func (s *RosterServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := requireAdmin(w, r)
	if actor == nil {
		return
	}
	id := r.PathValue("id")
	if id == actor.ID {
		writeError(w, http.StatusBadRequest, codeValidation, "cannot delete your own account")
		return
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, codeNotFound, "user not found")
			return
		}
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
