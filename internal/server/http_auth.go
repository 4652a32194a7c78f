package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// handleLogin handles POST /v1/auth/login.
func (s *RosterServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	token, user, err := s.login(r.Context(), in.Email, in.Password)
	if errors.Is(err, errBadCredentials) {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// handleSignup handles POST /v1/auth/signup.
func (s *RosterServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	user, err := s.signup(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handlePasswordResetRequest handles POST /v1/auth/password-reset/request.
// The response is the same whether or not the email exists.
func (s *RosterServer) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if in.Email == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "email is required")
		return
	}

	if err := s.requestPasswordReset(r.Context(), in.Email); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

// handlePasswordReset handles POST /v1/auth/password-reset.
func (s *RosterServer) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if in.Token == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "token is required")
		return
	}

	if err := s.resetPassword(r.Context(), in.Token, in.Password); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdateMe handles PATCH /v1/me. Any authenticated user may change
// their own name, email, or password; a password change requires the
// current password even with a valid session token.
func (s *RosterServer) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		return
	}

	var in struct {
		Name            *string `json:"nome"`
		Email           *string `json:"email"`
		Password        *string `json:"senha"`
		CurrentPassword *string `json:"senha_atual"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	user, err := s.updateProfile(r.Context(), actor.ID, in.Name, in.Email, in.Password, in.CurrentPassword)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleMe handles GET /v1/me.
func (s *RosterServer) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		return
	}

	user, err := s.store.GetUser(r.Context(), actor.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
