package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered. Every
// route except GET /v1/health and the /v1/auth/ endpoints requires a valid
// Authorization: Bearer <token> header.
func (s *RosterServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /v1/auth/password-reset/request", s.handlePasswordResetRequest)
	mux.HandleFunc("POST /v1/auth/password-reset", s.handlePasswordReset)
	mux.HandleFunc("GET /v1/me", s.handleMe)
	mux.HandleFunc("PATCH /v1/me", s.handleUpdateMe)
	mux.HandleFunc("POST /v1/units", s.handleCreateUnit)
	mux.HandleFunc("GET /v1/units", s.handleListUnits)
	mux.HandleFunc("GET /v1/units/tree", s.handleUnitTree)
	mux.HandleFunc("GET /v1/units/{id}", s.handleGetUnit)
	mux.HandleFunc("PATCH /v1/units/{id}", s.handleUpdateUnit)
	mux.HandleFunc("DELETE /v1/units/{id}", s.handleDeleteUnit)
	mux.HandleFunc("GET /v1/users", s.handleListUsers)
	mux.HandleFunc("POST /v1/users", s.handleCreateUser)
	mux.HandleFunc("GET /v1/users/{id}", s.handleGetUser)
	mux.HandleFunc("PATCH /v1/users/{id}", s.handleUpdateUser)
	mux.HandleFunc("POST /v1/users/{id}/approve", s.handleApproveUser)
	mux.HandleFunc("DELETE /v1/users/{id}", s.handleDeleteUser)
	mux.HandleFunc("GET /v1/schedules", s.handleListSchedules)
	mux.HandleFunc("GET /v1/schedules/{type}", s.handleGetSchedule)
	mux.HandleFunc("PUT /v1/schedules/{type}", s.handleSaveSchedule)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(s.tokens, mux)
}

// handleHealth handles GET /v1/health.
func (s *RosterServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with a machine-readable code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "error": message})
}
