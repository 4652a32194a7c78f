package server

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Self-Labs/pmes/internal/model"
)

// The service maps every failure to one of a closed set of error codes so
// clients can branch on the code field instead of matching message strings.
const (
	codeValidation       = "validation"
	codePermissionDenied = "permission_denied"
	codeTargetUnresolved = "target_unresolved"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeInternal         = "internal"
)

type inputError string

func (e inputError) Error() string { return string(e) }

// permissionError marks a request rejected by the hierarchical access check.
type permissionError string

func (e permissionError) Error() string { return string(e) }

// unresolvedError marks a request whose target unit could not be determined:
// the actor carries no unit and supplied none, or the named unit does not
// exist. Distinct from permissionError so clients can tell a misconfigured
// account apart from a denied one.
type unresolvedError string

func (e unresolvedError) Error() string { return string(e) }

type conflictError string

func (e conflictError) Error() string { return string(e) }

// respondError writes err to w using the closed error code set. Internal
// failures are logged with detail and reported opaquely.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	var ie inputError
	var pe permissionError
	var ue unresolvedError
	var ce conflictError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, codeValidation, ve.Error())
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, codeValidation, ie.Error())
	case errors.As(err, &ue):
		writeError(w, http.StatusBadRequest, codeTargetUnresolved, ue.Error())
	case errors.As(err, &pe):
		writeError(w, http.StatusForbidden, codePermissionDenied, pe.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, codeConflict, ce.Error())
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
