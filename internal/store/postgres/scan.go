package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/Self-Labs/pmes/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanUnit scans a single row into a model.Unit.
// The row must contain columns in the order defined by unitColumns.
func scanUnit(row scannable) (*model.Unit, error) {
	var u model.Unit
	var parentID sql.NullString

	err := row.Scan(
		&u.ID,
		&parentID,
		&u.Sigla,
		&u.Type,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		u.ParentID = &parentID.String
	}
	return &u, nil
}

// scanUser scans a single row into a model.User.
// The row must contain columns in the order defined by userColumns.
func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var unitID sql.NullString

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&unitID,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if unitID.Valid {
		u.UnitID = &unitID.String
	}
	return &u, nil
}

// scanSchedule scans a single row into a model.Schedule.
// The row must contain columns in the order defined by scheduleColumns.
func scanSchedule(row scannable) (*model.Schedule, error) {
	var s model.Schedule
	var updatedBy sql.NullString
	var payload []byte

	err := row.Scan(
		&s.ID,
		&s.Type,
		&s.UnitID,
		&payload,
		&updatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.UpdatedBy = updatedBy.String
	s.Payload = json.RawMessage(payload)
	return &s, nil
}

// scanScheduleWithEditor scans scheduleColumns plus a trailing editor-name
// column as produced by the GetSchedule join.
func scanScheduleWithEditor(row scannable) (*model.Schedule, error) {
	var s model.Schedule
	var updatedBy sql.NullString
	var payload []byte

	err := row.Scan(
		&s.ID,
		&s.Type,
		&s.UnitID,
		&payload,
		&updatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.UpdatedByName,
	)
	if err != nil {
		return nil, err
	}

	s.UpdatedBy = updatedBy.String
	s.Payload = json.RawMessage(payload)
	return &s, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullStringPtr converts a nil *string to a SQL NULL.
func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// jsonbBytes normalizes a raw JSON payload for a JSONB column; empty
// payloads become an empty object rather than NULL.
func jsonbBytes(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return []byte(raw)
}
