package model

import (
	"encoding/json"
	"time"
)

// ScheduleType identifies one of the three roster document variants.
// Each unit holds at most one live schedule per type.
type ScheduleType string

const (
	// TypePeriodic is the monthly roster ("escala mensal").
	TypePeriodic ScheduleType = "periodic"
	// TypeSpecialDuty is the special-duty roster ("ISEO").
	TypeSpecialDuty ScheduleType = "special_duty"
	// TypeDaily is the daily roster ("escala diária"), the only variant
	// with child line collections.
	TypeDaily ScheduleType = "daily"
)

// String returns the string representation of the schedule type.
func (t ScheduleType) String() string {
	return string(t)
}

// IsValid checks whether the schedule type is a known value.
func (t ScheduleType) IsValid() bool {
	switch t {
	case TypePeriodic, TypeSpecialDuty, TypeDaily:
		return true
	}
	return false
}

// Schedule is the single mutable roster document for one (type, unit) pair.
// Payload is the free-form editor configuration; the server stores it
// opaquely and returns it verbatim. Personnel and Hearings are populated
// only for the daily variant and are owned exclusively by the schedule:
// every save replaces both collections wholesale.
type Schedule struct {
	ID        string          `json:"id"`
	Type      ScheduleType    `json:"tipo"`
	UnitID    string          `json:"unidade_id"`
	Payload   json.RawMessage `json:"config"`
	Personnel []*PersonnelLine `json:"efetivo,omitempty"`
	Hearings  []*HearingLine   `json:"audiencias,omitempty"`

	// Audit trail: who wrote last, and when.
	UpdatedBy     string    `json:"updated_by"`
	UpdatedByName string    `json:"editado_por,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PersonnelLine is one deployment row of a daily roster. Seq is the stored
// position; rows are always read back in Seq order.
type PersonnelLine struct {
	Kind     string `json:"tipo"`
	Seq      int    `json:"ordem"`
	Modality string `json:"modalidade"`
	Sector   string `json:"setor"`
	Hours    string `json:"horario"`
	Vehicle  string `json:"viatura"`
	Officers string `json:"militares"`
	Badge    string `json:"rg"`
}

// HearingLine is one court-appearance row of a daily roster.
type HearingLine struct {
	Seq      int    `json:"ordem"`
	Officer  string `json:"militar"`
	Badge    string `json:"rg"`
	Hours    string `json:"horario"`
	Location string `json:"local"`
}
