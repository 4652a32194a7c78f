// Package client provides a transport-agnostic interface for the roster
// service, an HTTP/JSON implementation that talks to the REST API, and the
// auto-save coordinator the editing commands run their writes through.
package client

import (
	"context"
	"encoding/json"

	"github.com/Self-Labs/pmes/internal/model"
)

// RosterClient is the interface the CLI commands use to talk to the server.
// It is implemented by HTTPClient and can be backed by any transport.
type RosterClient interface {
	// Auth
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Signup(ctx context.Context, req *SignupRequest) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Me(ctx context.Context) (*model.User, error)

	// Units
	CreateUnit(ctx context.Context, req *CreateUnitRequest) (*model.Unit, error)
	GetUnit(ctx context.Context, id string) (*model.Unit, error)
	ListUnits(ctx context.Context, activeOnly bool) ([]*model.Unit, error)
	UnitTree(ctx context.Context) ([]*model.UnitNode, error)
	UpdateUnit(ctx context.Context, id string, req *UpdateUnitRequest) (*model.Unit, error)
	DeleteUnit(ctx context.Context, id string) error

	// Users
	ListUsers(ctx context.Context, pendingOnly bool) ([]*model.User, error)
	ApproveUser(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	// Schedules
	GetSchedule(ctx context.Context, typ model.ScheduleType, unitID string) (*model.Schedule, error)
	SaveSchedule(ctx context.Context, typ model.ScheduleType, req *SaveScheduleRequest) (*model.Schedule, error)
	ListSchedules(ctx context.Context) ([]*model.Schedule, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// LoginResponse carries the session token and the authenticated account.
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SignupRequest holds parameters for registering a new account.
type SignupRequest struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
	UnitID   string `json:"unidade_id"`
}

// CreateUnitRequest holds parameters for creating a unit.
type CreateUnitRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Sigla    string  `json:"sigla"`
	Type     string  `json:"tipo"`
}

// UpdateUnitRequest holds parameters for updating a unit. Nil fields are
// left unchanged.
type UpdateUnitRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Sigla    *string `json:"sigla,omitempty"`
	Type     *string `json:"tipo,omitempty"`
	Active   *bool   `json:"ativo,omitempty"`
}

// SaveScheduleRequest holds the full document for a schedule save. UnitID
// may be empty to target the caller's own unit.
type SaveScheduleRequest struct {
	UnitID    string                 `json:"unidade_id,omitempty"`
	Payload   json.RawMessage        `json:"config"`
	Personnel []*model.PersonnelLine `json:"efetivo,omitempty"`
	Hearings  []*model.HearingLine   `json:"audiencias,omitempty"`
}
