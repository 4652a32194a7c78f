package store

import (
	"context"

	"github.com/Self-Labs/pmes/internal/model"
)

// Store defines the persistence interface for the roster system.
// "Not found" is reported as sql.ErrNoRows throughout; callers translate.
type Store interface {
	// Units
	CreateUnit(ctx context.Context, unit *model.Unit) error
	GetUnit(ctx context.Context, id string) (*model.Unit, error)
	ListUnits(ctx context.Context, filter model.UnitFilter) ([]*model.Unit, error)
	UpdateUnit(ctx context.Context, unit *model.Unit) error
	DeleteUnit(ctx context.Context, id string) error

	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, pendingOnly bool) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error

	// Schedules. UpsertSchedule is atomic with respect to concurrent
	// callers for the scalar row; for the daily variant it also replaces
	// both child collections inside the same transaction.
	GetSchedule(ctx context.Context, typ model.ScheduleType, unitID string) (*model.Schedule, error)
	UpsertSchedule(ctx context.Context, sched *model.Schedule) (*model.Schedule, error)
	ListSchedules(ctx context.Context) ([]*model.Schedule, error)

	// Password resets
	CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string) (*model.PasswordReset, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
