package backup

import (
	"context"
	"database/sql"

	"github.com/Self-Labs/pmes/internal/model"
	"github.com/Self-Labs/pmes/internal/store"
)

// mockStore is a minimal in-memory store.Store for export tests.
type mockStore struct {
	units     []*model.Unit
	users     []*model.User
	schedules []*model.Schedule

	listUnitsErr error
}

func (m *mockStore) CreateUnit(_ context.Context, u *model.Unit) error {
	m.units = append(m.units, u)
	return nil
}

func (m *mockStore) GetUnit(_ context.Context, id string) (*model.Unit, error) {
	for _, u := range m.units {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListUnits(_ context.Context, _ model.UnitFilter) ([]*model.Unit, error) {
	if m.listUnitsErr != nil {
		return nil, m.listUnitsErr
	}
	return m.units, nil
}

func (m *mockStore) UpdateUnit(_ context.Context, _ *model.Unit) error { return nil }
func (m *mockStore) DeleteUnit(_ context.Context, _ string) error      { return nil }

func (m *mockStore) CreateUser(_ context.Context, u *model.User) error {
	m.users = append(m.users, u)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, _ string) (*model.User, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) GetUserByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) ListUsers(_ context.Context, _ bool) ([]*model.User, error) {
	return m.users, nil
}

func (m *mockStore) UpdateUser(_ context.Context, _ *model.User) error { return nil }
func (m *mockStore) DeleteUser(_ context.Context, _ string) error      { return nil }

func (m *mockStore) GetSchedule(_ context.Context, _ model.ScheduleType, _ string) (*model.Schedule, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) UpsertSchedule(_ context.Context, s *model.Schedule) (*model.Schedule, error) {
	m.schedules = append(m.schedules, s)
	return s, nil
}

func (m *mockStore) ListSchedules(_ context.Context) ([]*model.Schedule, error) {
	return m.schedules, nil
}

func (m *mockStore) CreatePasswordReset(_ context.Context, _ *model.PasswordReset) error { return nil }

func (m *mockStore) ConsumePasswordReset(_ context.Context, _ string) (*model.PasswordReset, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
