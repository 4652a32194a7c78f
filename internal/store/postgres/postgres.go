// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/Self-Labs/pmes/internal/model"
	"github.com/Self-Labs/pmes/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateUnit(ctx context.Context, unit *model.Unit) error {
	return queryCreateUnit(ctx, s.db, unit)
}

func (s *PostgresStore) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	return queryGetUnit(ctx, s.db, id)
}

func (s *PostgresStore) ListUnits(ctx context.Context, filter model.UnitFilter) ([]*model.Unit, error) {
	return queryListUnits(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateUnit(ctx context.Context, unit *model.Unit) error {
	return queryUpdateUnit(ctx, s.db, unit)
}

func (s *PostgresStore) DeleteUnit(ctx context.Context, id string) error {
	return queryDeleteUnit(ctx, s.db, id)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) error {
	return queryCreateUser(ctx, s.db, user)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return queryGetUser(ctx, s.db, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return queryGetUserByEmail(ctx, s.db, email)
}

func (s *PostgresStore) ListUsers(ctx context.Context, pendingOnly bool) ([]*model.User, error) {
	return queryListUsers(ctx, s.db, pendingOnly)
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *model.User) error {
	return queryUpdateUser(ctx, s.db, user)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	return queryDeleteUser(ctx, s.db, id)
}

func (s *PostgresStore) GetSchedule(ctx context.Context, typ model.ScheduleType, unitID string) (*model.Schedule, error) {
	return queryGetSchedule(ctx, s.db, typ, unitID)
}

// UpsertSchedule persists a schedule atomically. The scalar row upsert
// relies on the (tipo, unidade_id) uniqueness constraint, never on a prior
// read; the daily child replacement runs in the same transaction.
func (s *PostgresStore) UpsertSchedule(ctx context.Context, sched *model.Schedule) (*model.Schedule, error) {
	if sched.Type != model.TypeDaily {
		return queryUpsertScheduleRow(ctx, s.db, sched)
	}

	var out *model.Schedule
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		out, err = tx.UpsertSchedule(ctx, sched)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListSchedules(ctx context.Context) ([]*model.Schedule, error) {
	return queryListSchedules(ctx, s.db)
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error {
	return queryCreatePasswordReset(ctx, s.db, reset)
}

func (s *PostgresStore) ConsumePasswordReset(ctx context.Context, tokenHash string) (*model.PasswordReset, error) {
	return queryConsumePasswordReset(ctx, s.db, tokenHash)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateUnit(ctx context.Context, unit *model.Unit) error {
	return queryCreateUnit(ctx, s.tx, unit)
}

func (s *txStore) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	return queryGetUnit(ctx, s.tx, id)
}

func (s *txStore) ListUnits(ctx context.Context, filter model.UnitFilter) ([]*model.Unit, error) {
	return queryListUnits(ctx, s.tx, filter)
}

func (s *txStore) UpdateUnit(ctx context.Context, unit *model.Unit) error {
	return queryUpdateUnit(ctx, s.tx, unit)
}

func (s *txStore) DeleteUnit(ctx context.Context, id string) error {
	return queryDeleteUnit(ctx, s.tx, id)
}

func (s *txStore) CreateUser(ctx context.Context, user *model.User) error {
	return queryCreateUser(ctx, s.tx, user)
}

func (s *txStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return queryGetUser(ctx, s.tx, id)
}

func (s *txStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return queryGetUserByEmail(ctx, s.tx, email)
}

func (s *txStore) ListUsers(ctx context.Context, pendingOnly bool) ([]*model.User, error) {
	return queryListUsers(ctx, s.tx, pendingOnly)
}

func (s *txStore) UpdateUser(ctx context.Context, user *model.User) error {
	return queryUpdateUser(ctx, s.tx, user)
}

func (s *txStore) DeleteUser(ctx context.Context, id string) error {
	return queryDeleteUser(ctx, s.tx, id)
}

func (s *txStore) GetSchedule(ctx context.Context, typ model.ScheduleType, unitID string) (*model.Schedule, error) {
	return queryGetSchedule(ctx, s.tx, typ, unitID)
}

func (s *txStore) UpsertSchedule(ctx context.Context, sched *model.Schedule) (*model.Schedule, error) {
	out, err := queryUpsertScheduleRow(ctx, s.tx, sched)
	if err != nil {
		return nil, err
	}
	if sched.Type == model.TypeDaily {
		if err := queryReplaceScheduleLines(ctx, s.tx, out.ID, sched.Personnel, sched.Hearings); err != nil {
			return nil, err
		}
		out.Personnel = sched.Personnel
		out.Hearings = sched.Hearings
	}
	return out, nil
}

func (s *txStore) ListSchedules(ctx context.Context) ([]*model.Schedule, error) {
	return queryListSchedules(ctx, s.tx)
}

func (s *txStore) CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error {
	return queryCreatePasswordReset(ctx, s.tx, reset)
}

func (s *txStore) ConsumePasswordReset(ctx context.Context, tokenHash string) (*model.PasswordReset, error) {
	return queryConsumePasswordReset(ctx, s.tx, tokenHash)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
