package postgres

import (
	"context"
	"database/sql"
)

// unitColumns is the column list used for SELECT statements on the units table.
const unitColumns = `id, parent_id, sigla, tipo, ativo, created_at, updated_at`

// userColumns is the column list used for SELECT statements on the users table.
const userColumns = `id, nome, email, senha, role, unidade_id, ativo, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
