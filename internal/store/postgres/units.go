package postgres

import (
	"context"
	"database/sql"

	"github.com/Self-Labs/pmes/internal/model"
)

func queryCreateUnit(ctx context.Context, db executor, u *model.Unit) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO units (id, parent_id, sigla, tipo, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID,
		nullStringPtr(u.ParentID),
		u.Sigla,
		string(u.Type),
		u.Active,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func queryGetUnit(ctx context.Context, db executor, id string) (*model.Unit, error) {
	row := db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE id = $1`, id)
	return scanUnit(row)
}

func queryListUnits(ctx context.Context, db executor, filter model.UnitFilter) ([]*model.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units`
	if filter.ActiveOnly {
		query += ` WHERE ativo = TRUE`
	}
	query += ` ORDER BY sigla`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*model.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func queryUpdateUnit(ctx context.Context, db executor, u *model.Unit) error {
	res, err := db.ExecContext(ctx, `
		UPDATE units
		SET parent_id = $1, sigla = $2, tipo = $3, ativo = $4, updated_at = $5
		WHERE id = $6`,
		nullStringPtr(u.ParentID),
		u.Sigla,
		string(u.Type),
		u.Active,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryDeleteUnit(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
