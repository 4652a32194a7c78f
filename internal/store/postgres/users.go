package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Self-Labs/pmes/internal/model"
)

func queryCreateUser(ctx context.Context, db executor, u *model.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, nome, email, senha, role, unidade_id, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID,
		u.Name,
		strings.ToLower(u.Email),
		u.PasswordHash,
		string(u.Role),
		nullStringPtr(u.UnitID),
		u.Active,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func queryGetUser(ctx context.Context, db executor, id string) (*model.User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func queryGetUserByEmail(ctx context.Context, db executor, email string) (*model.User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	return scanUser(row)
}

func queryListUsers(ctx context.Context, db executor, pendingOnly bool) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if pendingOnly {
		query += ` WHERE ativo = FALSE`
	}
	query += ` ORDER BY nome`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func queryUpdateUser(ctx context.Context, db executor, u *model.User) error {
	res, err := db.ExecContext(ctx, `
		UPDATE users
		SET nome = $1, email = $2, senha = $3, role = $4, unidade_id = $5, ativo = $6, updated_at = $7
		WHERE id = $8`,
		u.Name,
		strings.ToLower(u.Email),
		u.PasswordHash,
		string(u.Role),
		nullStringPtr(u.UnitID),
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

func queryDeleteUser(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func queryCreatePasswordReset(ctx context.Context, db executor, r *model.PasswordReset) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`,
		r.TokenHash,
		r.UserID,
		r.ExpiresAt,
		r.CreatedAt,
	)
	return err
}

// queryConsumePasswordReset marks an unused, unexpired reset token as used
// and returns it. The single UPDATE keeps lookup and consumption atomic, so
// a token can never be redeemed twice.
func queryConsumePasswordReset(ctx context.Context, db executor, tokenHash string) (*model.PasswordReset, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE password_resets
		SET used_at = now()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > now()
		RETURNING token_hash, user_id, expires_at, used_at, created_at`,
		tokenHash,
	)

	var r model.PasswordReset
	var usedAt sql.NullTime
	if err := row.Scan(&r.TokenHash, &r.UserID, &r.ExpiresAt, &usedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		r.UsedAt = &usedAt.Time
	}
	return &r, nil
}
