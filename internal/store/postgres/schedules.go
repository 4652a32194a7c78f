package postgres

import (
	"context"

	"github.com/Self-Labs/pmes/internal/model"
)

// scheduleColumns is the column list used for SELECT statements on the schedules table.
const scheduleColumns = `id, tipo, unidade_id, payload, updated_by, created_at, updated_at`

func queryGetSchedule(ctx context.Context, db executor, typ model.ScheduleType, unitID string) (*model.Schedule, error) {
	row := db.QueryRowContext(ctx, `
		SELECT s.id, s.tipo, s.unidade_id, s.payload, s.updated_by, s.created_at, s.updated_at,
			COALESCE(u.nome, '') AS editado_por
		FROM schedules s
		LEFT JOIN users u ON u.id = s.updated_by
		WHERE s.tipo = $1 AND s.unidade_id = $2`,
		string(typ), unitID,
	)

	sched, err := scanScheduleWithEditor(row)
	if err != nil {
		return nil, err
	}

	if typ == model.TypeDaily {
		if err := loadScheduleLines(ctx, db, sched); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// queryUpsertScheduleRow inserts or updates the scalar schedule row in one
// statement, keyed on the (tipo, unidade_id) uniqueness constraint. The
// provided ID is only used when the row does not exist yet; on conflict the
// existing row keeps its identity.
func queryUpsertScheduleRow(ctx context.Context, db executor, sched *model.Schedule) (*model.Schedule, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO schedules (id, tipo, unidade_id, payload, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (tipo, unidade_id) DO UPDATE
		SET payload = EXCLUDED.payload,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
		RETURNING `+scheduleColumns,
		sched.ID,
		string(sched.Type),
		sched.UnitID,
		jsonbBytes(sched.Payload),
		nullString(sched.UpdatedBy),
		sched.UpdatedAt,
	)
	return scanSchedule(row)
}

// queryReplaceScheduleLines deletes both child collections of a daily
// schedule and re-inserts the submitted rows in submitted order. Callers
// must run this inside the same transaction as the scalar upsert.
func queryReplaceScheduleLines(ctx context.Context, db executor, scheduleID string, personnel []*model.PersonnelLine, hearings []*model.HearingLine) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM schedule_personnel WHERE schedule_id = $1`, scheduleID); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM schedule_hearings WHERE schedule_id = $1`, scheduleID); err != nil {
		return err
	}

	for i, p := range personnel {
		kind := p.Kind
		if kind == "" {
			kind = "EFETIVO"
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO schedule_personnel (schedule_id, tipo, ordem, modalidade, setor, horario, viatura, militares, rg)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			scheduleID, kind, i, p.Modality, p.Sector, p.Hours, p.Vehicle, p.Officers, p.Badge,
		); err != nil {
			return err
		}
	}

	for i, h := range hearings {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO schedule_hearings (schedule_id, ordem, militar, rg, horario, local)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			scheduleID, i, h.Officer, h.Badge, h.Hours, h.Location,
		); err != nil {
			return err
		}
	}
	return nil
}

func loadScheduleLines(ctx context.Context, db executor, sched *model.Schedule) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tipo, ordem, modalidade, setor, horario, viatura, militares, rg
		FROM schedule_personnel WHERE schedule_id = $1 ORDER BY ordem`,
		sched.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	sched.Personnel = []*model.PersonnelLine{}
	for rows.Next() {
		var p model.PersonnelLine
		if err := rows.Scan(&p.Kind, &p.Seq, &p.Modality, &p.Sector, &p.Hours, &p.Vehicle, &p.Officers, &p.Badge); err != nil {
			return err
		}
		sched.Personnel = append(sched.Personnel, &p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	hrows, err := db.QueryContext(ctx, `
		SELECT ordem, militar, rg, horario, local
		FROM schedule_hearings WHERE schedule_id = $1 ORDER BY ordem`,
		sched.ID,
	)
	if err != nil {
		return err
	}
	defer hrows.Close()

	sched.Hearings = []*model.HearingLine{}
	for hrows.Next() {
		var h model.HearingLine
		if err := hrows.Scan(&h.Seq, &h.Officer, &h.Badge, &h.Hours, &h.Location); err != nil {
			return err
		}
		sched.Hearings = append(sched.Hearings, &h)
	}
	return hrows.Err()
}

func queryListSchedules(ctx context.Context, db executor) ([]*model.Schedule, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY unidade_id, tipo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range schedules {
		if s.Type == model.TypeDaily {
			if err := loadScheduleLines(ctx, db, s); err != nil {
				return nil, err
			}
		}
	}
	return schedules, nil
}
