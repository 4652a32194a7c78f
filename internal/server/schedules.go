package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Self-Labs/pmes/internal/access"
	"github.com/Self-Labs/pmes/internal/events"
	"github.com/Self-Labs/pmes/internal/idgen"
	"github.com/Self-Labs/pmes/internal/model"
)

// resolveTarget determines which unit a schedule request operates on and
// verifies the actor may reach it. Reads accept an explicit unit_id from
// anyone; writes accept one from admins only, and a non-admin's own unit
// is used regardless of any submitted value. Evaluation runs against a
// hierarchy snapshot loaded here, inside the same request as the operation
// it guards.
//
// Failure modes are distinct on purpose: a request with no resolvable or
// nonexistent target is a misconfiguration (unresolvedError), not a denial
// (permissionError).
func (s *RosterServer) resolveTarget(ctx context.Context, actor *model.Actor, explicit string, write bool) (string, error) {
	if write && actor.Role != model.RoleAdmin {
		explicit = ""
	}
	target := explicit
	if target == "" {
		if actor.UnitID == nil {
			return "", unresolvedError("target unit could not be determined")
		}
		target = *actor.UnitID
	}

	units, err := s.store.ListUnits(ctx, model.UnitFilter{})
	if err != nil {
		return "", fmt.Errorf("list units: %w", err)
	}
	idx := access.NewIndex(units)

	if idx.Get(target) == nil {
		return "", unresolvedError("unknown unit " + target)
	}
	if !idx.CanAccess(actor, target) {
		return "", permissionError("access to unit " + target + " denied")
	}
	return target, nil
}

// getSchedule loads the schedule of the given type for the resolved target
// unit. A nil schedule with nil error means the unit has never saved one.
func (s *RosterServer) getSchedule(ctx context.Context, actor *model.Actor, typ model.ScheduleType, explicitUnit string) (*model.Schedule, error) {
	unitID, err := s.resolveTarget(ctx, actor, explicitUnit, false)
	if err != nil {
		return nil, err
	}

	sched, err := s.store.GetSchedule(ctx, typ, unitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sched, nil
}

type saveScheduleInput struct {
	UnitID    string                 `json:"unidade_id"`
	Payload   json.RawMessage        `json:"config"`
	Personnel []*model.PersonnelLine `json:"efetivo"`
	Hearings  []*model.HearingLine   `json:"audiencias"`
}

// saveSchedule upserts the single schedule document for (type, unit).
// Concurrent saves resolve last-commit-wins on the scalar row; for the
// daily variant the store replaces both line collections in the same
// transaction, so readers never observe a half-written mix of two saves.
func (s *RosterServer) saveSchedule(ctx context.Context, actor *model.Actor, typ model.ScheduleType, in saveScheduleInput) (*model.Schedule, error) {
	unitID, err := s.resolveTarget(ctx, actor, in.UnitID, true)
	if err != nil {
		return nil, err
	}

	id, err := idgen.Generate(idgen.PrefixSchedule)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sched := &model.Schedule{
		ID:        id,
		Type:      typ,
		UnitID:    unitID,
		Payload:   in.Payload,
		Personnel: in.Personnel,
		Hearings:  in.Hearings,
		UpdatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Stored line order is the submitted order.
	for i, line := range sched.Personnel {
		line.Seq = i
	}
	for i, line := range sched.Hearings {
		line.Seq = i
	}
	if err := model.ValidateSchedule(sched); err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertSchedule(ctx, sched)
	if err != nil {
		return nil, fmt.Errorf("upsert schedule: %w", err)
	}

	// The canonical response carries the editor's display name; the upsert
	// RETURNING clause cannot join for it.
	if user, err := s.store.GetUser(ctx, actor.ID); err == nil {
		saved.UpdatedByName = user.Name
	}

	s.publish(ctx, events.TopicScheduleSaved, events.ScheduleSaved{Schedule: saved, SavedBy: actor.ID})
	return saved, nil
}
