// Package backup periodically exports the full roster dataset as JSONL to
// one or more destinations (S3-compatible storage, a local file).
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Self-Labs/pmes/internal/model"
	"github.com/Self-Labs/pmes/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	UnitCount     int       `json:"unit_count"`
	UserCount     int       `json:"user_count"`
	ScheduleCount int       `json:"schedule_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes all units, users, and schedules from the store as
// JSONL to w, each collection sorted by ID. Password hashes never leave the
// store: model.User excludes them from serialization.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	units, err := s.ListUnits(ctx, model.UnitFilter{})
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

	users, err := s.ListUsers(ctx, false)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	schedules, err := s.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].ID < schedules[j].ID })

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		UnitCount:     len(units),
		UserCount:     len(users),
		ScheduleCount: len(schedules),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, u := range units {
		if err := enc.Encode(record{Type: "unit", Data: u}); err != nil {
			return fmt.Errorf("encode unit %s: %w", u.ID, err)
		}
	}
	for _, u := range users {
		if err := enc.Encode(record{Type: "user", Data: u}); err != nil {
			return fmt.Errorf("encode user %s: %w", u.ID, err)
		}
	}
	for _, sc := range schedules {
		if err := enc.Encode(record{Type: "schedule", Data: sc}); err != nil {
			return fmt.Errorf("encode schedule %s: %w", sc.ID, err)
		}
	}

	return nil
}
