package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Self-Labs/pmes/internal/model"
)

// fakeSaver implements the one method the coordinator uses; the embedded
// interface panics on anything else.
type fakeSaver struct {
	RosterClient

	mu      sync.Mutex
	saves   []*SaveScheduleRequest
	err     error
	release chan struct{} // when non-nil, SaveSchedule blocks until closed
}

func (f *fakeSaver) SaveSchedule(_ context.Context, _ model.ScheduleType, req *SaveScheduleRequest) (*model.Schedule, error) {
	f.mu.Lock()
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Schedule{
		Type:          model.TypePeriodic,
		Payload:       req.Payload,
		UpdatedByName: "Sgt Silva",
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

func (f *fakeSaver) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeSaver) lastSave() *SaveScheduleRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

func payload(s string) json.RawMessage { return json.RawMessage(s) }

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestCoordinatorDebouncesEdits(t *testing.T) {
	fake := &fakeSaver{}
	c := NewCoordinator(fake, model.TypePeriodic, WithSaveDelay(40*time.Millisecond))
	defer c.Close()

	// A burst of edits inside the delay window collapses to one write of
	// the final document.
	for i := 0; i < 5; i++ {
		c.Edit(&SaveScheduleRequest{Payload: payload(`{"rev":` + string(rune('0'+i)) + `}`)})
		time.Sleep(10 * time.Millisecond)
	}
	if got := c.Status().State; got != StatePending {
		t.Fatalf("expected pending during the burst, got %s", got)
	}

	waitFor(t, func() bool { return c.Status().State == StateSaved }, "save never completed")
	if n := fake.saveCount(); n != 1 {
		t.Fatalf("expected exactly one write for the burst, got %d", n)
	}
	if got := string(fake.lastSave().Payload); got != `{"rev":4}` {
		t.Fatalf("expected the final document to win, got %s", got)
	}

	st := c.Status()
	if st.LastEditor != "Sgt Silva" || st.LastSaved.IsZero() {
		t.Fatalf("expected audit fields after save, got %+v", st)
	}
}

func TestCoordinatorStateTransitions(t *testing.T) {
	var mu sync.Mutex
	var states []SaveState
	fake := &fakeSaver{}
	c := NewCoordinator(fake, model.TypePeriodic,
		WithSaveDelay(20*time.Millisecond),
		WithOnChange(func(st SaveStatus) {
			mu.Lock()
			states = append(states, st.State)
			mu.Unlock()
		}))
	defer c.Close()

	c.Edit(&SaveScheduleRequest{Payload: payload(`{}`)})
	waitFor(t, func() bool { return c.Status().State == StateSaved }, "save never completed")

	mu.Lock()
	defer mu.Unlock()
	want := []SaveState{StatePending, StateSaving, StateSaved}
	if len(states) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, states)
	}
	for i, s := range want {
		if states[i] != s {
			t.Fatalf("expected transitions %v, got %v", want, states)
		}
	}
}

func TestCoordinatorErrorDoesNotRetry(t *testing.T) {
	fake := &fakeSaver{err: errors.New("boom")}
	c := NewCoordinator(fake, model.TypePeriodic, WithSaveDelay(20*time.Millisecond))
	defer c.Close()

	c.Edit(&SaveScheduleRequest{Payload: payload(`{}`)})
	waitFor(t, func() bool { return c.Status().State == StateError }, "error state never reached")
	if c.Status().Err == nil {
		t.Fatal("expected the error to be surfaced")
	}

	// No retry on its own.
	time.Sleep(80 * time.Millisecond)
	if n := fake.saveCount(); n != 1 {
		t.Fatalf("expected no automatic retry, got %d writes", n)
	}

	// The next edit re-arms and succeeds.
	fake.mu.Lock()
	fake.err = nil
	fake.mu.Unlock()
	c.Edit(&SaveScheduleRequest{Payload: payload(`{"ok":true}`)})
	waitFor(t, func() bool { return c.Status().State == StateSaved }, "recovery save never completed")
	if c.Status().Err != nil {
		t.Fatalf("expected error cleared, got %v", c.Status().Err)
	}
}

func TestCoordinatorCoalescesMidFlightEdits(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeSaver{release: release}
	c := NewCoordinator(fake, model.TypePeriodic, WithSaveDelay(20*time.Millisecond))
	defer c.Close()

	c.Edit(&SaveScheduleRequest{Payload: payload(`{"rev":1}`)})
	waitFor(t, func() bool { return c.Status().State == StateSaving }, "first write never started")

	// Edits during the in-flight write must not be lost.
	c.Edit(&SaveScheduleRequest{Payload: payload(`{"rev":2}`)})
	c.Edit(&SaveScheduleRequest{Payload: payload(`{"rev":3}`)})

	fake.mu.Lock()
	fake.release = nil
	fake.mu.Unlock()
	close(release)

	waitFor(t, func() bool { return fake.saveCount() == 2 && c.Status().State == StateSaved }, "trailing write never completed")
	if got := string(fake.lastSave().Payload); got != `{"rev":3}` {
		t.Fatalf("expected the trailing write to carry the newest document, got %s", got)
	}
}

func TestCoordinatorSaveNow(t *testing.T) {
	fake := &fakeSaver{}
	c := NewCoordinator(fake, model.TypePeriodic, WithSaveDelay(time.Hour))
	defer c.Close()

	c.Edit(&SaveScheduleRequest{Payload: payload(`{}`)})
	c.SaveNow()
	waitFor(t, func() bool { return c.Status().State == StateSaved }, "forced save never completed")
	if n := fake.saveCount(); n != 1 {
		t.Fatalf("expected one write, got %d", n)
	}

	// Nothing pending: no-op.
	c.SaveNow()
	time.Sleep(20 * time.Millisecond)
	if n := fake.saveCount(); n != 1 {
		t.Fatalf("SaveNow with nothing pending must not write, got %d", n)
	}
}

func TestCoordinatorCloseDiscardsPending(t *testing.T) {
	fake := &fakeSaver{}
	c := NewCoordinator(fake, model.TypePeriodic, WithSaveDelay(50*time.Millisecond))

	c.Edit(&SaveScheduleRequest{Payload: payload(`{}`)})
	c.Close()

	time.Sleep(100 * time.Millisecond)
	if n := fake.saveCount(); n != 0 {
		t.Fatalf("pending edits must be discarded on close, got %d writes", n)
	}

	// Edits after close are ignored.
	c.Edit(&SaveScheduleRequest{Payload: payload(`{}`)})
	time.Sleep(100 * time.Millisecond)
	if n := fake.saveCount(); n != 0 {
		t.Fatalf("edits after close must be ignored, got %d writes", n)
	}
}
