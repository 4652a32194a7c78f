package client

import (
	"context"
	"sync"
	"time"

	"github.com/Self-Labs/pmes/internal/model"
)

// DefaultSaveDelay is how long the coordinator waits after the last edit
// before writing. Matches the debounce the web editor always used.
const DefaultSaveDelay = 3 * time.Second

// SaveState is the coordinator's externally visible state.
type SaveState string

const (
	// StateSaved means the server holds the latest edits (or there have
	// been none). This is the initial state.
	StateSaved SaveState = "saved"
	// StatePending means edits exist that have not been written yet.
	StatePending SaveState = "pending"
	// StateSaving means a write is in flight.
	StateSaving SaveState = "saving"
	// StateError means the last write failed. The coordinator does not
	// retry on its own; the next edit re-arms the timer.
	StateError SaveState = "error"
)

// SaveStatus is a snapshot of the coordinator for display: the state plus
// the audit line of the last successful write.
type SaveStatus struct {
	State      SaveState
	LastSaved  time.Time
	LastEditor string
	Err        error
}

// Coordinator debounces schedule writes: every edit replaces the pending
// document and restarts a delay timer, and only the quiet period after the
// last edit triggers a save. Edits that arrive while a write is in flight
// are coalesced into one trailing write. Closing discards pending edits.
//
// All methods are safe for concurrent use.
type Coordinator struct {
	client RosterClient
	typ    model.ScheduleType
	delay  time.Duration

	// onChange, when set, observes every state transition. Called without
	// the lock held.
	onChange func(SaveStatus)

	mu       sync.Mutex
	timer    *time.Timer
	pending  *SaveScheduleRequest
	state    SaveState
	inflight bool
	closed   bool

	lastSaved  time.Time
	lastEditor string
	lastErr    error

	wg sync.WaitGroup
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithSaveDelay overrides the debounce delay.
func WithSaveDelay(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.delay = d }
}

// WithOnChange registers a callback invoked after every state transition.
func WithOnChange(fn func(SaveStatus)) CoordinatorOption {
	return func(c *Coordinator) { c.onChange = fn }
}

// NewCoordinator creates a coordinator writing schedules of the given type
// through cl.
func NewCoordinator(cl RosterClient, typ model.ScheduleType, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		client: cl,
		typ:    typ,
		delay:  DefaultSaveDelay,
		state:  StateSaved,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Edit records the latest full document and restarts the delay timer. The
// newest edit always wins: intermediate documents are never written.
func (c *Coordinator) Edit(req *SaveScheduleRequest) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pending = req
	c.state = StatePending
	c.lastErr = nil
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
	c.mu.Unlock()

	c.notify()
}

// SaveNow flushes any pending edit immediately instead of waiting out the
// delay. A no-op when nothing is pending.
func (c *Coordinator) SaveNow() {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.fire()
}

// Status returns the current state snapshot.
func (c *Coordinator) Status() SaveStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SaveStatus{
		State:      c.state,
		LastSaved:  c.lastSaved,
		LastEditor: c.lastEditor,
		Err:        c.lastErr,
	}
}

// Close stops the timer and waits for any in-flight write to finish.
// Pending edits that were still inside the delay window are discarded, the
// same way closing the editor tab always lost them.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = nil
	c.mu.Unlock()

	c.wg.Wait()
}

// fire is the timer callback: take the pending document and write it. If a
// write is already in flight the pending document stays put; completion of
// the in-flight write re-arms the timer.
func (c *Coordinator) fire() {
	c.mu.Lock()
	if c.closed || c.pending == nil || c.inflight {
		c.mu.Unlock()
		return
	}
	req := c.pending
	c.pending = nil
	c.inflight = true
	c.state = StateSaving
	c.mu.Unlock()

	c.notify()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		sched, err := c.client.SaveSchedule(context.Background(), c.typ, req)
		c.finish(req, sched, err)
	}()
}

// finish records the write result and schedules the trailing write when
// edits arrived mid-flight.
func (c *Coordinator) finish(req *SaveScheduleRequest, sched *model.Schedule, err error) {
	c.mu.Lock()
	c.inflight = false
	switch {
	case err != nil:
		c.lastErr = err
		// An edit made during the failed write supersedes the failure.
		if c.pending != nil {
			c.state = StatePending
		} else {
			c.state = StateError
		}
	case c.pending != nil:
		c.state = StatePending
		c.lastSaved = sched.UpdatedAt
		c.lastEditor = sched.UpdatedByName
	default:
		c.state = StateSaved
		c.lastSaved = sched.UpdatedAt
		c.lastEditor = sched.UpdatedByName
	}
	// Trailing write: coalesced edits go out after another quiet period.
	if c.pending != nil && !c.closed {
		if c.timer != nil {
			c.timer.Stop()
		}
		c.timer = time.AfterFunc(c.delay, c.fire)
	}
	c.mu.Unlock()

	c.notify()
}

func (c *Coordinator) notify() {
	if c.onChange != nil {
		c.onChange(c.Status())
	}
}
