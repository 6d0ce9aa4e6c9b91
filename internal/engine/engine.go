// Package engine owns the quiet-mode lifecycle: the active mode registry, the bounded
// history ledger and the call log recorder.
//
// All state lives in one Engine and every public method is a single transaction under its
// mutex. After each mutation the full state is handed to the StateStore; write failures are
// logged and never surface to the caller, since the next mutation re-saves everything.
//
// Expiry is not timer driven. A mode whose end time has passed stays in the active set until
// SweepExpired runs, either from Restore at startup or from Run on an interval.
package engine

import (
	"context"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/model"
	"github.com/rcliao/quiet-assistant/internal/timecodec"
)

// MaxHistory and MaxCallLogs cap the ledger and the call log.
const (
	MaxHistory  = 1000
	MaxCallLogs = 1000
)

// StateStore persists the engine state.
type StateStore interface {
	Load(ctx context.Context) (model.State, error)
	Save(ctx context.Context, st model.State) error
}

// Options configures an Engine. Zero values are replaced with defaults.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Store receives the full state after every mutation. Nil disables persistence.
	Store StateStore
	// Logger defaults to a stderr logger.
	Logger *log.Logger
	// OnChange is called with a snapshot after every mutation, outside the engine lock.
	OnChange func(model.State)
}

// Engine is the mode lifecycle state machine.
type Engine struct {
	mu       sync.Mutex
	now      func() time.Time
	store    StateStore
	logger   *log.Logger
	onChange func(model.State)
	entropy  *rand.Rand

	active   []model.ActiveMode
	history  []model.HistoryEntry
	callLogs []model.CallLog
}

// New creates an empty Engine. Call Restore to rehydrate persisted state.
func New(opts Options) *Engine {
	e := &Engine{
		now:      opts.Now,
		store:    opts.Store,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = log.New(os.Stderr, "quiet-assistant: ", log.LstdFlags)
	}
	return e
}

// DiscardLogger is a logger that drops everything, for tests and quiet CLI runs.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// Restore loads persisted state, then closes duplicate activations and expired modes and
// returns the sessions it closed. A load failure is logged and leaves the engine with
// whatever the store could recover.
func (e *Engine) Restore(ctx context.Context) []model.HistoryEntry {
	if e.store == nil {
		return nil
	}
	st, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Printf("load state: %v (continuing with recovered state)", err)
	}

	e.mu.Lock()
	e.active = st.ActiveModes
	e.history = capHistory(st.ModeHistory)
	e.callLogs = capCallLogs(st.CallLogs)
	now := e.clock()
	closed := e.dedupeLocked(now)
	closed = append(closed, e.sweepLocked(now)...)
	e.mu.Unlock()

	if len(closed) > 0 {
		e.logger.Printf("restore: closed %d stale mode(s)", len(closed))
		e.commit(ctx)
	}
	return closed
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() model.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Run sweeps expired modes every interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.SweepExpired(ctx, e.clock())
		}
	}
}

func (e *Engine) clock() time.Time {
	return timecodec.Canonical(e.now())
}

func (e *Engine) newID(prefix model.ModeType, now time.Time) string {
	return string(prefix) + "-" + ulid.MustNew(ulid.Timestamp(now), e.entropy).String()
}

func (e *Engine) snapshotLocked() model.State {
	return model.State{
		ActiveModes: e.active,
		ModeHistory: e.history,
		CallLogs:    e.callLogs,
	}.Clone()
}

// commit persists the current state and notifies the observer.
func (e *Engine) commit(ctx context.Context) {
	e.mu.Lock()
	st := e.snapshotLocked()
	if e.store != nil {
		if err := e.store.Save(ctx, st); err != nil {
			e.logger.Printf("save state: %v", err)
		}
	}
	e.mu.Unlock()

	if e.onChange != nil {
		e.onChange(st)
	}
}

// dedupeLocked enforces one active instance per type on state written by older versions,
// keeping the most recently started instance.
func (e *Engine) dedupeLocked(now time.Time) []model.HistoryEntry {
	latest := map[model.ModeType]int{}
	for i, m := range e.active {
		if j, ok := latest[m.Type]; !ok || m.StartTime.After(e.active[j].StartTime) {
			latest[m.Type] = i
		}
	}
	var closed []model.HistoryEntry
	kept := e.active[:0:0]
	for i, m := range e.active {
		if latest[m.Type] == i {
			kept = append(kept, m)
			continue
		}
		closed = append(closed, e.closeLocked(m, now))
	}
	e.active = kept
	return closed
}

// maxDurationMinutes is the longest duration a time.Duration can hold.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

// defaultDuration resolves a requested duration against the catalog.
func defaultDuration(t model.ModeType, minutes int) (int, error) {
	if minutes < 0 || int64(minutes) > maxDurationMinutes {
		return 0, ErrInvalidDuration
	}
	if minutes == 0 {
		return catalog.Get(t).DefaultDurationMinutes, nil
	}
	return minutes, nil
}
