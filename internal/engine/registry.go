package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/model"
)

// ActivateParams holds parameters for activating a mode.
type ActivateParams struct {
	Type            model.ModeType
	DurationMinutes int // 0 means the catalog default
	Settings        *model.SettingsPatch
}

// Activate starts a mode. If the type is already active, the running instance is closed
// into the history ledger first, so at most one instance per type is ever active.
func (e *Engine) Activate(ctx context.Context, p ActivateParams) (*model.ActiveMode, error) {
	if _, err := catalog.Lookup(p.Type); err != nil {
		return nil, err
	}
	minutes, err := defaultDuration(p.Type, p.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", p.Type, err)
	}

	settings := catalog.DefaultSettings(p.Type)
	if p.Settings != nil {
		settings = p.Settings.Apply(settings)
	}

	e.mu.Lock()
	now := e.clock()
	var replaced *model.HistoryEntry
	if i := e.indexByType(p.Type); i >= 0 {
		entry := e.closeLocked(e.active[i], now)
		e.active = append(e.active[:i], e.active[i+1:]...)
		replaced = &entry
	}
	end := now.Add(time.Duration(minutes) * time.Minute)
	mode := model.ActiveMode{
		ID:        e.newID(p.Type, now),
		Type:      p.Type,
		StartTime: now,
		EndTime:   &end,
		Settings:  settings,
	}
	e.active = append(e.active, mode)
	e.mu.Unlock()

	if replaced != nil {
		e.logger.Printf("mode %s replaced %s after %d min", mode.ID, replaced.ID, replaced.DurationMinutes)
	}
	e.logger.Printf("mode %s activated for %d min", mode.ID, minutes)
	e.commit(ctx)

	out := mode.Clone()
	return &out, nil
}

// Deactivate ends the active mode with the given id and returns its history entry.
func (e *Engine) Deactivate(ctx context.Context, id string) (*model.HistoryEntry, error) {
	e.mu.Lock()
	i := e.indexByID(id)
	if i < 0 {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry := e.closeLocked(e.active[i], e.clock())
	e.active = append(e.active[:i], e.active[i+1:]...)
	e.mu.Unlock()

	e.logger.Printf("mode %s deactivated after %d min", id, entry.DurationMinutes)
	e.commit(ctx)
	return &entry, nil
}

// DeactivateAll ends every active mode with one shared end time. Entries are returned in
// activation order.
func (e *Engine) DeactivateAll(ctx context.Context) []model.HistoryEntry {
	e.mu.Lock()
	now := e.clock()
	entries := make([]model.HistoryEntry, 0, len(e.active))
	for _, m := range e.active {
		entries = append(entries, e.closeLocked(m, now))
	}
	e.active = nil
	e.mu.Unlock()

	if len(entries) == 0 {
		return entries
	}
	e.logger.Printf("all modes deactivated (%d)", len(entries))
	e.commit(ctx)
	return entries
}

// UpdateSettings merges the non-nil fields of patch into an active mode's settings.
func (e *Engine) UpdateSettings(ctx context.Context, id string, patch model.SettingsPatch) error {
	e.mu.Lock()
	i := e.indexByID(id)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.active[i].Settings = patch.Apply(e.active[i].Settings)
	e.mu.Unlock()

	e.commit(ctx)
	return nil
}

// SweepExpired closes every active mode whose end time is at or before now, exactly as
// Deactivate would at now.
func (e *Engine) SweepExpired(ctx context.Context, now time.Time) []model.HistoryEntry {
	e.mu.Lock()
	entries := e.sweepLocked(now)
	e.mu.Unlock()

	if len(entries) == 0 {
		return entries
	}
	e.logger.Printf("sweep: %d mode(s) expired", len(entries))
	e.commit(ctx)
	return entries
}

// Active returns the active modes in activation order.
func (e *Engine) Active() []model.ActiveMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.ActiveMode, len(e.active))
	for i, m := range e.active {
		out[i] = m.Clone()
	}
	return out
}

// Get returns the active mode with the given id.
func (e *Engine) Get(id string) (*model.ActiveMode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexByID(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m := e.active[i].Clone()
	return &m, nil
}

// ActiveByType returns the active instance of t.
func (e *Engine) ActiveByType(t model.ModeType) (*model.ActiveMode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexByType(t)
	if i < 0 {
		return nil, fmt.Errorf("%w: no active %s mode", ErrNotFound, t)
	}
	m := e.active[i].Clone()
	return &m, nil
}

// IsActive reports whether a mode of type t is running.
func (e *Engine) IsActive(t model.ModeType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexByType(t) >= 0
}

func (e *Engine) sweepLocked(now time.Time) []model.HistoryEntry {
	var entries []model.HistoryEntry
	kept := e.active[:0:0]
	for _, m := range e.active {
		if m.EndTime != nil && !m.EndTime.After(now) {
			entries = append(entries, e.closeLocked(m, now))
			continue
		}
		kept = append(kept, m)
	}
	e.active = kept
	return entries
}

// closeLocked converts an active mode into a history entry and appends it to the ledger.
// The caller removes the mode from the active set.
func (e *Engine) closeLocked(m model.ActiveMode, now time.Time) model.HistoryEntry {
	end := now
	if end.Before(m.StartTime) {
		end = m.StartTime
	}
	entry := model.HistoryEntry{
		ID:              m.ID,
		Type:            m.Type,
		StartTime:       m.StartTime,
		EndTime:         end,
		Settings:        m.Settings,
		DurationMinutes: model.DurationMinutes(m.StartTime, end),
	}
	e.appendHistoryLocked(entry)
	return entry
}

func (e *Engine) indexByID(id string) int {
	for i, m := range e.active {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) indexByType(t model.ModeType) int {
	for i, m := range e.active {
		if m.Type == t {
			return i
		}
	}
	return -1
}
