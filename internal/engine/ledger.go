package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/model"
)

// HistoryFilter narrows a history query. Zero fields match everything.
type HistoryFilter struct {
	Since *time.Time     // StartTime >= Since
	Until *time.Time     // StartTime <= Until
	Type  model.ModeType // exact match
}

// Period names the preset ranges used by the activity view.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Stats summarizes the history ledger.
type Stats struct {
	TotalSessions         int                    `json:"total_sessions"`
	TotalDurationMinutes  int                    `json:"total_duration_minutes"`
	AverageSessionMinutes int                    `json:"average_session_minutes"`
	MostUsedType          *model.ModeType        `json:"most_used_type"`
	UsageCountByType      map[model.ModeType]int `json:"usage_count_by_type"`
	HoursSaved            int                    `json:"hours_saved"`
	CurrentActive         int                    `json:"current_active"`
	ByType                []TypeStats            `json:"by_type"`
}

// TypeStats holds per-mode-type usage.
type TypeStats struct {
	Type         model.ModeType `json:"type"`
	Sessions     int            `json:"sessions"`
	TotalMinutes int            `json:"total_minutes"`
}

func (e *Engine) appendHistoryLocked(entry model.HistoryEntry) {
	e.history = append([]model.HistoryEntry{entry}, e.history...)
	e.history = capHistory(e.history)
}

func capHistory(h []model.HistoryEntry) []model.HistoryEntry {
	if len(h) > MaxHistory {
		return h[:MaxHistory]
	}
	return h
}

// History returns the ledger entries matching f, most recent first.
func (e *Engine) History(f HistoryFilter) []model.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := []model.HistoryEntry{}
	for _, h := range e.history {
		if f.Since != nil && h.StartTime.Before(*f.Since) {
			continue
		}
		if f.Until != nil && h.StartTime.After(*f.Until) {
			continue
		}
		if f.Type != "" && h.Type != f.Type {
			continue
		}
		out = append(out, h)
	}
	return out
}

// PeriodFilter builds the filter for a preset period relative to now. Today means the
// calendar day of now in now's location.
func PeriodFilter(p Period, now time.Time) (HistoryFilter, error) {
	var since time.Time
	switch p {
	case PeriodAll, "":
		return HistoryFilter{}, nil
	case PeriodToday:
		y, m, d := now.Date()
		since = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		until := since.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return HistoryFilter{Since: &since, Until: &until}, nil
	case PeriodWeek:
		since = now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		since = now.Add(-30 * 24 * time.Hour)
	default:
		return HistoryFilter{}, fmt.Errorf("%w %q (valid: all, today, week, month)", ErrInvalidPeriod, p)
	}
	return HistoryFilter{Since: &since}, nil
}

// HistoryForPeriod returns the entries in a preset period, optionally of one type.
func (e *Engine) HistoryForPeriod(p Period, t model.ModeType) ([]model.HistoryEntry, error) {
	f, err := PeriodFilter(p, e.now())
	if err != nil {
		return nil, err
	}
	f.Type = t
	return e.History(f), nil
}

// Stats computes aggregate usage over the whole ledger. Ties for the most used type go to
// the type that comes first in catalog order.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Stats{
		UsageCountByType: map[model.ModeType]int{},
		CurrentActive:    len(e.active),
		ByType:           []TypeStats{},
	}
	minutesByType := map[model.ModeType]int{}
	for _, h := range e.history {
		st.TotalSessions++
		st.TotalDurationMinutes += h.DurationMinutes
		st.UsageCountByType[h.Type]++
		minutesByType[h.Type] += h.DurationMinutes
	}
	if st.TotalSessions == 0 {
		return st
	}

	st.AverageSessionMinutes = int(math.Round(float64(st.TotalDurationMinutes) / float64(st.TotalSessions)))
	st.HoursSaved = int(math.Round(float64(st.TotalDurationMinutes) / 60))

	best := 0
	for _, t := range catalog.Types() {
		n := st.UsageCountByType[t]
		if n == 0 {
			continue
		}
		st.ByType = append(st.ByType, TypeStats{Type: t, Sessions: n, TotalMinutes: minutesByType[t]})
		if n > best {
			best = n
			mt := t
			st.MostUsedType = &mt
		}
	}
	return st
}

// ClearHistory empties the ledger.
func (e *Engine) ClearHistory(ctx context.Context) {
	e.mu.Lock()
	e.history = nil
	e.mu.Unlock()

	e.logger.Println("history cleared")
	e.commit(ctx)
}
