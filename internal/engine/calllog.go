package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/quiet-assistant/internal/model"
	"github.com/rcliao/quiet-assistant/internal/timecodec"
)

// CallLogFilter narrows a call log listing. Zero fields match everything.
type CallLogFilter struct {
	Type   model.ModeType
	Status model.CallStatus
	Phone  string // exact match on the recorded number
	Since  *time.Time
	Limit  int
}

// RecordCall appends an auto-reply attempt to the call log. The id is always assigned
// here; a zero timestamp is replaced with the current time and an empty status with pending.
func (e *Engine) RecordCall(ctx context.Context, c model.CallLog) model.CallLog {
	e.mu.Lock()
	c.ID = "log-" + uuid.NewString()
	if c.Timestamp.IsZero() {
		c.Timestamp = e.clock()
	} else {
		c.Timestamp = timecodec.Canonical(c.Timestamp)
	}
	if c.Status == "" {
		c.Status = model.CallPending
	}
	e.callLogs = capCallLogs(append([]model.CallLog{c}, e.callLogs...))
	e.mu.Unlock()

	e.commit(ctx)
	return c
}

func capCallLogs(c []model.CallLog) []model.CallLog {
	if len(c) > MaxCallLogs {
		return c[:MaxCallLogs]
	}
	return c
}

// CallLogs returns call log entries matching f, most recent first.
func (e *Engine) CallLogs(f CallLogFilter) []model.CallLog {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := []model.CallLog{}
	for _, c := range e.callLogs {
		if f.Type != "" && c.ModeType != f.Type {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Phone != "" && c.PhoneNumber != f.Phone {
			continue
		}
		if f.Since != nil && c.Timestamp.Before(*f.Since) {
			continue
		}
		out = append(out, c)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// ClearCallLogs empties the call log.
func (e *Engine) ClearCallLogs(ctx context.Context) {
	e.mu.Lock()
	e.callLogs = nil
	e.mu.Unlock()

	e.commit(ctx)
}
