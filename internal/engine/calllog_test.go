package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/quiet-assistant/internal/model"
)

func TestRecordCallDefaults(t *testing.T) {
	ctx := context.Background()
	e, clock, ss := newTestEngine(t)

	c := e.RecordCall(ctx, model.CallLog{ID: "ignored", PhoneNumber: "5550100", ModeType: model.ModeNap, MessageSent: "zz"})
	if !strings.HasPrefix(c.ID, "log-") {
		t.Errorf("expected generated id, got %q", c.ID)
	}
	if c.Status != model.CallPending {
		t.Errorf("expected pending, got %q", c.Status)
	}
	if !c.Timestamp.Equal(clock.Now()) {
		t.Errorf("expected clock timestamp, got %v", c.Timestamp)
	}

	st, _ := ss.Load(ctx)
	if len(st.CallLogs) != 1 || st.CallLogs[0].ID != c.ID {
		t.Errorf("call log not persisted: %+v", st.CallLogs)
	}
}

func TestCallLogFilters(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)

	start := clock.Now()
	e.RecordCall(ctx, model.CallLog{PhoneNumber: "1", ModeType: model.ModeNap, Status: model.CallSent})
	clock.Advance(10 * time.Minute)
	e.RecordCall(ctx, model.CallLog{PhoneNumber: "2", ModeType: model.ModeStudy, Status: model.CallFailed})
	clock.Advance(10 * time.Minute)
	e.RecordCall(ctx, model.CallLog{PhoneNumber: "1", ModeType: model.ModeStudy, Status: model.CallSent})

	if got := e.CallLogs(CallLogFilter{}); len(got) != 3 || got[0].PhoneNumber != "1" || got[0].ModeType != model.ModeStudy {
		t.Errorf("expected most recent first, got %+v", got)
	}
	if got := e.CallLogs(CallLogFilter{Phone: "1"}); len(got) != 2 {
		t.Errorf("phone filter: %d", len(got))
	}
	if got := e.CallLogs(CallLogFilter{Type: model.ModeStudy, Status: model.CallSent}); len(got) != 1 {
		t.Errorf("type+status filter: %d", len(got))
	}
	since := start.Add(5 * time.Minute)
	if got := e.CallLogs(CallLogFilter{Since: &since}); len(got) != 2 {
		t.Errorf("since filter: %d", len(got))
	}
	if got := e.CallLogs(CallLogFilter{Limit: 1}); len(got) != 1 {
		t.Errorf("limit: %d", len(got))
	}
}

func TestCallLogCap(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	for i := 0; i < MaxCallLogs+1; i++ {
		e.RecordCall(ctx, model.CallLog{PhoneNumber: "1", MessageSent: string(rune('a' + i%26))})
	}
	if got := e.CallLogs(CallLogFilter{}); len(got) != MaxCallLogs {
		t.Errorf("expected %d entries, got %d", MaxCallLogs, len(got))
	}
}

func TestClearCallLogs(t *testing.T) {
	ctx := context.Background()
	e, _, ss := newTestEngine(t)
	e.RecordCall(ctx, model.CallLog{PhoneNumber: "1"})
	e.ClearCallLogs(ctx)

	if len(e.CallLogs(CallLogFilter{})) != 0 {
		t.Error("expected empty call log")
	}
	st, _ := ss.Load(ctx)
	if len(st.CallLogs) != 0 {
		t.Error("clear not persisted")
	}
}
