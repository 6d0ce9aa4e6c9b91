package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/quiet-assistant/internal/model"
)

func sampleState() model.State {
	start := time.Date(2026, 5, 1, 9, 0, 0, 250_000_000, time.UTC)
	end := start.Add(90 * time.Minute)
	return model.State{
		ActiveModes: []model.ActiveMode{{
			ID:        "study-01",
			Type:      model.ModeStudy,
			StartTime: start,
			EndTime:   &end,
			Settings:  model.ModeSettings{AutoSilence: true, AutoReply: true, CustomMessage: "busy", VibrateOnly: true},
		}},
		ModeHistory: []model.HistoryEntry{{
			ID:              "nap-01",
			Type:            model.ModeNap,
			StartTime:       start.Add(-2 * time.Hour),
			EndTime:         start.Add(-75 * time.Minute),
			Settings:        model.ModeSettings{AutoReply: true},
			DurationMinutes: 45,
		}},
		CallLogs: []model.CallLog{{
			ID:          "log-1",
			PhoneNumber: "15550100",
			Timestamp:   start.Add(10 * time.Minute),
			ModeType:    model.ModeStudy,
			MessageSent: "busy",
			Status:      model.CallSent,
		}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(NewMemoryKV())
	want := sampleState()

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got.ActiveModes) != 1 || len(got.ModeHistory) != 1 || len(got.CallLogs) != 1 {
		t.Fatalf("unexpected sizes: %d/%d/%d", len(got.ActiveModes), len(got.ModeHistory), len(got.CallLogs))
	}
	a, wa := got.ActiveModes[0], want.ActiveModes[0]
	if a.ID != wa.ID || a.Type != wa.Type || a.Settings != wa.Settings {
		t.Errorf("active mode mismatch: %+v vs %+v", a, wa)
	}
	if !a.StartTime.Equal(wa.StartTime) || a.EndTime == nil || !a.EndTime.Equal(*wa.EndTime) {
		t.Errorf("active mode times mismatch: %v-%v vs %v-%v", a.StartTime, a.EndTime, wa.StartTime, wa.EndTime)
	}
	h, wh := got.ModeHistory[0], want.ModeHistory[0]
	if h.ID != wh.ID || !h.StartTime.Equal(wh.StartTime) || !h.EndTime.Equal(wh.EndTime) || h.DurationMinutes != 45 {
		t.Errorf("history mismatch: %+v vs %+v", h, wh)
	}
	c, wc := got.CallLogs[0], want.CallLogs[0]
	if c.ID != wc.ID || c.PhoneNumber != wc.PhoneNumber || c.ModeType != wc.ModeType ||
		c.MessageSent != wc.MessageSent || c.Status != wc.Status || !c.Timestamp.Equal(wc.Timestamp) {
		t.Errorf("call log mismatch: %+v vs %+v", c, wc)
	}
}

func TestSaveWritesISOStrings(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStateStore(kv)
	s.Save(ctx, sampleState())

	raw, _, _ := kv.Get(ctx, StateKey)
	if !strings.Contains(string(raw), `"startTime":"2026-05-01T09:00:00.250Z"`) {
		t.Errorf("expected ISO-8601 start time in %s", raw)
	}
}

func TestLoadMissingKey(t *testing.T) {
	st, err := NewStateStore(NewMemoryKV()).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.ActiveModes) != 0 || len(st.ModeHistory) != 0 || len(st.CallLogs) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestLoadMalformedFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	kv.Set(ctx, StateKey, []byte("{not json"))

	st, err := NewStateStore(kv).Load(ctx)
	if !errors.Is(err, ErrMalformedState) {
		t.Errorf("expected ErrMalformedState, got %v", err)
	}
	if st.ActiveModes == nil || len(st.ActiveModes) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestLoadNativeTimestamps(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	// endTime as epoch millis, the way a native timestamp value serializes on older writers.
	doc := fmt.Sprintf(`{"activeModes":[{"id":"prayer-1","type":"prayer","startTime":"%s","endTime":%d,"isActive":true,
		"settings":{"autoSilence":true,"autoReply":true,"replyToContactsOnly":false,"vibrateOnly":false}}]}`,
		start.Format(time.RFC3339), start.Add(30*time.Minute).UnixMilli())
	kv.Set(ctx, StateKey, []byte(doc))

	st, err := NewStateStore(kv).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.ActiveModes) != 1 {
		t.Fatalf("expected 1 active mode, got %d", len(st.ActiveModes))
	}
	m := st.ActiveModes[0]
	if m.EndTime == nil || !m.EndTime.Equal(start.Add(30*time.Minute)) {
		t.Errorf("unexpected end time %v", m.EndTime)
	}
	if st.ModeHistory == nil || st.CallLogs == nil {
		t.Error("missing sections should load as empty lists")
	}
}

func TestNormalizeTimestampsInMemoryNative(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	doc := document{
		ActiveModes: []activeRecord{{ID: "a", Type: model.ModeMeeting, StartTime: start, EndTime: end}},
		ModeHistory: []historyRecord{{ID: "h", Type: model.ModeNap, StartTime: &start, EndTime: "2026-05-01T10:00:00Z"}},
		CallLogs:    []callRecord{{ID: "c", Timestamp: json.Number(fmt.Sprint(start.UnixMilli()))}},
	}

	normalizeTimestamps(&doc)

	if doc.ActiveModes[0].EndTime != "2026-05-01T10:00:00.000Z" {
		t.Errorf("unexpected end %#v", doc.ActiveModes[0].EndTime)
	}
	if doc.ModeHistory[0].StartTime != "2026-05-01T09:00:00.000Z" {
		t.Errorf("unexpected start %#v", doc.ModeHistory[0].StartTime)
	}
	if doc.CallLogs[0].Timestamp != "2026-05-01T09:00:00.000Z" {
		t.Errorf("unexpected timestamp %#v", doc.CallLogs[0].Timestamp)
	}

	again := doc
	normalizeTimestamps(&again)
	if again.ActiveModes[0].StartTime != doc.ActiveModes[0].StartTime {
		t.Error("normalize is not idempotent")
	}
}

func TestLoadDropsOnlyCorruptRecords(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	doc := `{
		"activeModes": [
			{"id":"nap-1","type":"nap","startTime":"garbage","settings":{}},
			{"id":"nap-2","type":"nap","startTime":"2026-05-01T09:00:00.000Z","endTime":"also garbage","settings":{}},
			{"id":"yoga-1","type":"yoga","startTime":"2026-05-01T09:00:00.000Z","settings":{}},
			"not an object"
		],
		"modeHistory": [
			{"id":"h-1","type":"study","startTime":"2026-05-01T08:00:00.000Z","endTime":"2026-05-01T08:30:00.000Z","settings":{},"durationMinutes":999},
			{"id":"h-2","type":"study","startTime":"2026-05-01T08:00:00.000Z","endTime":null,"settings":{}}
		],
		"callLogs": {"oops": true}
	}`
	kv.Set(ctx, StateKey, []byte(doc))

	st, err := NewStateStore(kv).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.ActiveModes) != 1 || st.ActiveModes[0].ID != "nap-2" {
		t.Fatalf("expected only nap-2 to survive, got %+v", st.ActiveModes)
	}
	if st.ActiveModes[0].EndTime != nil {
		t.Error("unrecoverable optional end time should load as nil")
	}
	if len(st.ModeHistory) != 1 || st.ModeHistory[0].DurationMinutes != 30 {
		t.Errorf("expected one history entry with recomputed duration 30, got %+v", st.ModeHistory)
	}
	if len(st.CallLogs) != 0 {
		t.Errorf("expected no call logs, got %d", len(st.CallLogs))
	}
}

func TestLoadUnwrapsLegacyEnvelope(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	kv.Set(ctx, StateKey, []byte(`{"state":{"callLogs":[{"id":"log-1","phoneNumber":"1","timestamp":"2026-05-01T09:00:00.000Z","modeType":"nap","messageSent":"hi","status":"sent"}]},"version":0}`))

	st, err := NewStateStore(kv).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.CallLogs) != 1 || st.CallLogs[0].Status != model.CallSent {
		t.Errorf("expected one unwrapped call log, got %+v", st.CallLogs)
	}
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	src := NewStateStore(NewMemoryKV())
	src.Save(ctx, sampleState())
	data, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := NewStateStore(NewMemoryKV())
	st, err := dst.Import(ctx, data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(st.ActiveModes) != 1 || len(st.ModeHistory) != 1 || len(st.CallLogs) != 1 {
		t.Errorf("unexpected imported state %+v", st)
	}
	loaded, _ := dst.Load(ctx)
	if len(loaded.ModeHistory) != 1 {
		t.Error("import did not persist")
	}
}

func TestLoadCapsLists(t *testing.T) {
	ctx := context.Background()
	st := model.State{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 1005; i++ {
		st.ModeHistory = append(st.ModeHistory, model.HistoryEntry{
			ID: fmt.Sprintf("h-%d", i), Type: model.ModeNap, StartTime: base, EndTime: base,
		})
	}
	s := NewStateStore(NewMemoryKV())
	s.Save(ctx, st)

	got, _ := s.Load(ctx)
	if len(got.ModeHistory) != 1000 {
		t.Errorf("expected 1000 entries, got %d", len(got.ModeHistory))
	}
	if got.ModeHistory[0].ID != "h-0" {
		t.Errorf("expected head entry to be kept, got %s", got.ModeHistory[0].ID)
	}
}
