package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rcliao/quiet-assistant/internal/model"
	"github.com/rcliao/quiet-assistant/internal/timecodec"
)

// ErrMalformedState is returned by Load when the stored document cannot be parsed at all.
var ErrMalformedState = errors.New("malformed state document")

// maxRecords caps each list on load, matching the engine's in-memory caps.
const maxRecords = 1000

// StateStore reads and writes the engine state as one JSON document in a KV.
type StateStore struct {
	kv  KV
	key string
}

// NewStateStore creates a StateStore over kv using StateKey.
func NewStateStore(kv KV) *StateStore {
	return &StateStore{kv: kv, key: StateKey}
}

// document is the persisted shape. Timestamps are held as any so that normalizeTimestamps
// can repair whatever an older writer left in them.
type document struct {
	ActiveModes []activeRecord  `json:"activeModes"`
	ModeHistory []historyRecord `json:"modeHistory"`
	CallLogs    []callRecord    `json:"callLogs"`
}

type activeRecord struct {
	ID        string             `json:"id"`
	Type      model.ModeType     `json:"type"`
	StartTime any                `json:"startTime"`
	EndTime   any                `json:"endTime,omitempty"`
	Settings  model.ModeSettings `json:"settings"`
}

type historyRecord struct {
	ID              string             `json:"id"`
	Type            model.ModeType     `json:"type"`
	StartTime       any                `json:"startTime"`
	EndTime         any                `json:"endTime"`
	Settings        model.ModeSettings `json:"settings"`
	DurationMinutes int                `json:"durationMinutes"`
}

type callRecord struct {
	ID          string           `json:"id"`
	PhoneNumber string           `json:"phoneNumber"`
	Timestamp   any              `json:"timestamp"`
	ModeType    model.ModeType   `json:"modeType"`
	MessageSent string           `json:"messageSent"`
	Status      model.CallStatus `json:"status"`
}

// Save encodes every timestamp with the codec and writes the document.
func (s *StateStore) Save(ctx context.Context, st model.State) error {
	b, err := json.Marshal(encodeDocument(st))
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Load reads the document and rebuilds native timestamps. An absent key yields the empty
// state. Records whose required timestamps cannot be recovered are dropped individually;
// only an unparseable document as a whole returns ErrMalformedState, along with the empty
// state.
func (s *StateStore) Load(ctx context.Context) (model.State, error) {
	b, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return emptyState(), fmt.Errorf("load state: %w", err)
	}
	if !ok || len(bytes.TrimSpace(b)) == 0 {
		return emptyState(), nil
	}
	return decodeDocument(b)
}

// Export returns the stored document in canonical form.
func (s *StateStore) Export(ctx context.Context) ([]byte, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(encodeDocument(st), "", "  ")
}

// Import replaces the stored document with data after normalizing it.
func (s *StateStore) Import(ctx context.Context, data []byte) (model.State, error) {
	st, err := decodeDocument(data)
	if err != nil {
		return st, err
	}
	return st, s.Save(ctx, st)
}

func emptyState() model.State {
	return model.State{
		ActiveModes: []model.ActiveMode{},
		ModeHistory: []model.HistoryEntry{},
		CallLogs:    []model.CallLog{},
	}
}

func encodeDocument(st model.State) document {
	doc := document{
		ActiveModes: make([]activeRecord, 0, len(st.ActiveModes)),
		ModeHistory: make([]historyRecord, 0, len(st.ModeHistory)),
		CallLogs:    make([]callRecord, 0, len(st.CallLogs)),
	}
	for _, m := range st.ActiveModes {
		r := activeRecord{
			ID:        m.ID,
			Type:      m.Type,
			StartTime: timecodec.Encode(m.StartTime),
			Settings:  m.Settings,
		}
		if m.EndTime != nil {
			r.EndTime = timecodec.Encode(*m.EndTime)
		}
		doc.ActiveModes = append(doc.ActiveModes, r)
	}
	for _, h := range st.ModeHistory {
		doc.ModeHistory = append(doc.ModeHistory, historyRecord{
			ID:              h.ID,
			Type:            h.Type,
			StartTime:       timecodec.Encode(h.StartTime),
			EndTime:         timecodec.Encode(h.EndTime),
			Settings:        h.Settings,
			DurationMinutes: h.DurationMinutes,
		})
	}
	for _, c := range st.CallLogs {
		doc.CallLogs = append(doc.CallLogs, callRecord{
			ID:          c.ID,
			PhoneNumber: c.PhoneNumber,
			Timestamp:   timecodec.Encode(c.Timestamp),
			ModeType:    c.ModeType,
			MessageSent: c.MessageSent,
			Status:      c.Status,
		})
	}
	return doc
}

// decodeDocument parses section by section and record by record, so one bad record never
// costs the rest of the document.
func decodeDocument(b []byte) (model.State, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return emptyState(), fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	// Older writers wrapped the state as {"state": {...}, "version": n}.
	if inner, ok := top["state"]; ok {
		var unwrapped map[string]json.RawMessage
		if err := json.Unmarshal(inner, &unwrapped); err == nil {
			top = unwrapped
		}
	}

	var doc document
	decodeSection(top["activeModes"], &doc.ActiveModes)
	decodeSection(top["modeHistory"], &doc.ModeHistory)
	decodeSection(top["callLogs"], &doc.CallLogs)

	normalizeTimestamps(&doc)
	return toState(doc), nil
}

func decodeSection[T any](raw json.RawMessage, out *[]T) {
	if len(raw) == 0 {
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return
	}
	for _, item := range items {
		var rec T
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			continue
		}
		*out = append(*out, rec)
	}
}

// normalizeTimestamps rewrites every timestamp field of doc into canonical string form and
// drops records whose required timestamps are unrecoverable. It runs on every load, whatever
// shape the document claims to have, and is idempotent.
func normalizeTimestamps(doc *document) {
	active := doc.ActiveModes[:0:0]
	for _, r := range doc.ActiveModes {
		start, err := timecodec.Normalize(r.StartTime)
		if err != nil {
			continue
		}
		r.StartTime = start
		if end, err := timecodec.Normalize(r.EndTime); err == nil {
			r.EndTime = end
		} else {
			r.EndTime = nil
		}
		active = append(active, r)
	}
	doc.ActiveModes = active

	history := doc.ModeHistory[:0:0]
	for _, r := range doc.ModeHistory {
		start, err := timecodec.Normalize(r.StartTime)
		if err != nil {
			continue
		}
		end, err := timecodec.Normalize(r.EndTime)
		if err != nil {
			continue
		}
		r.StartTime, r.EndTime = start, end
		history = append(history, r)
	}
	doc.ModeHistory = history

	calls := doc.CallLogs[:0:0]
	for _, r := range doc.CallLogs {
		ts, err := timecodec.Normalize(r.Timestamp)
		if err != nil {
			continue
		}
		r.Timestamp = ts
		calls = append(calls, r)
	}
	doc.CallLogs = calls
}

// toState converts a normalized document to the runtime form, enforcing the model
// invariants that a stale or hand-edited document may violate.
func toState(doc document) model.State {
	st := emptyState()
	for _, r := range doc.ActiveModes {
		if r.ID == "" || !model.ValidModeTypes[r.Type] {
			continue
		}
		start, _ := timecodec.Decode(r.StartTime)
		m := model.ActiveMode{ID: r.ID, Type: r.Type, StartTime: start, Settings: r.Settings}
		if end, err := timecodec.DecodePtr(r.EndTime); err == nil && end != nil {
			if end.Before(start) {
				*end = start
			}
			m.EndTime = end
		}
		st.ActiveModes = append(st.ActiveModes, m)
	}
	for _, r := range doc.ModeHistory {
		if r.ID == "" || !model.ValidModeTypes[r.Type] {
			continue
		}
		start, _ := timecodec.Decode(r.StartTime)
		end, _ := timecodec.Decode(r.EndTime)
		if end.Before(start) {
			end = start
		}
		st.ModeHistory = append(st.ModeHistory, model.HistoryEntry{
			ID:              r.ID,
			Type:            r.Type,
			StartTime:       start,
			EndTime:         end,
			Settings:        r.Settings,
			DurationMinutes: model.DurationMinutes(start, end),
		})
		if len(st.ModeHistory) == maxRecords {
			break
		}
	}
	for _, r := range doc.CallLogs {
		if r.ID == "" {
			continue
		}
		ts, _ := timecodec.Decode(r.Timestamp)
		status := r.Status
		if !model.ValidCallStatuses[status] {
			status = model.CallPending
		}
		st.CallLogs = append(st.CallLogs, model.CallLog{
			ID:          r.ID,
			PhoneNumber: r.PhoneNumber,
			Timestamp:   ts,
			ModeType:    r.ModeType,
			MessageSent: r.MessageSent,
			Status:      status,
		})
		if len(st.CallLogs) == maxRecords {
			break
		}
	}
	return st
}
