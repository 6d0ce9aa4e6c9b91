// Package model defines the core quiet-mode data types.
package model

import "time"

// ModeType identifies one of the built-in quiet modes.
type ModeType string

const (
	ModePrayer  ModeType = "prayer"
	ModeMeeting ModeType = "meeting"
	ModeNap     ModeType = "nap"
	ModeStudy   ModeType = "study"
	ModeCustom  ModeType = "custom"
)

// ValidModeTypes are the allowed mode types.
var ValidModeTypes = map[ModeType]bool{
	ModePrayer:  true,
	ModeMeeting: true,
	ModeNap:     true,
	ModeStudy:   true,
	ModeCustom:  true,
}

// ModeDefinition is the static description of a mode type.
type ModeDefinition struct {
	Type                   ModeType `json:"type"`
	Name                   string   `json:"name"`
	DefaultMessage         string   `json:"default_message"`
	DefaultDurationMinutes int      `json:"default_duration_minutes"`
	AutoSilenceDefault     bool     `json:"auto_silence_default"`
	AutoReplyDefault       bool     `json:"auto_reply_default"`
	CanSchedule            bool     `json:"can_schedule"`
	CanGeofence            bool     `json:"can_geofence"`
}

// ModeSettings are the per-activation behaviour switches.
type ModeSettings struct {
	AutoSilence         bool   `json:"autoSilence"`
	AutoReply           bool   `json:"autoReply"`
	CustomMessage       string `json:"customMessage,omitempty"`
	ReplyToContactsOnly bool   `json:"replyToContactsOnly"`
	VibrateOnly         bool   `json:"vibrateOnly"`
}

// SettingsPatch is a partial ModeSettings. Nil fields are left untouched.
type SettingsPatch struct {
	AutoSilence         *bool
	AutoReply           *bool
	CustomMessage       *string
	ReplyToContactsOnly *bool
	VibrateOnly         *bool
}

// Apply returns s with every non-nil field of p written over it.
func (p SettingsPatch) Apply(s ModeSettings) ModeSettings {
	if p.AutoSilence != nil {
		s.AutoSilence = *p.AutoSilence
	}
	if p.AutoReply != nil {
		s.AutoReply = *p.AutoReply
	}
	if p.CustomMessage != nil {
		s.CustomMessage = *p.CustomMessage
	}
	if p.ReplyToContactsOnly != nil {
		s.ReplyToContactsOnly = *p.ReplyToContactsOnly
	}
	if p.VibrateOnly != nil {
		s.VibrateOnly = *p.VibrateOnly
	}
	return s
}

// IsZero reports whether the patch changes nothing.
func (p SettingsPatch) IsZero() bool {
	return p.AutoSilence == nil && p.AutoReply == nil && p.CustomMessage == nil &&
		p.ReplyToContactsOnly == nil && p.VibrateOnly == nil
}

// ActiveMode is a running activation of a mode.
type ActiveMode struct {
	ID        string       `json:"id"`
	Type      ModeType     `json:"type"`
	StartTime time.Time    `json:"startTime"`
	EndTime   *time.Time   `json:"endTime,omitempty"`
	Settings  ModeSettings `json:"settings"`
}

// Remaining returns the time left before the mode lapses, or zero when it has no end
// or has already lapsed.
func (m ActiveMode) Remaining(now time.Time) time.Duration {
	if m.EndTime == nil || !m.EndTime.After(now) {
		return 0
	}
	return m.EndTime.Sub(now)
}

// Clone returns a copy that shares no pointers with m.
func (m ActiveMode) Clone() ActiveMode {
	if m.EndTime != nil {
		end := *m.EndTime
		m.EndTime = &end
	}
	return m
}

// HistoryEntry is the immutable record of a completed mode session.
type HistoryEntry struct {
	ID              string       `json:"id"`
	Type            ModeType     `json:"type"`
	StartTime       time.Time    `json:"startTime"`
	EndTime         time.Time    `json:"endTime"`
	Settings        ModeSettings `json:"settings"`
	DurationMinutes int          `json:"durationMinutes"`
}

// DurationMinutes is the session length from start to end rounded half-up to whole minutes.
func DurationMinutes(start, end time.Time) int {
	ms := end.Sub(start).Milliseconds()
	return int((ms + 30000) / 60000)
}

// CallStatus is the outcome of an auto-reply attempt.
type CallStatus string

const (
	CallSent    CallStatus = "sent"
	CallFailed  CallStatus = "failed"
	CallPending CallStatus = "pending"
)

// ValidCallStatuses are the allowed call log statuses.
var ValidCallStatuses = map[CallStatus]bool{
	CallSent:    true,
	CallFailed:  true,
	CallPending: true,
}

// CallLog records one outbound auto-reply attempt.
type CallLog struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	Timestamp   time.Time  `json:"timestamp"`
	ModeType    ModeType   `json:"modeType"`
	MessageSent string     `json:"messageSent"`
	Status      CallStatus `json:"status"`
}

// State is the full durable state of the mode engine.
type State struct {
	ActiveModes []ActiveMode   `json:"activeModes"`
	ModeHistory []HistoryEntry `json:"modeHistory"`
	CallLogs    []CallLog      `json:"callLogs"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		ActiveModes: make([]ActiveMode, len(s.ActiveModes)),
		ModeHistory: make([]HistoryEntry, len(s.ModeHistory)),
		CallLogs:    make([]CallLog, len(s.CallLogs)),
	}
	for i, m := range s.ActiveModes {
		out.ActiveModes[i] = m.Clone()
	}
	copy(out.ModeHistory, s.ModeHistory)
	copy(out.CallLogs, s.CallLogs)
	return out
}
