// Package settings manages the user preference document. It is persisted under its own key,
// independently of the mode engine state.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rcliao/quiet-assistant/internal/store"
)

// ErrInvalid is returned when a settings value fails validation.
var ErrInvalid = errors.New("invalid setting")

// Settings is the user preference document.
type Settings struct {
	Notifications Notifications `json:"notifications"`
	General       General       `json:"general"`
	Emergency     Emergency     `json:"emergency"`
	Privacy       Privacy       `json:"privacy"`
}

type Notifications struct {
	Enabled     bool        `json:"enabled"`
	Sound       bool        `json:"sound"`
	Vibration   bool        `json:"vibration"`
	SilentHours SilentHours `json:"silentHours"`
}

type SilentHours struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
}

type General struct {
	Theme               string `json:"theme"` // light, dark or auto
	Language            string `json:"language"`
	AutoStartOnBoot     bool   `json:"autoStartOnBoot"`
	BatteryOptimization bool   `json:"batteryOptimization"`
}

// Emergency controls which callers break through an active mode.
type Emergency struct {
	BypassEnabled bool `json:"bypassEnabled"`
	// Contacts are phone numbers or glob patterns such as "+1555*".
	Contacts []string `json:"contacts"`
	// MaxCalls is how many calls from the same number within the repeat window let the
	// caller through.
	MaxCalls               int  `json:"maxCalls"`
	VibrateDuringEmergency bool `json:"vibrateDuringEmergency"`
}

type Privacy struct {
	Analytics    bool `json:"analytics"`
	CrashReports bool `json:"crashReports"`
}

// Defaults returns the settings a fresh install starts with.
func Defaults() Settings {
	return Settings{
		Notifications: Notifications{
			Enabled:   true,
			Sound:     true,
			Vibration: true,
			SilentHours: SilentHours{
				StartTime: "22:00",
				EndTime:   "07:00",
			},
		},
		General: General{
			Theme:               "light",
			Language:            "en",
			AutoStartOnBoot:     true,
			BatteryOptimization: true,
		},
		Emergency: Emergency{
			BypassEnabled:          true,
			Contacts:               []string{},
			MaxCalls:               3,
			VibrateDuringEmergency: true,
		},
		Privacy: Privacy{
			Analytics:    true,
			CrashReports: true,
		},
	}
}

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var validThemes = map[string]bool{"light": true, "dark": true, "auto": true}

// Validate checks the fields that have a constrained range.
func (s Settings) Validate() error {
	if !validThemes[s.General.Theme] {
		return fmt.Errorf("%w: theme %q (valid: light, dark, auto)", ErrInvalid, s.General.Theme)
	}
	if !clockRe.MatchString(s.Notifications.SilentHours.StartTime) || !clockRe.MatchString(s.Notifications.SilentHours.EndTime) {
		return fmt.Errorf("%w: silent hours must be HH:MM", ErrInvalid)
	}
	if s.Emergency.MaxCalls < 1 {
		return fmt.Errorf("%w: maxCalls must be at least 1", ErrInvalid)
	}
	return nil
}

// Store reads and writes Settings in a KV.
type Store struct {
	kv store.KV
}

// NewStore creates a settings Store over kv.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored settings with defaults filled in for missing keys. A corrupt
// document yields the defaults and an error.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	st := Defaults()
	b, ok, err := s.kv.Get(ctx, store.SettingsKey)
	if err != nil {
		return st, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return st, nil
	}
	b = unwrapEnvelope(b)
	if err := json.Unmarshal(b, &st); err != nil {
		return Defaults(), fmt.Errorf("load settings: %w", err)
	}
	if st.Emergency.Contacts == nil {
		st.Emergency.Contacts = []string{}
	}
	return st, nil
}

// Save validates and writes st.
func (s *Store) Save(ctx context.Context, st Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, store.SettingsKey, b)
}

// Set assigns one dotted key, e.g. "emergency.maxCalls" = "5". The value is parsed as JSON
// when possible and as a plain string otherwise.
func (s *Store) Set(ctx context.Context, key, value string) (Settings, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return st, err
	}

	b, err := json.Marshal(st)
	if err != nil {
		return st, fmt.Errorf("marshal settings: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return st, fmt.Errorf("decode settings: %w", err)
	}

	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		v = value
	}
	if err := setPath(doc, strings.Split(key, "."), v); err != nil {
		return st, err
	}

	b, err = json.Marshal(doc)
	if err != nil {
		return st, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	next := Defaults()
	if err := json.Unmarshal(b, &next); err != nil {
		return st, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	if err := s.Save(ctx, next); err != nil {
		return st, err
	}
	return next, nil
}

// Reset restores the defaults.
func (s *Store) Reset(ctx context.Context) (Settings, error) {
	st := Defaults()
	return st, s.Save(ctx, st)
}

func setPath(doc map[string]any, path []string, v any) error {
	cur := doc
	for i, p := range path {
		next, ok := cur[p]
		if !ok {
			return fmt.Errorf("%w: unknown key %q", ErrInvalid, strings.Join(path[:i+1], "."))
		}
		if i == len(path)-1 {
			if _, isSection := next.(map[string]any); isSection {
				return fmt.Errorf("%w: %q is a section, not a value", ErrInvalid, strings.Join(path, "."))
			}
			cur[p] = v
			return nil
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q is not a section", ErrInvalid, strings.Join(path[:i+1], "."))
		}
		cur = m
	}
	return fmt.Errorf("%w: empty key", ErrInvalid)
}

// unwrapEnvelope strips the {"state": {"settings": {...}}, "version": n} wrapper older
// writers used.
func unwrapEnvelope(b []byte) []byte {
	var env struct {
		State *struct {
			Settings json.RawMessage `json:"settings"`
		} `json:"state"`
	}
	if err := json.Unmarshal(b, &env); err == nil && env.State != nil && len(env.State.Settings) > 0 {
		return env.State.Settings
	}
	return b
}
