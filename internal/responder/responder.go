// Package responder reacts to phone events on behalf of the active quiet modes. It keeps the
// telephony layer in step with the active set and answers ringing calls with an SMS.
package responder

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/contacts"
	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/model"
	"github.com/rcliao/quiet-assistant/internal/settings"
	"github.com/rcliao/quiet-assistant/internal/sms"
)

const (
	DefaultReplyCooldown = 5 * time.Minute
	DefaultRepeatWindow  = 15 * time.Minute
)

// Modes is the part of the engine the responder needs.
type Modes interface {
	Active() []model.ActiveMode
	RecordCall(ctx context.Context, c model.CallLog) model.CallLog
	CallLogs(f engine.CallLogFilter) []model.CallLog
}

// SettingsSource supplies the user preferences.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// Options configures a Responder.
type Options struct {
	Modes     Modes
	Telephony Telephony
	Contacts  contacts.Directory // nil means nobody is a contact
	Settings  SettingsSource     // nil means defaults
	Logger    *log.Logger
	Now       func() time.Time

	ReplyCooldown time.Duration
	RepeatWindow  time.Duration
}

// Action is what HandleIncomingCall did with a call.
type Action string

const (
	ActionIgnored  Action = "ignored"  // not ringing, or no active mode
	ActionSilenced Action = "silenced" // modes active but none auto-replies
	ActionBypassed Action = "bypassed" // emergency caller let through
	ActionSkipped  Action = "skipped"  // reply suppressed
	ActionReplied  Action = "replied"
	ActionFailed   Action = "failed"
)

// Outcome describes how a call was handled.
type Outcome struct {
	Action   Action         `json:"action"`
	Reason   string         `json:"reason,omitempty"`
	ModeType model.ModeType `json:"mode_type,omitempty"`
	Segments int            `json:"segments,omitempty"`
	Log      *model.CallLog `json:"log,omitempty"`
}

// Responder wires call events to the engine.
type Responder struct {
	modes     Modes
	tel       Telephony
	directory contacts.Directory
	settings  SettingsSource
	logger    *log.Logger
	now       func() time.Time
	cooldown  time.Duration
	window    time.Duration

	mu        sync.Mutex
	rings     map[string][]time.Time
	listening bool
	lastCfg   ListenConfig
}

// New creates a Responder.
func New(opts Options) *Responder {
	r := &Responder{
		modes:     opts.Modes,
		tel:       opts.Telephony,
		directory: opts.Contacts,
		settings:  opts.Settings,
		logger:    opts.Logger,
		now:       opts.Now,
		cooldown:  opts.ReplyCooldown,
		window:    opts.RepeatWindow,
		rings:     make(map[string][]time.Time),
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard, "", 0)
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.cooldown <= 0 {
		r.cooldown = DefaultReplyCooldown
	}
	if r.window <= 0 {
		r.window = DefaultRepeatWindow
	}
	return r
}

// Start initializes the telephony layer and verifies it may read phone state.
func (r *Responder) Start(ctx context.Context) error {
	if err := r.tel.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize telephony: %w", err)
	}
	perms, err := r.tel.CheckPermissions(ctx)
	if err != nil {
		return fmt.Errorf("check permissions: %w", err)
	}
	if !perms.ReadPhoneState {
		return ErrPermissionDenied
	}
	if !perms.SendSMS {
		r.logger.Printf("responder: sms permission missing, auto-replies will fail")
	}
	return r.Sync(ctx)
}

// Sync pushes the listen configuration derived from the active modes. With no active mode it
// stops listening and restores the ringer. Unchanged configurations are not re-sent.
func (r *Responder) Sync(ctx context.Context) error {
	active := r.modes.Active()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(active) == 0 {
		if !r.listening {
			return nil
		}
		r.listening = false
		if err := r.tel.StopListening(ctx); err != nil {
			return fmt.Errorf("stop listening: %w", err)
		}
		return r.tel.SetSilentMode(ctx, false)
	}

	cfg := ListenConfigFor(active)
	if r.listening && cfg == r.lastCfg {
		return nil
	}
	if err := r.tel.StartListening(ctx, cfg); err != nil {
		return fmt.Errorf("start listening: %w", err)
	}
	r.listening, r.lastCfg = true, cfg
	return r.tel.SetSilentMode(ctx, cfg.AutoSilenceEnabled)
}

// ListenConfigFor merges the active modes into one configuration. Switches are OR-ed; the
// message and contacts-only flag come from the replying mode.
func ListenConfigFor(active []model.ActiveMode) ListenConfig {
	var cfg ListenConfig
	for _, m := range active {
		cfg.AutoSilenceEnabled = cfg.AutoSilenceEnabled || m.Settings.AutoSilence
		cfg.AutoReplyEnabled = cfg.AutoReplyEnabled || m.Settings.AutoReply
		cfg.VibrateOnly = cfg.VibrateOnly || m.Settings.VibrateOnly
	}
	if m := replyingMode(active); m != nil {
		cfg.DefaultMessage = messageFor(*m)
		cfg.ReplyToContactsOnly = m.Settings.ReplyToContactsOnly
	}
	return cfg
}

// replyingMode picks the most recently started mode with auto-reply on.
func replyingMode(active []model.ActiveMode) *model.ActiveMode {
	candidates := make([]model.ActiveMode, 0, len(active))
	for _, m := range active {
		if m.Settings.AutoReply {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].StartTime.After(candidates[j].StartTime)
	})
	return &candidates[0]
}

func messageFor(m model.ActiveMode) string {
	if msg := strings.TrimSpace(m.Settings.CustomMessage); msg != "" {
		return msg
	}
	return catalog.Get(m.Type).DefaultMessage
}

// HandleIncomingCall decides what to do with a call event and, when a reply is attempted,
// records it in the call log as sent or failed.
func (r *Responder) HandleIncomingCall(ctx context.Context, ev CallEvent) (Outcome, error) {
	if ev.CallState != CallRinging {
		return Outcome{Action: ActionIgnored, Reason: "call not ringing"}, nil
	}
	now := ev.Timestamp
	if now.IsZero() {
		now = r.now()
	}
	phone := contacts.FormatPhoneNumber(ev.PhoneNumber)
	repeats := r.trackRing(phone, now)

	active := r.modes.Active()
	if len(active) == 0 {
		return Outcome{Action: ActionIgnored, Reason: "no active mode"}, nil
	}

	prefs := r.loadSettings(ctx)
	if prefs.Emergency.BypassEnabled && phone != "" {
		if reason := r.emergency(ev.PhoneNumber, phone, repeats, prefs.Emergency); reason != "" {
			r.logger.Printf("responder: emergency bypass for %s (%s)", phone, reason)
			if err := r.tel.SetSilentMode(ctx, false); err != nil {
				return Outcome{}, fmt.Errorf("lift silent mode: %w", err)
			}
			return Outcome{Action: ActionBypassed, Reason: reason}, nil
		}
	}

	m := replyingMode(active)
	if m == nil {
		return Outcome{Action: ActionSilenced, Reason: "auto-reply disabled"}, nil
	}
	out := Outcome{ModeType: m.Type}

	if phone == "" {
		out.Action, out.Reason = ActionSkipped, "unknown number"
		return out, nil
	}
	if m.Settings.ReplyToContactsOnly {
		ok, err := r.isContact(ctx, phone)
		if err != nil {
			r.logger.Printf("responder: contacts lookup: %v", err)
		}
		if !ok {
			out.Action, out.Reason = ActionSkipped, "not a contact"
			return out, nil
		}
	}
	since := now.Add(-r.cooldown)
	if recent := r.modes.CallLogs(engine.CallLogFilter{Phone: phone, Status: model.CallSent, Since: &since, Limit: 1}); len(recent) > 0 {
		out.Action, out.Reason = ActionSkipped, "replied recently"
		return out, nil
	}

	msg := messageFor(*m)
	segs := sms.Split(msg, sms.Options{})
	status := model.CallSent
	for _, s := range segs {
		if err := r.tel.SendSMS(ctx, phone, s.Text); err != nil {
			r.logger.Printf("responder: send sms to %s: %v", phone, err)
			status = model.CallFailed
			break
		}
	}

	rec := r.modes.RecordCall(ctx, model.CallLog{
		PhoneNumber: phone,
		Timestamp:   now,
		ModeType:    m.Type,
		MessageSent: msg,
		Status:      status,
	})
	out.Log = &rec
	out.Segments = len(segs)
	out.Action = ActionReplied
	if status == model.CallFailed {
		out.Action = ActionFailed
	}
	return out, nil
}

func (r *Responder) loadSettings(ctx context.Context) settings.Settings {
	if r.settings == nil {
		return settings.Defaults()
	}
	st, err := r.settings.Load(ctx)
	if err != nil {
		r.logger.Printf("responder: %v", err)
	}
	return st
}

func (r *Responder) isContact(ctx context.Context, phone string) (bool, error) {
	if r.directory == nil {
		return false, nil
	}
	return r.directory.Contains(ctx, phone)
}

// emergency returns a non-empty reason when the caller should ring through.
func (r *Responder) emergency(raw, phone string, repeats int, e settings.Emergency) string {
	for _, p := range e.Contacts {
		if matchContact(p, raw, phone) {
			return "emergency contact"
		}
	}
	if e.MaxCalls > 0 && repeats >= e.MaxCalls {
		return fmt.Sprintf("%d calls within %s", repeats, r.window)
	}
	return ""
}

// matchContact matches an emergency entry against the caller. Entries without glob
// metacharacters compare as phone numbers; others are glob patterns tried against both the
// raw and the digits-only number.
func matchContact(pattern, raw, phone string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		return contacts.Match([]contacts.Contact{{PhoneNumber: contacts.FormatPhoneNumber(pattern)}}, phone)
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return false
	}
	return g.Match(raw) || g.Match(phone)
}

// trackRing records a ring from phone and returns how many rings it has made within the
// repeat window, this one included.
func (r *Responder) trackRing(phone string, now time.Time) int {
	if phone == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	kept := r.rings[phone][:0]
	for _, t := range r.rings[phone] {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	r.rings[phone] = kept
	return len(kept)
}
