package responder

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrPermissionDenied is returned when the platform has not granted phone-state access.
var ErrPermissionDenied = errors.New("telephony permission not granted")

// CallState is the ringer state reported with a call event.
type CallState string

const (
	CallRinging CallState = "RINGING"
	CallIdle    CallState = "IDLE"
	CallOffhook CallState = "OFFHOOK"
)

// CallEvent is a phone-state change.
type CallEvent struct {
	PhoneNumber string    `json:"phoneNumber"`
	CallState   CallState `json:"callState"`
	Timestamp   time.Time `json:"timestamp"`
}

// ListenConfig is pushed to the telephony layer whenever the active set changes.
type ListenConfig struct {
	AutoReplyEnabled    bool   `json:"autoReplyEnabled"`
	AutoSilenceEnabled  bool   `json:"autoSilenceEnabled"`
	DefaultMessage      string `json:"defaultMessage"`
	ReplyToContactsOnly bool   `json:"replyToContactsOnly"`
	VibrateOnly         bool   `json:"vibrateOnly"`
}

// Permissions reports what the platform allows.
type Permissions struct {
	ReadPhoneState bool `json:"readPhoneState"`
	SendSMS        bool `json:"sendSMS"`
}

// Telephony is the device-side collaborator.
type Telephony interface {
	Initialize(ctx context.Context) error
	StartListening(ctx context.Context, cfg ListenConfig) error
	StopListening(ctx context.Context) error
	SendSMS(ctx context.Context, phone, message string) error
	SetSilentMode(ctx context.Context, enabled bool) error
	CheckPermissions(ctx context.Context) (Permissions, error)
}

// SentMessage is one SMS handed to a LogTelephony.
type SentMessage struct {
	Phone   string
	Message string
}

// LogTelephony is a Telephony that only logs what a device would do. It backs the CLI.
type LogTelephony struct {
	mu        sync.Mutex
	logger    *log.Logger
	perms     Permissions
	listening bool
	silent    bool
	sent      []SentMessage
}

// NewLogTelephony creates a LogTelephony with all permissions granted.
func NewLogTelephony(logger *log.Logger) *LogTelephony {
	return &LogTelephony{logger: logger, perms: Permissions{ReadPhoneState: true, SendSMS: true}}
}

func (t *LogTelephony) Initialize(ctx context.Context) error { return nil }

func (t *LogTelephony) StartListening(ctx context.Context, cfg ListenConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listening = true
	t.logger.Printf("telephony: listening (auto-reply=%v, silence=%v, contacts-only=%v)",
		cfg.AutoReplyEnabled, cfg.AutoSilenceEnabled, cfg.ReplyToContactsOnly)
	return nil
}

func (t *LogTelephony) StopListening(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listening {
		t.logger.Printf("telephony: stopped listening")
	}
	t.listening = false
	return nil
}

func (t *LogTelephony) SendSMS(ctx context.Context, phone, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.perms.SendSMS {
		return ErrPermissionDenied
	}
	t.sent = append(t.sent, SentMessage{Phone: phone, Message: message})
	t.logger.Printf("telephony: sms to %s: %q", phone, message)
	return nil
}

func (t *LogTelephony) SetSilentMode(ctx context.Context, enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.silent != enabled {
		t.logger.Printf("telephony: silent mode %v", enabled)
	}
	t.silent = enabled
	return nil
}

func (t *LogTelephony) CheckPermissions(ctx context.Context) (Permissions, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.perms, nil
}

// Sent returns the messages sent so far.
func (t *LogTelephony) Sent() []SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]SentMessage(nil), t.sent...)
}

// Silent reports the current ringer state.
func (t *LogTelephony) Silent() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.silent
}
