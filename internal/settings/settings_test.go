package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/quiet-assistant/internal/store"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	s := NewStore(store.NewMemoryKV())
	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.General.Theme != "light" || st.Emergency.MaxCalls != 3 || !st.Privacy.Analytics {
		t.Errorf("unexpected defaults %+v", st)
	}
}

func TestLoadFillsMissingKeys(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	kv.Set(ctx, store.SettingsKey, []byte(`{"general":{"theme":"dark"},"emergency":{"maxCalls":5}}`))

	st, err := NewStore(kv).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.General.Theme != "dark" || st.Emergency.MaxCalls != 5 {
		t.Errorf("stored values lost: %+v", st)
	}
	if st.General.Language != "en" || !st.Emergency.BypassEnabled || st.Notifications.SilentHours.StartTime != "22:00" {
		t.Errorf("missing keys not defaulted: %+v", st)
	}
}

func TestLoadLegacyEnvelope(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	kv.Set(ctx, store.SettingsKey, []byte(`{"state":{"settings":{"privacy":{"analytics":false,"crashReports":true}}},"version":0}`))

	st, err := NewStore(kv).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Privacy.Analytics {
		t.Error("expected analytics off from wrapped document")
	}
}

func TestLoadCorruptReturnsDefaults(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	kv.Set(ctx, store.SettingsKey, []byte(`{"general":`))

	st, err := NewStore(kv).Load(ctx)
	if err == nil {
		t.Error("expected error for corrupt document")
	}
	if st.General.Theme != "light" {
		t.Errorf("expected defaults, got %+v", st)
	}
}

func TestSetDottedKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryKV())

	if _, err := s.Set(ctx, "general.theme", "dark"); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if _, err := s.Set(ctx, "emergency.contacts", `["+1555*","15550100"]`); err != nil {
		t.Fatalf("set contacts: %v", err)
	}
	st, err := s.Set(ctx, "notifications.silentHours.enabled", "true")
	if err != nil {
		t.Fatalf("set silent hours: %v", err)
	}

	if st.General.Theme != "dark" || len(st.Emergency.Contacts) != 2 || !st.Notifications.SilentHours.Enabled {
		t.Errorf("unexpected settings %+v", st)
	}

	reloaded, _ := s.Load(ctx)
	if reloaded.General.Theme != "dark" {
		t.Error("set was not persisted")
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryKV())

	cases := map[string]string{
		"general.theme":                       "neon",
		"general.colour":                      "red",
		"general":                             "x",
		"emergency.maxCalls":                  "0",
		"emergency.maxCalls.value":            "1",
		"notifications.silentHours.startTime": "25:00",
		"privacy.analytics":                   `"yes"`,
	}
	for key, value := range cases {
		if _, err := s.Set(ctx, key, value); !errors.Is(err, ErrInvalid) {
			t.Errorf("Set(%s=%s): expected ErrInvalid, got %v", key, value, err)
		}
	}
	st, _ := s.Load(ctx)
	if st.General.Theme != "light" || st.Emergency.MaxCalls != 3 {
		t.Errorf("rejected sets changed state: %+v", st)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemoryKV())
	s.Set(ctx, "general.language", "ur")

	st, err := s.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if st.General.Language != "en" {
		t.Errorf("expected default language, got %q", st.General.Language)
	}
}

type brokenKV struct {
	getErr error
	setErr error
	writes int
}

func (k *brokenKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, k.getErr
}

func (k *brokenKV) Set(context.Context, string, []byte) error {
	k.writes++
	return k.setErr
}

func (k *brokenKV) Close() error { return nil }

func TestSetReturnsStoreErrors(t *testing.T) {
	ctx := context.Background()
	readErr := errors.New("read failed")
	writeErr := errors.New("write failed")

	kv := &brokenKV{getErr: readErr}
	if _, err := NewStore(kv).Set(ctx, "general.language", "ur"); !errors.Is(err, readErr) {
		t.Errorf("expected read error, got %v", err)
	}
	if kv.writes != 0 {
		t.Errorf("failed read must not write, got %d writes", kv.writes)
	}

	kv = &brokenKV{setErr: writeErr}
	if _, err := NewStore(kv).Set(ctx, "general.language", "ur"); !errors.Is(err, writeErr) {
		t.Errorf("expected write error, got %v", err)
	}

	corrupt := store.NewMemoryKV()
	corrupt.Set(ctx, store.SettingsKey, []byte("{not json"))
	if _, err := NewStore(corrupt).Set(ctx, "general.language", "ur"); err == nil {
		t.Error("expected error for corrupt stored settings")
	}
	raw, _, _ := corrupt.Get(ctx, store.SettingsKey)
	if string(raw) != "{not json" {
		t.Errorf("corrupt document was overwritten: %s", raw)
	}
}
