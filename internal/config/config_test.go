package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SweepInterval != time.Minute || cfg.Format != "json" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Responder.ReplyCooldown != 5*time.Minute {
		t.Errorf("unexpected cooldown %v", cfg.Responder.ReplyCooldown)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `db_path: /tmp/qa-test.db
sweep_interval: 30s
geocoder:
  base_url: http://localhost:9999
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/qa-test.db" {
		t.Errorf("expected db path override, got %q", cfg.DBPath)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.SweepInterval)
	}
	if cfg.Geocoder.BaseURL != "http://localhost:9999" {
		t.Errorf("expected geocoder override, got %q", cfg.Geocoder.BaseURL)
	}
	if cfg.Geocoder.Timeout != 10*time.Second {
		t.Errorf("expected default timeout to survive, got %v", cfg.Geocoder.Timeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUIET_ASSISTANT_FORMAT", "text")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Format != "text" {
		t.Errorf("expected env override, got %q", cfg.Format)
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := DefaultConfig()
	if cfg.SweepInterval != want.SweepInterval || cfg.Responder.RepeatWindow != want.Responder.RepeatWindow {
		t.Errorf("written defaults did not load back: %+v", cfg)
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("sweep_interval: [oops"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
