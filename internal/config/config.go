// Package config loads quiet-assistant configuration from defaults, an optional YAML file
// and QUIET_ASSISTANT_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	DBPath        string          `mapstructure:"db_path" yaml:"db_path"`
	SweepInterval time.Duration   `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	Format        string          `mapstructure:"format" yaml:"format"`
	ContactsFile  string          `mapstructure:"contacts_file" yaml:"contacts_file"`
	Geocoder      GeocoderConfig  `mapstructure:"geocoder" yaml:"geocoder"`
	Responder     ResponderConfig `mapstructure:"responder" yaml:"responder"`
}

// GeocoderConfig configures reverse geocoding.
type GeocoderConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ResponderConfig tunes the auto-reply behaviour.
type ResponderConfig struct {
	ReplyCooldown time.Duration `mapstructure:"reply_cooldown" yaml:"reply_cooldown"`
	RepeatWindow  time.Duration `mapstructure:"repeat_window" yaml:"repeat_window"`
}

// Dir returns the per-user data directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quiet-assistant")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:        filepath.Join(Dir(), "state.db"),
		SweepInterval: time.Minute,
		Format:        "json",
		ContactsFile:  filepath.Join(Dir(), "contacts.json"),
		Geocoder: GeocoderConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "quiet-assistant/1.0",
			Timeout:   10 * time.Second,
		},
		Responder: ResponderConfig{
			ReplyCooldown: 5 * time.Minute,
			RepeatWindow:  15 * time.Minute,
		},
	}
}

// Load merges defaults, the file at path (DefaultPath when empty; a missing file is not an
// error) and the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix("QUIET_ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.ContactsFile = expandHome(cfg.ContactsFile)
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("sweep_interval", d.SweepInterval)
	v.SetDefault("format", d.Format)
	v.SetDefault("contacts_file", d.ContactsFile)
	v.SetDefault("geocoder.base_url", d.Geocoder.BaseURL)
	v.SetDefault("geocoder.user_agent", d.Geocoder.UserAgent)
	v.SetDefault("geocoder.timeout", d.Geocoder.Timeout)
	v.SetDefault("responder.reply_cooldown", d.Responder.ReplyCooldown)
	v.SetDefault("responder.repeat_window", d.Responder.RepeatWindow)
}

// WriteDefault writes the default configuration to path, creating its directory.
func WriteDefault(path string) error {
	b, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	header := "# quiet-assistant configuration\n# Environment variables QUIET_ASSISTANT_<KEY> override these values.\n"
	return os.WriteFile(path, append([]byte(header), b...), 0o644)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
