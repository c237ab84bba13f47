package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kelasbot/pkg/logx"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Prefix != "." {
		t.Errorf("default prefix = %q, want .", cfg.Prefix)
	}
	if cfg.Timezone != "Asia/Jakarta" {
		t.Errorf("default timezone = %q", cfg.Timezone)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("default driver = %q, want file", cfg.Storage.Driver)
	}
	if cfg.CooldownWindow() != 3*time.Second {
		t.Errorf("default cooldown = %v", cfg.CooldownWindow())
	}
	if cfg.ReminderInterval() != 60*time.Minute {
		t.Errorf("default reminder interval = %v", cfg.ReminderInterval())
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{CooldownSeconds: -5, ReminderIntervalMinutes: 0}
	if cfg.CooldownWindow() != 3*time.Second {
		t.Errorf("negative cooldown should fall back, got %v", cfg.CooldownWindow())
	}
	if cfg.ReminderInterval() != 60*time.Minute {
		t.Errorf("zero interval should fall back, got %v", cfg.ReminderInterval())
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	if got := cfg.Location(); got != time.UTC {
		t.Errorf("invalid timezone should fall back to UTC, got %v", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
bot_name: Bot Uji
prefix: "!"
cooldown_seconds: 10
admin_numbers:
  - "081234567890"
storage:
  driver: firestore
  project_id: test-project
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(path, logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BotName != "Bot Uji" || cfg.Prefix != "!" {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if cfg.CooldownSeconds != 10 {
		t.Errorf("cooldown_seconds = %d, want 10", cfg.CooldownSeconds)
	}
	if len(cfg.AdminNumbers) != 1 || cfg.AdminNumbers[0] != "081234567890" {
		t.Errorf("admin_numbers = %v", cfg.AdminNumbers)
	}
	if cfg.Storage.Driver != "firestore" || cfg.Storage.ProjectID != "test-project" {
		t.Errorf("storage section not applied: %+v", cfg.Storage)
	}
	// Untouched keys keep their defaults.
	if cfg.Timezone != "Asia/Jakarta" {
		t.Errorf("unset keys should keep defaults, timezone = %q", cfg.Timezone)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("prefix: \"!\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PREFIX", "#")
	t.Setenv("ADMIN_NUMBERS", "0811, 0822 ,")

	m := NewManager(path, logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prefix != "#" {
		t.Errorf("env should win over yaml, prefix = %q", cfg.Prefix)
	}
	if len(cfg.AdminNumbers) != 2 || cfg.AdminNumbers[1] != "0822" {
		t.Errorf("comma list should split and trim, got %v", cfg.AdminNumbers)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent.yaml"), logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("missing file should not fail Load: %v", err)
	}
	if cfg.Prefix != "." {
		t.Errorf("defaults expected, prefix = %q", cfg.Prefix)
	}
}
