package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration.
//
// Sources, in order of precedence: environment variables (optionally from a
// .env file) over an optional YAML file over built-in defaults. Storage and
// transport selection are read once at startup; admin numbers, allowed
// groups, cooldown and reminder interval are re-read on config reload.
type Config struct {
	BotName  string `yaml:"bot_name"`
	Prefix   string `yaml:"prefix"`
	Timezone string `yaml:"timezone"`

	Storage  StorageConfig  `yaml:"storage"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Logging  LoggingConfig  `yaml:"logging"`

	// AdminNumbers are normalized phone numbers with bot-admin rights.
	AdminNumbers []string `yaml:"admin_numbers"`
	// AllowedGroups restricts which group JIDs the bot serves.
	// Empty means all groups are allowed.
	AllowedGroups []string `yaml:"allowed_groups"`

	CooldownSeconds         int `yaml:"cooldown_seconds"`
	ReminderIntervalMinutes int `yaml:"reminder_interval_minutes"`
}

// StorageConfig selects the persistence backend.
//
// Driver values:
//   - "file": one JSON collection file per record kind under Path
//   - "firestore": Google Cloud Firestore (falls back to "file" if the
//     connection fails at startup)
type StorageConfig struct {
	Driver          string `yaml:"driver"`
	Path            string `yaml:"path"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type WhatsAppConfig struct {
	SessionPath string `yaml:"session_path"`
	// SendPerSecond caps outbound messages. WhatsApp throttles (and
	// eventually bans) flooding senders, so keep this low.
	SendPerSecond float64 `yaml:"send_per_second"`
}

type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Console bool        `yaml:"console"`
	File    LoggingFile `yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func Default() *Config {
	cfg := &Config{
		BotName:                 "Bot Kelas SMA",
		Prefix:                  ".",
		Timezone:                "Asia/Jakarta",
		CooldownSeconds:         3,
		ReminderIntervalMinutes: 60,
	}
	cfg.Storage.Driver = "file"
	cfg.Storage.Path = "./data"
	cfg.WhatsApp.SessionPath = "./session/session.db"
	cfg.WhatsApp.SendPerSecond = 1
	cfg.Logging.Level = "info"
	cfg.Logging.Console = true
	return cfg
}

func (c *Config) CooldownWindow() time.Duration {
	if c.CooldownSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (c *Config) ReminderInterval() time.Duration {
	if c.ReminderIntervalMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.ReminderIntervalMinutes) * time.Minute
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

// applyEnv overlays environment variables onto cfg. Variable names follow
// the original deployment surface (BOT_NAME, PREFIX, ...).
func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setList := func(dst *[]string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			var out []string
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			*dst = out
		}
	}

	setStr(&cfg.BotName, "BOT_NAME")
	setStr(&cfg.Prefix, "PREFIX")
	setStr(&cfg.Timezone, "TIMEZONE")
	setStr(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setStr(&cfg.Storage.Path, "DATA_PATH")
	setStr(&cfg.Storage.ProjectID, "FIRESTORE_PROJECT_ID")
	setStr(&cfg.Storage.CredentialsFile, "FIREBASE_CREDENTIALS_PATH")
	setStr(&cfg.WhatsApp.SessionPath, "SESSION_PATH")
	setStr(&cfg.Logging.Level, "LOG_LEVEL")
	setList(&cfg.AdminNumbers, "ADMIN_NUMBERS")
	setList(&cfg.AllowedGroups, "ALLOWED_GROUPS")
	setInt(&cfg.CooldownSeconds, "COOLDOWN_SECONDS")
	setInt(&cfg.ReminderIntervalMinutes, "REMINDER_INTERVAL_MINUTES")
}
