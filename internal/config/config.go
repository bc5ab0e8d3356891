package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ashwch/vterm/internal/appdirs"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

type ShellConfig struct {
	TimeoutSeconds float64 `toml:"timeout_seconds" json:"timeout_seconds"`
	Program        string  `toml:"program,omitempty" json:"program,omitempty"`
	StartDir       string  `toml:"start_dir,omitempty" json:"start_dir,omitempty"`
}

type SafetyConfig struct {
	ConfirmHighRisk bool `toml:"confirm_high_risk" json:"confirm_high_risk"`
	BlockHighRisk   bool `toml:"block_high_risk" json:"block_high_risk"`
	RedactHistory   bool `toml:"redact_history" json:"redact_history"`
}

type UIConfig struct {
	Backend        string `toml:"backend" json:"backend"`
	ShowNormalized bool   `toml:"show_normalized" json:"show_normalized"`
}

type ServerConfig struct {
	Addr              string `toml:"addr" json:"addr"`
	SessionTTLMinutes int    `toml:"session_ttl_minutes" json:"session_ttl_minutes"`
}

type HistoryConfig struct {
	Enabled    bool `toml:"enabled" json:"enabled"`
	MaxEntries int  `toml:"max_entries" json:"max_entries"`
}

type LogConfig struct {
	Level string `toml:"level" json:"level"`
	JSON  bool   `toml:"json" json:"json"`
}

type Config struct {
	Version int           `toml:"version" json:"version"`
	Shell   ShellConfig   `toml:"shell" json:"shell"`
	Safety  SafetyConfig  `toml:"safety" json:"safety"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Server  ServerConfig  `toml:"server" json:"server"`
	History HistoryConfig `toml:"history" json:"history"`
	Log     LogConfig     `toml:"log" json:"log"`
}

func Default() Config {
	return Config{
		Version: 1,
		Shell: ShellConfig{
			TimeoutSeconds: 10,
		},
		Safety: SafetyConfig{
			ConfirmHighRisk: true,
			BlockHighRisk:   true,
			RedactHistory:   true,
		},
		UI: UIConfig{
			Backend:        "auto",
			ShowNormalized: true,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:5000",
			SessionTTLMinutes: 60,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Timeout is the passthrough execution bound.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Shell.TimeoutSeconds * float64(time.Second))
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Server.SessionTTLMinutes) * time.Minute
}

// LoadOrCreate reads the config at the default path, writing defaults there
// on first run.
func LoadOrCreate() (Config, string, error) {
	path, err := appdirs.ConfigFilePath()
	if err != nil {
		return Config{}, "", err
	}

	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := appdirs.EnsureConfigDir(); err != nil {
			return Config{}, "", err
		}
		if err := Save(path, cfg); err != nil {
			return Config{}, "", err
		}
		return cfg, path, nil
	} else if err != nil {
		return Config{}, "", fmt.Errorf("could not stat config path: %w", err)
	}

	cfg, err = Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// Load reads an existing config file. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config file: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func Save(path string, cfg Config) error {
	cfg.normalize()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}
	tempFile, err := os.CreateTemp(dir, ".vterm-config-*.toml")
	if err != nil {
		return fmt.Errorf("could not create temp config file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}

	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not write temp config file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not secure temp config file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("could not close temp config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("could not atomically replace config file: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()
	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Shell.TimeoutSeconds <= 0 {
		c.Shell.TimeoutSeconds = defaults.Shell.TimeoutSeconds
	}
	c.Shell.Program = strings.TrimSpace(c.Shell.Program)
	c.Shell.StartDir = strings.TrimSpace(c.Shell.StartDir)
	c.UI.Backend = normalizeUIBackend(c.UI.Backend, defaults.UI.Backend)
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.SessionTTLMinutes <= 0 {
		c.Server.SessionTTLMinutes = defaults.Server.SessionTTLMinutes
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = defaults.History.MaxEntries
	}
	c.Log.Level = normalizeLogLevel(c.Log.Level, defaults.Log.Level)
}

// Keys lists every settable dotted key.
func Keys() []string {
	return []string{
		"shell.timeout_seconds",
		"shell.program",
		"shell.start_dir",
		"safety.confirm_high_risk",
		"safety.block_high_risk",
		"safety.redact_history",
		"ui.backend",
		"ui.show_normalized",
		"server.addr",
		"server.session_ttl_minutes",
		"history.enabled",
		"history.max_entries",
		"log.level",
		"log.json",
	}
}

func (c *Config) Set(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	switch key {
	case "shell.timeout_seconds":
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("shell.timeout_seconds must be a positive number")
		}
		c.Shell.TimeoutSeconds = seconds
	case "shell.program":
		c.Shell.Program = value
	case "shell.start_dir":
		c.Shell.StartDir = value
	case "safety.confirm_high_risk":
		return setBool(&c.Safety.ConfirmHighRisk, key, value)
	case "safety.block_high_risk":
		return setBool(&c.Safety.BlockHighRisk, key, value)
	case "safety.redact_history":
		return setBool(&c.Safety.RedactHistory, key, value)
	case "ui.backend":
		backend := normalizeUIBackend(value, "")
		if backend == "" {
			return fmt.Errorf("ui.backend must be one of: auto, bubbletea, huh, tview, plain")
		}
		c.UI.Backend = backend
	case "ui.show_normalized":
		return setBool(&c.UI.ShowNormalized, key, value)
	case "server.addr":
		if value == "" {
			return fmt.Errorf("server.addr cannot be empty")
		}
		c.Server.Addr = value
	case "server.session_ttl_minutes":
		return setPositiveInt(&c.Server.SessionTTLMinutes, key, value)
	case "history.enabled":
		return setBool(&c.History.Enabled, key, value)
	case "history.max_entries":
		return setPositiveInt(&c.History.MaxEntries, key, value)
	case "log.level":
		level := normalizeLogLevel(value, "")
		if level == "" {
			return fmt.Errorf("log.level must be one of: debug, info, warn, error")
		}
		c.Log.Level = level
	case "log.json":
		return setBool(&c.Log.JSON, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func (c Config) Get(key string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(key)) {
	case "shell.timeout_seconds":
		return strconv.FormatFloat(c.Shell.TimeoutSeconds, 'g', -1, 64), nil
	case "shell.program":
		return c.Shell.Program, nil
	case "shell.start_dir":
		return c.Shell.StartDir, nil
	case "safety.confirm_high_risk":
		return strconv.FormatBool(c.Safety.ConfirmHighRisk), nil
	case "safety.block_high_risk":
		return strconv.FormatBool(c.Safety.BlockHighRisk), nil
	case "safety.redact_history":
		return strconv.FormatBool(c.Safety.RedactHistory), nil
	case "ui.backend":
		return c.UI.Backend, nil
	case "ui.show_normalized":
		return strconv.FormatBool(c.UI.ShowNormalized), nil
	case "server.addr":
		return c.Server.Addr, nil
	case "server.session_ttl_minutes":
		return strconv.Itoa(c.Server.SessionTTLMinutes), nil
	case "history.enabled":
		return strconv.FormatBool(c.History.Enabled), nil
	case "history.max_entries":
		return strconv.Itoa(c.History.MaxEntries), nil
	case "log.level":
		return c.Log.Level, nil
	case "log.json":
		return strconv.FormatBool(c.Log.JSON), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// NewViper returns a viper instance that resolves every config key from
// VTERM_* environment variables (dots become underscores).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("VTERM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range Keys() {
		_ = v.BindEnv(key)
	}
	return v
}

// ApplyOverrides layers values set in v (env vars or bound flags) over the
// file config.
func (c *Config) ApplyOverrides(v *viper.Viper) error {
	if v == nil {
		return nil
	}
	for _, key := range Keys() {
		if !v.IsSet(key) {
			continue
		}
		if err := c.Set(key, v.GetString(key)); err != nil {
			return fmt.Errorf("invalid override for %s: %w", key, err)
		}
	}
	c.normalize()
	return nil
}

func setBool(target *bool, key, value string) error {
	b, err := parseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be boolean", key)
	}
	*target = b
	return nil
}

func setPositiveInt(target *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s must be a positive integer", key)
	}
	*target = n
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %s", value)
	}
}

func normalizeUIBackend(value string, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "auto", "bubbletea", "huh", "tview", "plain":
		return strings.ToLower(strings.TrimSpace(value))
	default:
		return fallback
	}
}

func normalizeLogLevel(value string, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug", "info", "warn", "error":
		return strings.ToLower(strings.TrimSpace(value))
	case "warning":
		return "warn"
	default:
		return fallback
	}
}
