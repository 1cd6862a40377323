package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/Tiliavir/study-time-tracker/internal/model"
)

// Config is the root configuration for stt, stored in ~/.stt/config.json.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Module   ModuleConfig   `mapstructure:"module"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Outlook  OutlookConfig  `mapstructure:"outlook"`

	settings *Settings
}

// DataConfig locates the study document.
type DataConfig struct {
	// LastUsedFile is rewritten whenever a study is imported or exported.
	LastUsedFile string `mapstructure:"last_used_file"`
	DefaultFile  string `mapstructure:"default_file"`
}

// ModuleConfig holds the defaults for modules created implicitly.
type ModuleConfig struct {
	ECTS          int `mapstructure:"ects"`
	DurationWeeks int `mapstructure:"duration_weeks"`
}

// TrackingConfig tunes the running session.
type TrackingConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig selects level and output format of the logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `mapstructure:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `mapstructure:"client_id"`
	// Semester and Module receive the imported events.
	Semester string `mapstructure:"semester"`
	Module   string `mapstructure:"module"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `mapstructure:"timezone"`
}

const (
	// DefaultPath is the config file used when --config is not given.
	DefaultPath = "~/.stt/config.json"

	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID. It supports
	// the device code flow without a client secret.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultMeetings names the semester and module of imported events.
	DefaultMeetings = "Meetings"

	// KeyLastUsedFile is the settings key of the most recently used study file.
	KeyLastUsedFile = "data.last_used_file"
)

// Load reads the config file at path (DefaultPath when empty), applies
// defaults and STT_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	v.SetEnvPrefix("STT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		// Config file not found, use defaults and environment variables
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := normalize(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	settings, err := readSettings(path)
	if err != nil {
		return nil, err
	}
	cfg.settings = settings
	return &cfg, nil
}

// readSettings loads only the keys stored in the file at path, without
// defaults or environment overrides, so that Set writes back nothing else.
func readSettings(path string) (*Settings, error) {
	s := NewSettings(path)
	s.v.SetConfigFile(path)
	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.last_used_file", "")
	v.SetDefault("data.default_file", "~/.stt/study.json")

	v.SetDefault("module.ects", model.DefaultModuleDefaults.ECTS)
	v.SetDefault("module.duration_weeks", model.DefaultModuleDefaults.DurationWeeks)

	v.SetDefault("tracking.interval", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("outlook.tenant_id", DefaultTenantID)
	v.SetDefault("outlook.client_id", DefaultClientID)
	v.SetDefault("outlook.semester", DefaultMeetings)
	v.SetDefault("outlook.module", DefaultMeetings)
	v.SetDefault("outlook.timezone", "")
}

func normalize(cfg *Config) error {
	var err error
	if cfg.Data.DefaultFile, err = homedir.Expand(cfg.Data.DefaultFile); err != nil {
		return fmt.Errorf("data.default_file: %w", err)
	}
	if cfg.Data.LastUsedFile, err = homedir.Expand(cfg.Data.LastUsedFile); err != nil {
		return fmt.Errorf("data.last_used_file: %w", err)
	}
	if cfg.Module.ECTS < 0 {
		return fmt.Errorf("module.ects must not be negative: %d", cfg.Module.ECTS)
	}
	if cfg.Module.DurationWeeks < 0 {
		return fmt.Errorf("module.duration_weeks must not be negative: %d", cfg.Module.DurationWeeks)
	}
	if cfg.Tracking.Interval <= 0 {
		return fmt.Errorf("tracking.interval must be positive: %s", cfg.Tracking.Interval)
	}
	return nil
}

// Settings returns the key/value store backed by the loaded config file.
func (c *Config) Settings() *Settings {
	return c.settings
}

// ModuleDefaults converts the module section for the entity layer.
func (c *Config) ModuleDefaults() model.ModuleDefaults {
	return model.ModuleDefaults{ECTS: c.Module.ECTS, DurationWeeks: c.Module.DurationWeeks}
}

// StudyFile returns the study document to use: the last used file when one
// is recorded, the default file otherwise.
func (c *Config) StudyFile() string {
	if f := c.settings.LastUsedFile(); f != "" {
		return f
	}
	if c.Data.LastUsedFile != "" {
		return c.Data.LastUsedFile
	}
	return c.Data.DefaultFile
}

// Settings is a persistent key/value store. Every Set writes the config
// file.
type Settings struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewSettings returns a store writing to path without reading it first.
func NewSettings(path string) *Settings {
	v := viper.New()
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	return &Settings{v: v, path: path}
}

// Path returns the file the settings are written to.
func (s *Settings) Path() string {
	return s.path
}

// Get returns the value stored under key, or def when the key is unset.
func (s *Settings) Get(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.Get(key)
}

// Set stores value under key and persists the file.
func (s *Settings) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config file %s: %w", s.path, err)
	}
	return nil
}

// LastUsedFile returns the most recently imported or exported study file.
func (s *Settings) LastUsedFile() string {
	f, _ := s.Get(KeyLastUsedFile, "").(string)
	return f
}

// SetLastUsedFile records path as the most recently used study file.
func (s *Settings) SetLastUsedFile(path string) error {
	return s.Set(KeyLastUsedFile, path)
}
