// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tutorcito.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/reply"
	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tutorcito configuration.
type Config struct {
	Version string `toml:"version"`

	Reply ReplyConfig `toml:"reply"`
	UI    UIConfig    `toml:"ui"`
	Log   LogConfig   `toml:"log"`
	Seed  SeedConfig  `toml:"seed"`
}

// ReplyConfig controls the simulated assistant.
type ReplyConfig struct {
	// DelayMs is the pause before each reply in milliseconds
	DelayMs int `toml:"delay_ms"`

	// Content is the placeholder reply text
	Content string `toml:"content"`

	// RatePerSecond caps replies across sessions (0 = unlimited)
	RatePerSecond float64 `toml:"rate_per_second"`

	// Burst is the rate limiter bucket size
	Burst int `toml:"burst"`

	// TimeoutMs bounds each reply, delay included (0 = no limit).
	// Read at startup only.
	TimeoutMs int `toml:"timeout_ms"`
}

// Delay returns DelayMs as a duration.
func (r ReplyConfig) Delay() time.Duration {
	return time.Duration(r.DelayMs) * time.Millisecond
}

// Timeout returns TimeoutMs as a duration.
func (r ReplyConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Locale is a BCP 47 tag used for time formatting
	Locale string `toml:"locale"`

	// Timezone is an IANA zone name or "Local"
	Timezone string `toml:"timezone"`

	// Theme is "dark" or "light"
	Theme string `toml:"theme"`

	// AssistantName is shown above assistant messages
	AssistantName string `toml:"assistant_name"`

	// NewSessionTitle is used when a session is created without a title
	NewSessionTitle string `toml:"new_session_title"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level"`

	// Path is the log file ("" = temp dir)
	Path string `toml:"path"`
}

// SeedConfig describes the sessions created when an interface starts.
type SeedConfig struct {
	Enabled  bool          `toml:"enabled"`
	Welcome  string        `toml:"welcome"`
	Sessions []SeedSession `toml:"sessions"`
}

// SeedSession is one starting conversation.
type SeedSession struct {
	Title string `toml:"title"`
}

// Titles returns the seed session titles in order.
func (s SeedConfig) Titles() []string {
	titles := make([]string, 0, len(s.Sessions))
	for _, sess := range s.Sessions {
		titles = append(titles, sess.Title)
	}
	return titles
}

// DefaultWelcome greets the user in every seeded session.
const DefaultWelcome = "¡Hola! Soy tu asistente de programación. ¿En qué puedo ayudarte hoy?"

// DefaultNewSessionTitle is the title of sessions created from the UI.
const DefaultNewSessionTitle = "Nueva conversación"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Reply: ReplyConfig{
			DelayMs: int(reply.DefaultDelay / time.Millisecond),
			Content: reply.DefaultContent,
			Burst:   1,
		},
		UI: UIConfig{
			Locale:          util.DefaultLocale,
			Timezone:        "Local",
			Theme:           "dark",
			AssistantName:   "Tutorcito",
			NewSessionTitle: DefaultNewSessionTitle,
		},
		Log: LogConfig{
			Level: "info",
		},
		Seed: SeedConfig{
			Enabled: true,
			Welcome: DefaultWelcome,
			Sessions: []SeedSession{
				{Title: "Aprendiendo Python"},
				{Title: "React Hooks"},
				{Title: "Algoritmos de ordenamiento"},
			},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tutorcito configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tutorcito"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.tutorcito/config.toml if it exists, otherwise the
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg and fills in missing values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logger.Component("config").Warn("unknown config keys ignored", "path", path, "keys", fmt.Sprint(undecoded))
	}
	fillDefaults(cfg, md)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in values the file left out. Keys that are present
// keep their value even when it is a zero value.
func fillDefaults(cfg *Config, md toml.MetaData) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Reply
	if !md.IsDefined("reply", "delay_ms") {
		cfg.Reply.DelayMs = defaults.Reply.DelayMs
	}
	if cfg.Reply.Content == "" {
		cfg.Reply.Content = defaults.Reply.Content
	}
	if cfg.Reply.Burst == 0 {
		cfg.Reply.Burst = defaults.Reply.Burst
	}

	// UI
	if cfg.UI.Locale == "" {
		cfg.UI.Locale = defaults.UI.Locale
	}
	if cfg.UI.Timezone == "" {
		cfg.UI.Timezone = defaults.UI.Timezone
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.AssistantName == "" {
		cfg.UI.AssistantName = defaults.UI.AssistantName
	}
	if cfg.UI.NewSessionTitle == "" {
		cfg.UI.NewSessionTitle = defaults.UI.NewSessionTitle
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	// Seed
	if !md.IsDefined("seed", "enabled") {
		cfg.Seed.Enabled = defaults.Seed.Enabled
	}
	if !md.IsDefined("seed", "welcome") {
		cfg.Seed.Welcome = defaults.Seed.Welcome
	}
	if !md.IsDefined("seed", "sessions") {
		cfg.Seed.Sessions = defaults.Seed.Sessions
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# tutorcito configuration file")
	fmt.Fprintln(&buf, "# Generated by tutorcito - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Reply Settings
	// ==========================================================================

	if c.Reply.DelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "reply.delay_ms",
			Message: "cannot be negative",
		})
	}
	if c.Reply.DelayMs > 600000 {
		errs = append(errs, ValidationError{
			Field:   "reply.delay_ms",
			Message: fmt.Sprintf("%d ms is longer than 10 minutes", c.Reply.DelayMs),
		})
	}
	if strings.TrimSpace(c.Reply.Content) == "" {
		errs = append(errs, ValidationError{
			Field:   "reply.content",
			Message: "cannot be empty",
		})
	}
	if c.Reply.RatePerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "reply.rate_per_second",
			Message: "cannot be negative",
		})
	}
	if c.Reply.Burst < 1 {
		errs = append(errs, ValidationError{
			Field:   "reply.burst",
			Message: "must be at least 1",
		})
	}
	if c.Reply.TimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "reply.timeout_ms",
			Message: "cannot be negative",
		})
	} else if c.Reply.TimeoutMs > 0 && c.Reply.TimeoutMs <= c.Reply.DelayMs {
		errs = append(errs, ValidationError{
			Field:   "reply.timeout_ms",
			Message: fmt.Sprintf("%d ms does not leave room for the %d ms delay", c.Reply.TimeoutMs, c.Reply.DelayMs),
		})
	}

	// ==========================================================================
	// UI Settings
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		})
	}
	if _, err := util.LoadLocation(c.UI.Timezone); err != nil {
		errs = append(errs, ValidationError{
			Field:   "ui.timezone",
			Message: fmt.Sprintf("unknown timezone '%s'", c.UI.Timezone),
		})
	}

	// ==========================================================================
	// Log Settings
	// ==========================================================================

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	// ==========================================================================
	// Seed Settings
	// ==========================================================================

	for i, sess := range c.Seed.Sessions {
		if strings.TrimSpace(sess.Title) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("seed.sessions[%d].title", i),
				Message: "cannot be empty",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported variables:
//   - TUTORCITO_REPLY_DELAY_MS: overrides reply.delay_ms
//   - TUTORCITO_REPLY_CONTENT: overrides reply.content
//   - TUTORCITO_LOCALE: overrides ui.locale
//   - TUTORCITO_TIMEZONE: overrides ui.timezone
//   - TUTORCITO_THEME: overrides ui.theme
//   - TUTORCITO_LOG_LEVEL: overrides log.level
//   - TUTORCITO_LOG_PATH: overrides log.path
//   - TUTORCITO_NO_SEED: disables seed sessions when "1" or "true"
func (c *Config) ApplyEnvOverrides() {
	if delay := os.Getenv("TUTORCITO_REPLY_DELAY_MS"); delay != "" {
		if ms, err := strconv.Atoi(delay); err == nil {
			c.Reply.DelayMs = ms
		}
	}
	if content := os.Getenv("TUTORCITO_REPLY_CONTENT"); content != "" {
		c.Reply.Content = content
	}
	if locale := os.Getenv("TUTORCITO_LOCALE"); locale != "" {
		c.UI.Locale = locale
	}
	if tz := os.Getenv("TUTORCITO_TIMEZONE"); tz != "" {
		c.UI.Timezone = tz
	}
	if theme := os.Getenv("TUTORCITO_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if level := os.Getenv("TUTORCITO_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if path := os.Getenv("TUTORCITO_LOG_PATH"); path != "" {
		c.Log.Path = path
	}
	if noSeed := os.Getenv("TUTORCITO_NO_SEED"); noSeed != "" {
		if noSeed == "1" || strings.ToLower(noSeed) == "true" {
			c.Seed.Enabled = false
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "reply.delay_ms").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct by TOML key names.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLName(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// fieldByTOMLName finds a struct field by its toml tag.
func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all scalar configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"reply.delay_ms",
		"reply.content",
		"reply.rate_per_second",
		"reply.burst",
		"reply.timeout_ms",
		"ui.locale",
		"ui.timezone",
		"ui.theme",
		"ui.assistant_name",
		"ui.new_session_title",
		"log.level",
		"log.path",
		"seed.enabled",
		"seed.welcome",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Seed.Sessions = append([]SeedSession(nil), c.Seed.Sessions...)
	return &clone
}
