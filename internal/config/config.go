// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatdesk.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.chatdesk/config.toml
//   - ~/.chatdesk/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatdesk/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// CurrentVersion is written into freshly generated config files.
const CurrentVersion = "1"

// Config represents the complete chatdesk configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Remote API settings
	API APIConfig `toml:"api" json:"api"`

	// Chat defaults applied to new exchanges
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Terminal presentation
	UI UIConfig `toml:"ui" json:"ui"`

	// Local key-value store
	Store StoreConfig `toml:"store" json:"store"`

	// Log sink
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// APIConfig configures the gateway client.
type APIConfig struct {
	// BaseURL is the API base. A stored override (chatdesk api-base) wins.
	BaseURL string `toml:"base_url" json:"base_url"`
	// DefaultBase is used when neither BaseURL nor an override is set.
	DefaultBase string `toml:"default_base" json:"default_base"`
	// UserAgent is sent on every request
	UserAgent string `toml:"user_agent" json:"user_agent"`
}

// ChatConfig holds defaults for the chat REPL and ask command.
type ChatConfig struct {
	// DefaultModel is the model key used when none is chosen
	DefaultModel string `toml:"default_model" json:"default_model"`
	// ThinkingLevel is forwarded to the server as thinking_level
	ThinkingLevel int `toml:"thinking_level" json:"thinking_level"`
	// Render is "markdown" (render when complete) or "raw" (stream text as it arrives)
	Render string `toml:"render" json:"render"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"; the stored theme toggle wins over auto
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the markdown wrap width (0 = terminal width)
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// Notifications enables toast output in the REPL
	Notifications bool `toml:"notifications" json:"notifications"`
}

// StoreConfig configures the local store.
type StoreConfig struct {
	// Path is the SQLite database file (default ~/.chatdesk/store.db)
	Path string `toml:"path" json:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level"`
	// File receives log output (default ~/.chatdesk/chatdesk.log); "stderr" logs to the terminal
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultAPIBase is the API base used when nothing else is configured.
const DefaultAPIBase = "http://localhost:5000/api"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		API: APIConfig{
			DefaultBase: DefaultAPIBase,
			UserAgent:   "chatdesk/0.1.0",
		},
		Chat: ChatConfig{
			ThinkingLevel: 0,
			Render:        "markdown",
		},
		UI: UIConfig{
			Theme:         "auto",
			Notifications: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the chatdesk configuration directory. CHATDESK_HOME
// overrides the default ~/.chatdesk.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CHATDESK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatdesk"), nil
}

// ConfigPathTOML returns the path of the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path of the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir creates the configuration directory with 0700 permissions.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// StorePath returns the resolved local store path.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "store.db"), nil
}

// LogPath returns the resolved log file path, or "stderr".
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatdesk.log"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads config.toml, falling back to config.json, then built-in
// defaults. Environment overrides, defaults and validation are applied in
// every case. A file that fails to parse is reported alongside the defaults.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	loaded := false
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
				cfg = Default()
			} else {
				loaded = true
			}
		}
	}

	if !loaded {
		if path, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				if err := LoadJSON(cfg, path); err != nil {
					loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
					cfg = Default()
				}
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

// LoadFromPath loads a config from an explicit file, choosing the decoder by
// extension. Env overrides, defaults and validation are applied.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes cfg to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML.
// SECURITY: 0600 permissions, written atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# chatdesk configuration file\n")
	buf.WriteString("# Generated by chatdesk - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors when any
// field is out of range.
func (c *Config) Validate() error {
	var errs ValidateErrors

	for field, raw := range map[string]string{
		"api.base_url":     c.API.BaseURL,
		"api.default_base": c.API.DefaultBase,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", raw),
			})
		}
	}

	if c.Chat.ThinkingLevel < 0 || c.Chat.ThinkingLevel > 10 {
		errs = append(errs, ValidationError{
			Field:   "chat.thinking_level",
			Message: fmt.Sprintf("thinking level %d out of range 0-10", c.Chat.ThinkingLevel),
		})
	}

	switch strings.ToLower(c.Chat.Render) {
	case "markdown", "raw":
	default:
		errs = append(errs, ValidationError{
			Field:   "chat.render",
			Message: fmt.Sprintf("invalid render mode '%s', must be one of: markdown, raw", c.Chat.Render),
		})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must not be negative"})
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return errs
	}
	return nil
}

// SetDefaults fills zero values left by partial config files.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.API.DefaultBase == "" {
		c.API.DefaultBase = d.API.DefaultBase
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = d.API.UserAgent
	}
	if c.Chat.Render == "" {
		c.Chat.Render = d.Chat.Render
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// ApplyEnvOverrides applies CHATDESK_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	// CHATDESK_API_BASE
	if base := os.Getenv("CHATDESK_API_BASE"); base != "" {
		c.API.BaseURL = base
	}

	// CHATDESK_MODEL
	if model := os.Getenv("CHATDESK_MODEL"); model != "" {
		c.Chat.DefaultModel = model
	}

	// CHATDESK_STORE
	if path := os.Getenv("CHATDESK_STORE"); path != "" {
		c.Store.Path = path
	}

	// CHATDESK_LOG_LEVEL
	if level := os.Getenv("CHATDESK_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}

	// NO_COLOR disables toast styling indirectly through termenv; nothing to do here.
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.default_model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's kind.
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

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
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
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				lower := strings.ToLower(strVal)
				if lower != "yes" && lower != "no" {
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
				boolVal = lower == "yes"
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns every settable key in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name, keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

// Clone creates a copy of the configuration. Config holds only value
// fields, so a struct copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON for display.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
