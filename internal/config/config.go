// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

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
	"strconv"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/chetna-wellness/chetna/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chetna configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Chat    ChatConfig    `toml:"chat" json:"chat"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Records RecordsConfig `toml:"records" json:"records"`
	AI      AIConfig      `toml:"ai" json:"ai"`
	Speech  SpeechConfig  `toml:"speech" json:"speech"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	User    UserConfig    `toml:"user" json:"user"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// ChatConfig holds the product constants of the conversation.
type ChatConfig struct {
	// GuestMessageLimit is how many messages a guest may send.
	GuestMessageLimit int `toml:"guest_message_limit" json:"guest_message_limit"`
	// ExpiryMinutes is the fixed auto-clear period.
	ExpiryMinutes int `toml:"expiry_minutes" json:"expiry_minutes"`
	// Pacing shapes the delay before replies: clamp(chars*per_char, min, max).
	PacingPerCharMs int `toml:"pacing_per_char_ms" json:"pacing_per_char_ms"`
	PacingMinMs     int `toml:"pacing_min_ms" json:"pacing_min_ms"`
	PacingMaxMs     int `toml:"pacing_max_ms" json:"pacing_max_ms"`
	// FallbackDelayMs is the wait before a canned reply after an AI failure.
	FallbackDelayMs int `toml:"fallback_delay_ms" json:"fallback_delay_ms"`
	// AutoSubmitDelayMs is the wait before voice results and suggestions are sent.
	AutoSubmitDelayMs int `toml:"auto_submit_delay_ms" json:"auto_submit_delay_ms"`
	// RecentResultsLimit caps the self-assessment results used for personalization.
	RecentResultsLimit int `toml:"recent_results_limit" json:"recent_results_limit"`
	// Language is the UI language (BCP 47, e.g. "en", "hi").
	Language string `toml:"language" json:"language"`
}

// StorageConfig selects the local key-value store.
type StorageConfig struct {
	// Backend is "file", "pebble" or "memory".
	Backend string `toml:"backend" json:"backend"`
	// Dir is the data directory (empty = ~/.chetna/data).
	Dir string `toml:"dir" json:"dir"`
}

// RecordsConfig configures the conversation and assessment database.
type RecordsConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the SQLite file (empty = ~/.chetna/records.db).
	Path string `toml:"path" json:"path"`
}

// AIConfig configures the reply generator.
type AIConfig struct {
	// Provider is "ollama" or "static" (keyword replies only).
	Provider          string  `toml:"provider" json:"provider"`
	OllamaURL         string  `toml:"ollama_url" json:"ollama_url"`
	Model             string  `toml:"model" json:"model"`
	Temperature       float64 `toml:"temperature" json:"temperature"`
	TimeoutSecs       int     `toml:"timeout_secs" json:"timeout_secs"`
	KeepAlive         string  `toml:"keep_alive" json:"keep_alive"`
	HistoryMessages   int     `toml:"history_messages" json:"history_messages"`
	RequestsPerMinute int     `toml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int     `toml:"burst" json:"burst"`
}

// SpeechConfig configures spoken output and voice input.
type SpeechConfig struct {
	// Text to speech
	TTSURL    string `toml:"tts_url" json:"tts_url"`
	TTSAPIKey string `toml:"tts_api_key" json:"tts_api_key"`
	Voice     string `toml:"voice" json:"voice"`
	Format    string `toml:"format" json:"format"`
	// PlayerCommand overrides player detection (e.g. "mpv").
	PlayerCommand string   `toml:"player_command" json:"player_command"`
	PlayerArgs    []string `toml:"player_args" json:"player_args"`

	// Speech to text
	STTURL    string `toml:"stt_url" json:"stt_url"`
	STTAPIKey string `toml:"stt_api_key" json:"stt_api_key"`
	STTModel  string `toml:"stt_model" json:"stt_model"`
	// RecorderCommand overrides recorder detection (e.g. "arecord").
	RecorderCommand string   `toml:"recorder_command" json:"recorder_command"`
	RecorderArgs    []string `toml:"recorder_args" json:"recorder_args"`
	MaxRecordSecs   int      `toml:"max_record_secs" json:"max_record_secs"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `toml:"level" json:"level"`
	// Format is "auto", "console" or "json".
	Format string `toml:"format" json:"format"`
	// File receives logs instead of stderr when set.
	File string `toml:"file" json:"file"`
}

// UserConfig signs a user in at startup when Name is set.
type UserConfig struct {
	ID    string `toml:"id" json:"id"`
	Name  string `toml:"name" json:"name"`
	Email string `toml:"email" json:"email"`
}

// MetricsConfig enables the Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

// UIConfig configures the layouts.
type UIConfig struct {
	// Mode is "auto", "tui" or "line".
	Mode           string `toml:"mode" json:"mode"`
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Chat: ChatConfig{
			GuestMessageLimit:  5,
			ExpiryMinutes:      20,
			PacingPerCharMs:    20,
			PacingMinMs:        800,
			PacingMaxMs:        2000,
			FallbackDelayMs:    1000,
			AutoSubmitDelayMs:  500,
			RecentResultsLimit: 5,
			Language:           "en",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Records: RecordsConfig{
			Enabled: true,
		},
		AI: AIConfig{
			Provider:          "ollama",
			OllamaURL:         "http://127.0.0.1:11434",
			Model:             "llama3.2:3b",
			Temperature:       0.7,
			TimeoutSecs:       45,
			KeepAlive:         "10m",
			HistoryMessages:   6,
			RequestsPerMinute: 20,
			Burst:             5,
		},
		Speech: SpeechConfig{
			Format:        "mp3",
			STTModel:      "whisper-1",
			MaxRecordSecs: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		UI: UIConfig{
			Mode:           "auto",
			ShowTimestamps: true,
		},
	}
}

// Durations of the chat section.
func (c ChatConfig) ExpiryInterval() time.Duration {
	return time.Duration(c.ExpiryMinutes) * time.Minute
}

func (c ChatConfig) PacingPerChar() time.Duration {
	return time.Duration(c.PacingPerCharMs) * time.Millisecond
}

func (c ChatConfig) PacingMin() time.Duration {
	return time.Duration(c.PacingMinMs) * time.Millisecond
}

func (c ChatConfig) PacingMax() time.Duration {
	return time.Duration(c.PacingMaxMs) * time.Millisecond
}

func (c ChatConfig) FallbackDelay() time.Duration {
	return time.Duration(c.FallbackDelayMs) * time.Millisecond
}

func (c ChatConfig) AutoSubmitDelay() time.Duration {
	return time.Duration(c.AutoSubmitDelayMs) * time.Millisecond
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir is $CHETNA_HOME, or ~/.chetna.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CHETNA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chetna"), nil
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML is the default config file.
func ConfigPathTOML() (string, error) { return inConfigDir("config.toml") }

// ConfigPathJSON is read when no TOML file exists.
func ConfigPathJSON() (string, error) { return inConfigDir("config.json") }

// EnsureConfigDir creates the config directory, private to the user.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, util.PrivateDirPerm)
}

// DataDir returns the key-value data directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return inConfigDir("data")
}

// RecordsPath returns the SQLite records file.
func (c *Config) RecordsPath() (string, error) {
	if c.Records.Path != "" {
		return c.Records.Path, nil
	}
	return inConfigDir("records.db")
}

// restrictMode makes a config file owner-only. It may hold speech API keys.
func restrictMode(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() == 0600 {
		return nil
	}
	return os.Chmod(path, 0600)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads config.toml, else config.json, else uses defaults. .env files
// are loaded first so their variables can override file values.
func Load() (*Config, error) {
	LoadDotEnv()

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		if path, err := pathFn(); err == nil && fileExists(path) {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadDotEnv loads ./.env and <config dir>/.env into the process
// environment. Existing variables win; missing files are ignored.
func LoadDotEnv() {
	paths := []string{".env"}
	if p, err := inConfigDir(".env"); err == nil {
		paths = append(paths, p)
	}
	for _, p := range paths {
		if fileExists(p) {
			_ = godotenv.Load(p)
		}
	}
}

// LoadFromPath decodes path over the defaults, applies the environment and
// validates. A .json suffix selects JSON; anything else is TOML.
func LoadFromPath(path string) (*Config, error) {
	if err := restrictMode(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "chetna: could not restrict permissions on %s: %v\n", path, err)
	}

	cfg := Default()
	var err error
	if isJSON(path) {
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			err = json.Unmarshal(data, cfg)
		}
	} else {
		_, err = toml.DecodeFile(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// =============================================================================
// SAVING
// =============================================================================

const tomlHeader = "# chetna configuration\n# Written by `chetna config set`; comments are not preserved.\n\n"

// Save writes cfg to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML atomically writes cfg as TOML, owner-only.
func SaveTOML(cfg *Config, path string) error {
	buf := bytes.NewBufferString(tomlHeader)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return writeConfig(path, buf.Bytes())
}

// SaveJSON atomically writes cfg as indented JSON, owner-only.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return writeConfig(path, data)
}

func writeConfig(path string, data []byte) error {
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
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

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Chat
	if c.Chat.GuestMessageLimit < 1 {
		add("chat.guest_message_limit", "must be at least 1, got %d", c.Chat.GuestMessageLimit)
	}
	if c.Chat.ExpiryMinutes < 1 || c.Chat.ExpiryMinutes > 24*60 {
		add("chat.expiry_minutes", "must be between 1 and 1440, got %d", c.Chat.ExpiryMinutes)
	}
	if c.Chat.PacingPerCharMs < 0 {
		add("chat.pacing_per_char_ms", "must not be negative")
	}
	if c.Chat.PacingMinMs < 0 || c.Chat.PacingMaxMs < c.Chat.PacingMinMs {
		add("chat.pacing_max_ms", "must be >= pacing_min_ms (%d), got %d", c.Chat.PacingMinMs, c.Chat.PacingMaxMs)
	}
	if c.Chat.PacingMaxMs > 60000 {
		add("chat.pacing_max_ms", "must be at most 60000, got %d", c.Chat.PacingMaxMs)
	}
	if c.Chat.FallbackDelayMs < 0 {
		add("chat.fallback_delay_ms", "must not be negative")
	}
	if c.Chat.AutoSubmitDelayMs < 0 {
		add("chat.auto_submit_delay_ms", "must not be negative")
	}
	if c.Chat.RecentResultsLimit < 1 || c.Chat.RecentResultsLimit > 50 {
		add("chat.recent_results_limit", "must be between 1 and 50, got %d", c.Chat.RecentResultsLimit)
	}
	if _, err := language.Parse(c.Chat.Language); err != nil {
		add("chat.language", "invalid language tag '%s'", c.Chat.Language)
	}

	// Storage
	switch strings.ToLower(c.Storage.Backend) {
	case "file", "pebble", "memory":
	default:
		add("storage.backend", "invalid backend '%s', must be one of: file, pebble, memory", c.Storage.Backend)
	}

	// AI
	switch strings.ToLower(c.AI.Provider) {
	case "ollama":
		if err := validateURL(c.AI.OllamaURL); err != nil {
			add("ai.ollama_url", "%v", err)
		}
		if strings.TrimSpace(c.AI.Model) == "" {
			add("ai.model", "required when provider is ollama")
		}
	case "static":
	default:
		add("ai.provider", "invalid provider '%s', must be one of: ollama, static", c.AI.Provider)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		add("ai.temperature", "must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.TimeoutSecs < 1 || c.AI.TimeoutSecs > 600 {
		add("ai.timeout_secs", "must be between 1 and 600, got %d", c.AI.TimeoutSecs)
	}
	if c.AI.RequestsPerMinute < 0 {
		add("ai.requests_per_minute", "must not be negative")
	}

	// Speech
	if c.Speech.TTSURL != "" {
		if err := validateURL(c.Speech.TTSURL); err != nil {
			add("speech.tts_url", "%v", err)
		}
	}
	if c.Speech.STTURL != "" {
		if err := validateURL(c.Speech.STTURL); err != nil {
			add("speech.stt_url", "%v", err)
		}
	}
	if c.Speech.MaxRecordSecs < 1 || c.Speech.MaxRecordSecs > 120 {
		add("speech.max_record_secs", "must be between 1 and 120, got %d", c.Speech.MaxRecordSecs)
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		add("logging.level", "invalid level '%s', must be one of: trace, debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "auto", "console", "json":
	default:
		add("logging.format", "invalid format '%s', must be one of: auto, console, json", c.Logging.Format)
	}

	// UI
	switch strings.ToLower(c.UI.Mode) {
	case "auto", "tui", "line":
	default:
		add("ui.mode", "invalid mode '%s', must be one of: auto, tui, line", c.UI.Mode)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL '%s' must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL '%s' has no host", raw)
	}
	return nil
}

// SetDefaults fills empty or zero fields from Default.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Chat.GuestMessageLimit == 0 {
		c.Chat.GuestMessageLimit = d.Chat.GuestMessageLimit
	}
	if c.Chat.ExpiryMinutes == 0 {
		c.Chat.ExpiryMinutes = d.Chat.ExpiryMinutes
	}
	if c.Chat.PacingPerCharMs == 0 {
		c.Chat.PacingPerCharMs = d.Chat.PacingPerCharMs
	}
	if c.Chat.PacingMinMs == 0 {
		c.Chat.PacingMinMs = d.Chat.PacingMinMs
	}
	if c.Chat.PacingMaxMs == 0 {
		c.Chat.PacingMaxMs = d.Chat.PacingMaxMs
	}
	if c.Chat.RecentResultsLimit == 0 {
		c.Chat.RecentResultsLimit = d.Chat.RecentResultsLimit
	}
	if c.Chat.Language == "" {
		c.Chat.Language = d.Chat.Language
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.AI.Provider == "" {
		c.AI.Provider = d.AI.Provider
	}
	if c.AI.OllamaURL == "" {
		c.AI.OllamaURL = d.AI.OllamaURL
	}
	if c.AI.Model == "" {
		c.AI.Model = d.AI.Model
	}
	if c.AI.TimeoutSecs == 0 {
		c.AI.TimeoutSecs = d.AI.TimeoutSecs
	}
	if c.AI.HistoryMessages == 0 {
		c.AI.HistoryMessages = d.AI.HistoryMessages
	}
	if c.Speech.MaxRecordSecs == 0 {
		c.Speech.MaxRecordSecs = d.Speech.MaxRecordSecs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.UI.Mode == "" {
		c.UI.Mode = d.UI.Mode
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHETNA_LANGUAGE: chat.language
//   - CHETNA_GUEST_LIMIT: chat.guest_message_limit
//   - CHETNA_STORAGE: storage.backend
//   - CHETNA_DATA_DIR: storage.dir
//   - CHETNA_RECORDS_PATH: records.path
//   - CHETNA_AI_PROVIDER: ai.provider
//   - CHETNA_OLLAMA_URL: ai.ollama_url
//   - CHETNA_MODEL: ai.model
//   - CHETNA_TTS_URL, CHETNA_TTS_API_KEY: speech.tts_url, speech.tts_api_key
//   - CHETNA_STT_URL, CHETNA_STT_API_KEY: speech.stt_url, speech.stt_api_key
//   - CHETNA_LOG_LEVEL: logging.level
//   - CHETNA_LOG_FILE: logging.file
//   - CHETNA_METRICS_ADDR: metrics.addr
//   - CHETNA_USER_NAME: user.name
func (c *Config) ApplyEnvOverrides() {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	str("CHETNA_LANGUAGE", &c.Chat.Language)
	if v := os.Getenv("CHETNA_GUEST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.GuestMessageLimit = n
		}
	}
	str("CHETNA_STORAGE", &c.Storage.Backend)
	str("CHETNA_DATA_DIR", &c.Storage.Dir)
	str("CHETNA_RECORDS_PATH", &c.Records.Path)
	str("CHETNA_AI_PROVIDER", &c.AI.Provider)
	str("CHETNA_OLLAMA_URL", &c.AI.OllamaURL)
	str("CHETNA_MODEL", &c.AI.Model)
	str("CHETNA_TTS_URL", &c.Speech.TTSURL)
	str("CHETNA_TTS_API_KEY", &c.Speech.TTSAPIKey)
	str("CHETNA_STT_URL", &c.Speech.STTURL)
	str("CHETNA_STT_API_KEY", &c.Speech.STTAPIKey)
	str("CHETNA_LOG_LEVEL", &c.Logging.Level)
	str("CHETNA_LOG_FILE", &c.Logging.File)
	str("CHETNA_METRICS_ADDR", &c.Metrics.Addr)
	str("CHETNA_USER_NAME", &c.User.Name)
}

// =============================================================================
// DOTTED KEYS
// =============================================================================

// Keys are the TOML names joined by dots, e.g. "chat.guest_message_limit".
// Dashes are accepted for underscores.

// Get returns the value at key.
func (c *Config) Get(key string) (any, error) {
	field, err := c.field(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set stores value at key. Strings are parsed into the field's type; other
// values must be assignable or convertible.
func (c *Config) Set(key string, value any) error {
	field, err := c.field(key)
	if err != nil {
		return err
	}
	if s, ok := value.(string); ok {
		return parseInto(field, s)
	}
	v := reflect.ValueOf(value)
	switch {
	case !v.IsValid():
		return fmt.Errorf("cannot set %s to nil", key)
	case v.Type().AssignableTo(field.Type()):
		field.Set(v)
	case v.Type().ConvertibleTo(field.Type()):
		field.Set(v.Convert(field.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s (%s)", value, key, field.Type())
	}
	return nil
}

func (c *Config) field(key string) (reflect.Value, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		path := strings.Join(parts[:i+1], ".")
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%s is not a table", strings.Join(parts[:i], "."))
		}
		idx := tomlIndex(v.Type(), part)
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", path)
		}
		v = v.Field(idx)
	}
	return v, nil
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

func tomlIndex(t reflect.Type, name string) int {
	for i := range t.NumField() {
		if n := tomlName(t.Field(i)); n != "" && n != "-" && strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

func parseInto(field reflect.Value, s string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		field.SetFloat(f)
	case reflect.Bool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "yes", "on":
			field.SetBool(true)
		default:
			field.SetBool(false)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot parse %q into %s", s, field.Type())
		}
		field.Set(reflect.ValueOf(strings.Fields(s)))
	default:
		return fmt.Errorf("cannot parse %q into %s", s, field.Type())
	}
	return nil
}

// GetAllKeys lists every settable key in file order.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := range t.NumField() {
			f := t.Field(i)
			name := tomlName(f)
			switch {
			case name == "" || name == "-":
			case f.Type.Kind() == reflect.Struct:
				walk(f.Type, prefix+name+".")
			default:
				keys = append(keys, prefix+name)
			}
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Speech.PlayerArgs = slices.Clone(c.Speech.PlayerArgs)
	out.Speech.RecorderArgs = slices.Clone(c.Speech.RecorderArgs)
	return &out
}

// String renders c as JSON with API keys redacted.
func (c *Config) String() string {
	safe := c.Clone()
	for _, key := range []*string{&safe.Speech.TTSAPIKey, &safe.Speech.STTAPIKey} {
		if *key != "" {
			*key = "[REDACTED]"
		}
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
