package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent parley configuration stored as config.toml
// in the .parley/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Inference InferenceConfig `toml:"inference"`
	Lookup    LookupConfig    `toml:"lookup"`
	Document  DocumentConfig  `toml:"document"`
	Storage   StorageConfig   `toml:"storage"`
	Speech    SpeechConfig    `toml:"speech"`
	API       APIConfig       `toml:"api"`
	Events    EventsConfig    `toml:"events"`
}

// InferenceConfig holds the generation endpoint settings.
type InferenceConfig struct {
	Endpoint       string            `toml:"endpoint,omitempty"`
	Model          string            `toml:"model,omitempty"`
	TimeoutSeconds int               `toml:"timeout_seconds,omitempty"`
	Headers        map[string]string `toml:"headers,omitempty"`
}

// LookupConfig holds encyclopedia lookup settings.
type LookupConfig struct {
	Disabled  bool   `toml:"disabled,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
	UserAgent string `toml:"user_agent,omitempty"`
	MaxChars  int    `toml:"max_chars,omitempty"`
	Trigger   string `toml:"trigger,omitempty"`
}

// DocumentConfig bounds how much of an uploaded document reaches the prompt.
type DocumentConfig struct {
	MaxChars int `toml:"max_chars,omitempty"`
	MaxPages int `toml:"max_pages,omitempty"`
}

// StorageConfig selects the memory log driver.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// SpeechConfig holds text-to-speech settings. Enabled is the initial state of
// the per-session voice toggle.
type SpeechConfig struct {
	Enabled       bool   `toml:"enabled,omitempty"`
	MaxChars      int    `toml:"max_chars,omitempty"`
	SynthCommand  string `toml:"synth_command,omitempty"`
	PlayerCommand string `toml:"player_command,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig selects where memory.recorded events are published.
// Brokers is a comma separated list.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers into trimmed, non-empty addresses.
func (e EventsConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", name)
			}
			*field(c) = n
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
// Inference headers are a table and are edited in config.toml directly.
var configKeys = map[string]configKeyInfo{
	"inference.endpoint":        stringKey(func(c *Config) *string { return &c.Inference.Endpoint }),
	"inference.model":           stringKey(func(c *Config) *string { return &c.Inference.Model }),
	"inference.timeout_seconds": intKey("inference.timeout_seconds", func(c *Config) *int { return &c.Inference.TimeoutSeconds }),
	"lookup.disabled":           boolKey("lookup.disabled", func(c *Config) *bool { return &c.Lookup.Disabled }),
	"lookup.base_url":           stringKey(func(c *Config) *string { return &c.Lookup.BaseURL }),
	"lookup.user_agent":         stringKey(func(c *Config) *string { return &c.Lookup.UserAgent }),
	"lookup.max_chars":          intKey("lookup.max_chars", func(c *Config) *int { return &c.Lookup.MaxChars }),
	"lookup.trigger":            stringKey(func(c *Config) *string { return &c.Lookup.Trigger }),
	"document.max_chars":        intKey("document.max_chars", func(c *Config) *int { return &c.Document.MaxChars }),
	"document.max_pages":        intKey("document.max_pages", func(c *Config) *int { return &c.Document.MaxPages }),
	"storage.provider":          stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":       stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn":      stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"speech.enabled":            boolKey("speech.enabled", func(c *Config) *bool { return &c.Speech.Enabled }),
	"speech.max_chars":          intKey("speech.max_chars", func(c *Config) *int { return &c.Speech.MaxChars }),
	"speech.synth_command":      stringKey(func(c *Config) *string { return &c.Speech.SynthCommand }),
	"speech.player_command":     stringKey(func(c *Config) *string { return &c.Speech.PlayerCommand }),
	"api.listen":                stringKey(func(c *Config) *string { return &c.API.Listen }),
	"events.provider":           stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":            stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":              stringKey(func(c *Config) *string { return &c.Events.Topic }),
}

// orderedKeys lists configKeys in the TOML section layout.
var orderedKeys = []string{
	"inference.endpoint",
	"inference.model",
	"inference.timeout_seconds",
	"lookup.disabled",
	"lookup.base_url",
	"lookup.user_agent",
	"lookup.max_chars",
	"lookup.trigger",
	"document.max_chars",
	"document.max_pages",
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"speech.enabled",
	"speech.max_chars",
	"speech.synth_command",
	"speech.player_command",
	"api.listen",
	"events.provider",
	"events.brokers",
	"events.topic",
}
