package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/parley/pkg/dotdir"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "PARLEY"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PARLEY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PARLEY_INFERENCE_MODEL, PARLEY_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: PARLEY_INFERENCE_ENDPOINT, PARLEY_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the merged viper state.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Inference: InferenceConfig{
			Endpoint:       v.GetString("inference.endpoint"),
			Model:          v.GetString("inference.model"),
			TimeoutSeconds: v.GetInt("inference.timeout_seconds"),
			Headers:        v.GetStringMapString("inference.headers"),
		},
		Lookup: LookupConfig{
			Disabled:  v.GetBool("lookup.disabled"),
			BaseURL:   v.GetString("lookup.base_url"),
			UserAgent: v.GetString("lookup.user_agent"),
			MaxChars:  v.GetInt("lookup.max_chars"),
			Trigger:   v.GetString("lookup.trigger"),
		},
		Document: DocumentConfig{
			MaxChars: v.GetInt("document.max_chars"),
			MaxPages: v.GetInt("document.max_pages"),
		},
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Speech: SpeechConfig{
			Enabled:       v.GetBool("speech.enabled"),
			MaxChars:      v.GetInt("speech.max_chars"),
			SynthCommand:  v.GetString("speech.synth_command"),
			PlayerCommand: v.GetString("speech.player_command"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}

	if len(cfg.Inference.Headers) == 0 {
		cfg.Inference.Headers = nil
	}

	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Inference
	v.SetDefault("inference.endpoint", d.Inference.Endpoint)
	v.SetDefault("inference.model", d.Inference.Model)
	v.SetDefault("inference.timeout_seconds", d.Inference.TimeoutSeconds)

	// Lookup
	v.SetDefault("lookup.disabled", d.Lookup.Disabled)
	v.SetDefault("lookup.base_url", d.Lookup.BaseURL)
	v.SetDefault("lookup.user_agent", d.Lookup.UserAgent)
	v.SetDefault("lookup.max_chars", d.Lookup.MaxChars)
	v.SetDefault("lookup.trigger", d.Lookup.Trigger)

	// Document
	v.SetDefault("document.max_chars", d.Document.MaxChars)
	v.SetDefault("document.max_pages", d.Document.MaxPages)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Speech
	v.SetDefault("speech.enabled", d.Speech.Enabled)
	v.SetDefault("speech.max_chars", d.Speech.MaxChars)
	v.SetDefault("speech.synth_command", d.Speech.SynthCommand)
	v.SetDefault("speech.player_command", d.Speech.PlayerCommand)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
