package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model
// on "parley chat", "parley tui" and "parley ask").
type Flag struct {
	// Name is the long flag name (e.g. "model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "inference.model").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagModel          = "model"
	FlagEndpoint       = "endpoint"
	FlagTimeout        = "timeout"
	FlagNoLookup       = "no-lookup"
	FlagVoice          = "voice"
	FlagListen         = "listen"
	FlagStorage        = "storage"
	FlagSQLite         = "sqlite"
	FlagPostgres       = "postgres"
	FlagEventsProvider = "events-provider"
	FlagBrokers        = "brokers"
)

// Flags is the registry shared by all parley commands.
var Flags = FlagSet{
	FlagModel:          {Name: "model", Shorthand: "m", ViperKey: "inference.model", Description: "Model name sent to the inference endpoint"},
	FlagEndpoint:       {Name: "endpoint", Shorthand: "e", ViperKey: "inference.endpoint", Description: "Inference generate endpoint URL"},
	FlagTimeout:        {Name: "timeout", ViperKey: "inference.timeout_seconds", Description: "Inference request timeout in seconds"},
	FlagNoLookup:       {Name: "no-lookup", ViperKey: "lookup.disabled", Description: "Disable encyclopedia lookups"},
	FlagVoice:          {Name: "voice", ViperKey: "speech.enabled", Description: "Speak replies aloud"},
	FlagListen:         {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagStorage:        {Name: "storage", ViperKey: "storage.provider", Description: "Memory log driver (sqlite, postgres, memory)"},
	FlagSQLite:         {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the SQLite memory log"},
	FlagPostgres:       {Name: "postgres", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string for the memory log"},
	FlagEventsProvider: {Name: "events-provider", ViperKey: "events.provider", Description: "Memory event publisher (nop, kafka)"},
	FlagBrokers:        {Name: "brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka broker addresses"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultViper returns a viper holding only the values from NewDefaultConfig.
func defaultViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
