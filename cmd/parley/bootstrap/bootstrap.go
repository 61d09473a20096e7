// Package bootstrap loads the merged parley configuration for a command and
// builds the assistant from it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/cmd/parley/sqlitepath"
	"github.com/papercomputeco/parley/pkg/assistant"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/dotdir"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/metrics"
)

// Env is everything a command needs after flag parsing.
type Env struct {
	Config    *config.Config
	Viper     *viper.Viper
	ConfigDir string
	TargetDir string
	Debug     bool
	Logger    *zap.Logger
}

// Load merges defaults, config.toml, PARLEY_* env vars and the registered
// flags in flagKeys, in increasing precedence.
func Load(cmd *cobra.Command, flagKeys []string) (*Env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, fmt.Errorf("could not get debug flag: %w", err)
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	targetDir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	cfg := config.FromViper(v)
	if cfg.Storage.Provider == assistant.StorageSQLite || cfg.Storage.Provider == "" {
		cfg.Storage.SQLitePath, err = sqlitepath.ResolveSQLitePath(cfg.Storage.SQLitePath, targetDir)
		if err != nil {
			return nil, err
		}
	}

	return &Env{
		Config:    cfg,
		Viper:     v,
		ConfigDir: configDir,
		TargetDir: targetDir,
		Debug:     debug,
		Logger:    logger.NewLogger(debug),
	}, nil
}

// NewAssistant builds the assistant. play attaches the local audio player.
func (e *Env) NewAssistant(ctx context.Context, play bool, m *metrics.Metrics) (*assistant.Assistant, error) {
	audioDir, err := dotdir.NewManager().AudioDir(e.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolving audio dir: %w", err)
	}

	a, err := assistant.New(ctx, assistant.Options{
		Config:   e.Config,
		AudioDir: audioDir,
		Play:     play,
		Metrics:  m,
		Logger:   e.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("starting assistant: %w", err)
	}
	return a, nil
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Logger.Sync()
}
