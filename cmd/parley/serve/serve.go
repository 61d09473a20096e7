// Package servecmder provides the serve command for running the parley HTTP
// API and MCP endpoint.
package servecmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/api"
	"github.com/papercomputeco/parley/cmd/parley/bootstrap"
	chatcmder "github.com/papercomputeco/parley/cmd/parley/chat"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/pkg/speech"
)

type serveCommander struct {
	flags       chatcmder.FlagValues
	listen      string
	sessionIdle time.Duration
	artifactAge time.Duration

	env    *bootstrap.Env
	logger *zap.Logger
}

const serveLongDesc string = `Run the parley HTTP API.

Serves the chat pipeline over JSON, with per-session document and voice
settings, the memory log read path, synthesized speech artifacts, Prometheus
metrics at /metrics and an MCP endpoint at /mcp exposing an "ask" tool.

Sessions idle for longer than --session-idle are dropped and speech artifacts
older than --artifact-max-age are deleted.

Examples:
  parley serve
  parley serve --listen :9000 --voice
  parley serve --storage postgres --postgres postgres://localhost/parley`

const serveShortDesc string = "Run the HTTP API and MCP endpoint"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := bootstrap.Load(cmd, append([]string{config.FlagListen}, chatcmder.Flags...))
			if err != nil {
				return err
			}
			defer env.Close()

			cmder.env = env
			cmder.logger = env.Logger

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx)
		},
	}

	chatcmder.AddFlags(cmd, &cmder.flags)
	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	cmd.Flags().DurationVar(&cmder.sessionIdle, "session-idle", 30*time.Minute, "Drop sessions idle for longer than this")
	cmd.Flags().DurationVar(&cmder.artifactAge, "artifact-max-age", time.Hour, "Delete speech artifacts older than this")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg := c.env.Config
	sessions := session.NewManager(cfg.Speech.Enabled)
	m := metrics.New(sessions.Len)

	a, err := c.env.NewAssistant(ctx, false, m)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions.StartJanitor(ctx, c.sessionIdle/4, c.sessionIdle)
	if a.Speaker != nil {
		go c.pruneArtifacts(ctx, a.Speaker)
	}
	c.watchConfig()

	server, err := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, a, sessions, c.logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	c.logger.Info("starting api server",
		zap.String("api_addr", cfg.API.Listen),
		zap.String("model", cfg.Inference.Model),
		zap.String("endpoint", cfg.Inference.Endpoint),
		zap.String("storage", cfg.Storage.Provider),
		zap.Bool("speech", a.Speaker != nil),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return server.Shutdown()
	}
}

// pruneArtifacts deletes stale speech artifacts until ctx is done.
func (c *serveCommander) pruneArtifacts(ctx context.Context, s *speech.Speaker) {
	interval := c.artifactAge / 2
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PruneArtifacts(c.artifactAge)
			if err != nil {
				c.logger.Warn("pruning speech artifacts", zap.Error(err))
				continue
			}
			if n > 0 {
				c.logger.Debug("pruned speech artifacts", zap.Int("count", n))
			}
		}
	}
}

// watchConfig logs edits to config.toml. Settings are read once at startup,
// so a change only takes effect after a restart.
func (c *serveCommander) watchConfig() {
	if c.env.Viper.ConfigFileUsed() == "" {
		return
	}

	c.env.Viper.OnConfigChange(func(e fsnotify.Event) {
		c.logger.Info("config file changed, restart to apply",
			zap.String("path", e.Name),
			zap.String("op", e.Op.String()),
		)
	})
	c.env.Viper.WatchConfig()
}
