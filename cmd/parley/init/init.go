// Package initcmder provides the init command for initializing a local .parley
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

const (
	dirName = ".parley"
)

const initLongDesc string = `Initialize a new .parley/ directory in the current working directory.

Creates a local .parley/ directory that takes precedence over the default
~/.parley/ directory for configuration, the memory log and speech artifacts.
A preset writes a starting config.toml:

  ollama    Local Ollama at localhost:11434 with a SQLite memory log (default)
  remote    Shared inference host, Postgres memory log and Kafka events

Examples:
  parley init
  parley init --preset remote`

const initShortDesc string = "Initialize a local .parley/ directory"

type initCommander struct {
	preset string
	force  bool
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "ollama",
		fmt.Sprintf("Config preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func (c *initCommander) run(w io.Writer) error {
	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .parley directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil && !c.force {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "  %s Initialized .parley directory: %s %s\n",
		cliui.SuccessMark,
		dir,
		cliui.DimStyle.Render("(preset "+c.preset+")"),
	)
	return nil
}
