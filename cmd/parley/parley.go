// Package parleycmder
package parleycmder

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/parley/cmd/parley/ask"
	chatcmder "github.com/papercomputeco/parley/cmd/parley/chat"
	configcmder "github.com/papercomputeco/parley/cmd/parley/config"
	initcmder "github.com/papercomputeco/parley/cmd/parley/init"
	memorycmder "github.com/papercomputeco/parley/cmd/parley/memory"
	servecmder "github.com/papercomputeco/parley/cmd/parley/serve"
	tuicmder "github.com/papercomputeco/parley/cmd/parley/tui"
	versioncmder "github.com/papercomputeco/parley/cmd/version"
)

const parleyLongDesc string = `Parley is a local voice-ready chat assistant.

Each message is answered by a local Ollama model. Messages containing the word
"search" are grounded on an encyclopedia summary, an uploaded document adds
context, and every answer is appended to a question/answer memory log.

Start talking using:
  parley chat     Interactive chat in the terminal
  parley tui      Full screen chat
  parley ask      Ask a single question
  parley serve    Run the HTTP API (and MCP endpoint)`

const parleyShortDesc string = "Parley - local chat assistant"

func NewParleyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "parley",
		Short:         parleyShortDesc,
		Long:          parleyLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(".env")
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .parley/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(memorycmder.NewMemoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

// loadDotEnv loads path into the environment when it exists. Variables that
// are already set win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
