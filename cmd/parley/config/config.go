// Package configcmder provides the config command for managing persistent
// parley configuration stored in the .parley/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent parley configuration.

Configuration is stored as config.toml in the .parley/ directory and provides
default values for command flags. CLI flags always take precedence over
PARLEY_* environment variables, which take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  inference.endpoint, inference.model, inference.timeout_seconds,
  lookup.disabled, lookup.base_url, lookup.user_agent, lookup.max_chars, lookup.trigger,
  document.max_chars, document.max_pages,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  speech.enabled, speech.max_chars, speech.synth_command, speech.player_command,
  api.listen,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  parley config set <key> <value>    Set a configuration value
  parley config get <key>            Get a configuration value
  parley config list                 List all configuration values

Examples:
  parley config set inference.model llama3.2:latest
  parley config set speech.enabled true
  parley config get inference.endpoint
  parley config list`

const configShortDesc string = "Manage persistent parley configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
