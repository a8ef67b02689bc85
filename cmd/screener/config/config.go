// Package configcmder provides the config command for managing persistent
// screener configuration stored in the .screener/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent screener configuration.

Configuration is stored as config.toml in the .screener/ directory and
provides default values for command flags. CLI flags and SCREENER_
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions, embedding.max_retries,
  vector_store.provider, vector_store.data_dir, vector_store.sqlite_path,
  decision.similarity_threshold, decision.rating_weight,
  decision.decision_threshold,
  audit.brokers, audit.topic

Use subcommands to get, set, or list configuration values:
  screener config set <key> <value>    Set a configuration value
  screener config get <key>            Get a configuration value
  screener config list                 List all configuration values

Examples:
  screener config set embedding.provider ollama
  screener config set decision.similarity_threshold 0.75
  screener config get vector_store.provider
  screener config list`

const configShortDesc string = "Manage persistent screener configuration"

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
