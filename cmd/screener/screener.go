// Package screenercmder
package screenercmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/probitylab/screener/cmd/screener/config"
	seedcmder "github.com/probitylab/screener/cmd/screener/seed"
	servecmder "github.com/probitylab/screener/cmd/screener/serve"
	versioncmder "github.com/probitylab/screener/cmd/version"
)

const screenerLongDesc string = `Screener flags plagiarised project submissions by embedding similarity.

Run services using:
  screener serve       Run the API server
  screener seed        Load a project corpus from CSV
  screener config      Manage persistent configuration`

const screenerShortDesc string = "Screener - Plagiarism Screening"

func NewScreenerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screener",
		Short: screenerShortDesc,
		Long:  screenerLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .screener directory location")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
