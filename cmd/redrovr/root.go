package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sndcds/redrovr/app"
	"github.com/sndcds/redrovr/logging"
)

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "redrovr",
		Short: "Mars rover photo catalog",
		Long: `redrovr pulls the newest photos of a Mars rover into a local catalog
and serves them over a small JSON API.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a JSON or YAML config file")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newServeCmd(flags),
		newIngestCmd(flags),
		newMigrateCmd(flags),
	)
	return cmd
}

// loadConfig reads the config and sets up logging as it asks for.
func loadConfig(flags *globalFlags) (app.Config, error) {
	path := flags.configPath
	if path == "" {
		path = os.Getenv("REDROVR_CONFIG")
	}

	logging.Init(os.Stderr, flags.verbose)
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return cfg, err
	}

	verbose := flags.verbose || cfg.Verbose
	if cfg.LogFile != "" {
		if err := logging.InitFile(cfg.LogFile, verbose); err != nil {
			return cfg, err
		}
	} else if verbose {
		logging.Init(os.Stderr, true)
	}

	cfg.Print()
	return cfg, nil
}
