package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sndcds/redrovr/app"
	"github.com/sndcds/redrovr/logging"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer logging.Close()

			cat, err := app.OpenCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cat.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s catalog is up to date\n", cfg.CatalogDriver)
			return nil
		},
	}
}
