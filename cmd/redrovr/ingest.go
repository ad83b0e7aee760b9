package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sndcds/redrovr/app"
	"github.com/sndcds/redrovr/ingest"
	"github.com/sndcds/redrovr/logging"
)

func newIngestCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass",
		Long: `Fetches the listing of the rover's current maximum sol and stores every
new photo from an allowed camera. The run is skipped while the cooldown
since the previous run has not elapsed, unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer logging.Close()

			a, err := app.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var result ingest.Result
			if force {
				result, err = a.Job.Force(cmd.Context(), time.Now())
			} else {
				result, err = a.Job.Run(cmd.Context(), time.Now())
			}
			if err != nil {
				return err
			}

			if result.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped: cooldown active")
				return nil
			}
			out, err := json.MarshalIndent(result.Stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Ignore the cooldown")
	return cmd
}
