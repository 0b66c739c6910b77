package cmd

import (
	"fmt"
	"time"

	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/utils"
	"github.com/aristath/valuator/internal/work"
	"github.com/spf13/cobra"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		mode   string
		delay  time.Duration
		only   string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long: `Run one or more pipeline stages over the configured universe.

Modes:
  all          price sync, forecast sync, valuation, export (default)
  basic_data   price sync only
  profit_data  forecast sync only
  process      valuation and export
  export       export only

Example:
  valuator run --mode basic_data --delay 2s --only SH600519,hk00700`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := work.ParseMode(mode)
			if err != nil {
				return err
			}

			container, log, err := root.wire(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("delay") {
					cfg.FetchDelay = delay
				}
				if cmd.Flags().Changed("strict") {
					cfg.StrictFetch = strict
				}
			})
			if err != nil {
				return err
			}
			defer container.Close()

			container.SetOnly(utils.ParseList(only))

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, err := container.Pipeline.Run(ctx, m)
			if err != nil {
				return err
			}

			log.Debug().Str("run_id", report.RunID).Msg("Run finished")
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: mode=%s symbols=%d duration=%s\n",
				report.RunID, report.Mode, report.Symbols, report.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(work.ModeAll), "all, basic_data, profit_data, process or export")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "pause between symbols (FETCH_DELAY)")
	cmd.Flags().StringVar(&only, "only", "", "comma-separated subset of the universe")
	cmd.Flags().BoolVar(&strict, "strict", true, "abort on the first fetch failure (STRICT_FETCH)")

	return cmd
}
