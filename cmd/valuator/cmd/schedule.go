package cmd

import (
	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/di"
	"github.com/aristath/valuator/internal/scheduler"
	"github.com/aristath/valuator/internal/work"
	"github.com/spf13/cobra"
)

func newScheduleCmd(root *rootOptions) *cobra.Command {
	var (
		spec   string
		mode   string
		runNow bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule",
		Long: `Keep running and execute the pipeline on a cron schedule with a seconds
field, evaluated in VALUATOR_TIMEZONE. A storage failure stops the process.

Example:
  valuator schedule --cron "0 30 16 * * MON-FRI"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := work.ParseMode(mode)
			if err != nil {
				return err
			}

			container, log, err := root.wire(cmd, func(cfg *config.Config) {
				if spec != "" {
					cfg.Schedule = spec
				}
			})
			if err != nil {
				return err
			}
			defer container.Close()

			sched := scheduler.New(container.Location, log)
			jobs, err := di.RegisterJobs(sched, container, container.Config.Schedule, m, log)
			if err != nil {
				return err
			}

			if runNow {
				if err := sched.RunNow(jobs.Pipeline); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			sched.Start()
			defer sched.Stop()

			select {
			case <-ctx.Done():
				log.Info().Msg("Shutdown signal received")
				return nil
			case err := <-sched.Fatal():
				log.Error().Err(err).Msg("Storage failure, stopping scheduler")
				return err
			}
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron spec with seconds field (SCHEDULE)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(work.ModeAll), "pipeline mode to schedule")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run once immediately before waiting")

	return cmd
}
