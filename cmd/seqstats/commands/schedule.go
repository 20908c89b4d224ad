package commands

import (
	"log/slog"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/chrono"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/window"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/serviceutil"
	libtelemetry "github.com/StanfordBioinformatics/trajectoread-monitor/lib/telemetry"

	"github.com/spf13/cobra"
)

var scheduleOutfile string
var scheduleDb string

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleOutfile, "outfile", "o", "", "The summary file to append to.")
	scheduleCmd.Flags().StringVar(&scheduleDb, "db", "", "Also record each run in this sqlite database.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Totals the previous month on the configured cron schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := readConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		clock, err := chrono.NewStandardImpl(cfg.Timezone)
		if err != nil {
			serviceutil.Fatal("failed to load timezone", err)
		}

		r := newRunner(cfg, runOptions{
			Outfile: scheduleOutfile,
			DbPath:  scheduleDb,
		})

		cron := chrono.NewStandardCron(telemetry.SlogAPI{}, clock.Location())
		err = cron.Cron(cfg.Schedule, func() {
			w := window.Previous(clock.Now())
			_, err := r.run(ctx, w)
			if err != nil {
				slog.Error("scheduled aggregation failed", "month", w.String(), "err", err)
			}
		})
		if err != nil {
			serviceutil.Fatal("invalid schedule", err)
		}

		libtelemetry.InstrumentPerfStats(ctx, 30*time.Second)
		slog.Info("waiting for schedule", "spec", cfg.Schedule, "timezone", clock.Location().String())

		<-ctx.Done()
		slog.Info("stopping, waiting for running aggregations")
		<-cron.Stop().Done()
	},
}
