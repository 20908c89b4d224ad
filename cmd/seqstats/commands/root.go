package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/chrono"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/statsfile"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/serviceutil"
	libtelemetry "github.com/StanfordBioinformatics/trajectoread-monitor/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	month    int
	year     int
	cronMode bool
	outfile  string
	dbPath   string
)

var otelProviders libtelemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "seqstats (--cron | --year <year> --month <month>) [-o <summary file>]",
	Short: "seqstats totals the reads and bases sequenced in a month, per sequencer type.",
	Long: `seqstats finds the production sequencing run records created in a month,
scrapes the lane report of each lane and writes:

  <year>-<month>_seq-stats.txt   one line per lane
  <outfile>                      one line per sequencer type, appended`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(verbose)

		var err error
		otelProviders, err = libtelemetry.SetupFromEnv(cmd.Context(), "seqstats")
		if err != nil {
			serviceutil.Fatal("setup telemetry", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := otelProviders.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		clock, err := chrono.NewStandardImpl(cfg.Timezone)
		if err != nil {
			serviceutil.Fatal("failed to load timezone", err)
		}

		w, err := resolveWindow(windowFlags{
			Cron:     cronMode,
			Year:     year,
			YearSet:  cmd.Flags().Changed("year"),
			Month:    month,
			MonthSet: cmd.Flags().Changed("month"),
		}, clock)
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
			cmd.Usage()
			os.Exit(2)
		}
		if err != nil {
			serviceutil.Fatal("invalid month", err)
		}

		r := newRunner(cfg, runOptions{
			Outfile: outfile,
			DbPath:  dbPath,
			Out:     os.Stdout,
		})
		_, err = r.run(cmd.Context(), w)
		if err != nil {
			serviceutil.Fatal("aggregation failed", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "seqstats.json5", "The json5 config file to read.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output and dump http exchanges.")

	rootCmd.Flags().IntVarP(&month, "month", "m", 0, "The month to total (1-12), requires --year.")
	rootCmd.Flags().IntVarP(&year, "year", "y", 0, "The year of --month.")
	rootCmd.Flags().BoolVarP(&cronMode, "cron", "c", false, "Total the month before the current one.")
	rootCmd.Flags().StringVarP(&outfile, "outfile", "o", statsfile.DefaultSummaryPath, "The summary file to append to.")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Also record the run in this sqlite database.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
