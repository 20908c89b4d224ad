package commands

import (
	"os"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/db"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyDb string

func init() {
	historyCmd.Flags().StringVar(&historyDb, "db", "", "The sqlite database to read, defaults to the configured one.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <path/to/history.db>]",
	Short: "Prints the stored totals of every month, latest run first.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		dbConfig := cfg.Database
		if historyDb != "" {
			dbConfig.File = historyDb
			dbConfig.Url = ""
		}

		sqldb, err := dbConfig.OpenDB()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer sqldb.Close()

		store, err := db.Open(cmd.Context(), sqldb, telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to open store", err)
		}
		totals, err := store.MonthlyTotals(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Year", "Month", "Seq Type", "Lanes", "Reads", "Bases", "Run"})
		for _, total := range totals {
			t.AppendRow(table.Row{
				total.Year,
				int(total.Month),
				total.SequencerType,
				total.LaneCount,
				total.ReadCount,
				total.BaseCount,
				total.RunID,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
