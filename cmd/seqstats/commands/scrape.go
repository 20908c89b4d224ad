package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/lanereport"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeLane int

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLane, "lane", 1, "The lane to extract.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <path/to/report.lane.html> [--lane <n>]",
	Short: "Checks a local lane report and prints the metrics of one lane.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		buff, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read report", err)
		}
		report := string(buff)

		err = lanereport.CheckSchema(cmd.Context(), report)
		switch {
		case errors.Is(err, lanereport.ErrSchemaMismatch):
			serviceutil.Fatal("report layout changed", err)
		case err != nil:
			fmt.Fprintf(os.Stderr, "warning: %s\n", err)
		}

		metrics, ok := lanereport.Extract(report, scrapeLane, telemetry.SlogAPI{})
		if !ok {
			serviceutil.Fatal("lane not found", fmt.Errorf("no row for lane %d in %s", scrapeLane, args[0]))
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle("Lane " + strconv.Itoa(scrapeLane))
		t.AppendHeader(table.Row{"Field", "Line", "Value"})
		for _, col := range lanereport.Schema {
			t.AppendRow(table.Row{col.Field, "+" + strconv.Itoa(col.Offset), metrics.Get(col.Field)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
