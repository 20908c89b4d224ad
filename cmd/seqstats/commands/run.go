package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/aggregator"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/db"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/dnanexus"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/lanereport"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/notify"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/statsfile"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/window"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/restyutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

type runOptions struct {
	Outfile string
	DbPath  string
	// DetailDir is where the per-lane file is written, the working directory if empty.
	DetailDir string
	Out       io.Writer
}

// runner performs one monthly aggregation and writes all of its outputs.
type runner struct {
	cfg  Config
	opts runOptions
	api  aggregator.RecordAPI
	tel  telemetry.API
}

func newRunner(cfg Config, opts runOptions) runner {
	tel := telemetry.SlogAPI{}

	clientOpts := cfg.Dnanexus.ClientOptions()
	if verbose && cfg.HttpDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
		if err != nil {
			slog.Warn("http dumps disabled", "err", err)
		} else {
			clientOpts.InstrumentOutput = output
		}
	}

	return runner{
		cfg:  cfg,
		opts: opts,
		api:  dnanexus.NewClient(clientOpts, tel),
		tel:  tel,
	}
}

func (r runner) run(ctx context.Context, w window.MonthWindow) (aggregator.Result, error) {
	startedAt := time.Now()
	slog.Info("aggregating month", "month", w.String(), "after", w.After, "before", w.Before)

	detailPath := filepath.Join(r.opts.DetailDir, w.DetailFileName())
	detail, err := statsfile.CreateDetail(detailPath)
	if err != nil {
		return aggregator.Result{}, fmt.Errorf("create detail file: %w", err)
	}
	defer detail.Close()

	agg := aggregator.New(r.api, r.cfg.Dnanexus.AggregatorOptions(), r.tel)
	result, err := agg.Run(ctx, w, detail)
	if err != nil {
		return result, err
	}
	err = detail.Close()
	if err != nil {
		return result, fmt.Errorf("close detail file: %w", err)
	}

	outfile := r.opts.Outfile
	if outfile == "" {
		outfile = statsfile.DefaultSummaryPath
	}
	err = statsfile.AppendSummary(outfile, w.Year, w.Month, result.SummaryLines())
	if err != nil {
		return result, err
	}
	slog.Info(
		"wrote stats",
		"detail", detailPath,
		"summary", outfile,
		"lanes", len(result.Lanes),
		"skipped", result.SkippedCount(),
	)

	err = r.saveHistory(ctx, result, startedAt)
	if err != nil {
		return result, err
	}

	if r.opts.Out != nil {
		renderTotals(r.opts.Out, result)
	}

	if r.cfg.Email.Enabled() {
		err = notify.NewMailer(r.cfg.Email).SendSummary(ctx, result)
		if err != nil {
			// the stats files are already written, a failed email is not fatal
			r.tel.ReportWarning("run.send-summary", err)
		}
	}

	return result, nil
}

func (r runner) saveHistory(ctx context.Context, result aggregator.Result, startedAt time.Time) error {
	dbConfig := r.cfg.Database
	if r.opts.DbPath != "" {
		dbConfig.File = r.opts.DbPath
		dbConfig.Url = ""
	}
	if !dbConfig.Enabled() {
		return nil
	}

	sqldb, err := dbConfig.OpenDB()
	if err != nil {
		return fmt.Errorf("open history db: %w", err)
	}
	defer sqldb.Close()

	store, err := db.Open(ctx, sqldb, r.tel)
	if err != nil {
		return err
	}
	id, err := store.SaveRun(ctx, runRecord(result, startedAt))
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	slog.Info("recorded run", "id", id)
	return nil
}

func runRecord(result aggregator.Result, startedAt time.Time) db.RunRecord {
	record := db.RunRecord{
		Year:         result.Window.Year,
		Month:        result.Window.Month,
		StartedAt:    startedAt,
		LanesSkipped: result.SkippedCount(),
	}
	for _, lane := range result.Lanes {
		record.Lanes = append(record.Lanes, db.LaneRecord{
			LaneName:      lane.Record.LaneName(),
			SequencerType: string(lane.SequencerType),
			ReadCount:     lane.ReadCount,
			BaseCount:     lane.BaseCount,
			PercPF:        lane.Metrics.Get(lanereport.PercPF),
			PercQ30Bases:  lane.Metrics.Get(lanereport.PercQ30Bases),
			MeanQuality:   lane.Metrics.Get(lanereport.MeanQuality),
		})
	}
	for _, line := range result.SummaryLines() {
		record.Totals = append(record.Totals, db.TotalRecord{
			SequencerType: string(line.SequencerType),
			LaneCount:     line.LaneCount,
			ReadCount:     line.ReadCount,
			BaseCount:     line.BaseCount,
		})
	}
	return record
}

func renderTotals(out io.Writer, result aggregator.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(result.Window.String())
	t.AppendHeader(table.Row{"Seq Type", "Lanes", "Reads", "Bases"})

	var lanes, reads, bases int64
	for _, line := range result.SummaryLines() {
		t.AppendRow(table.Row{line.SequencerType, line.LaneCount, line.ReadCount, line.BaseCount})
		lanes += line.LaneCount
		reads += line.ReadCount
		bases += line.BaseCount
	}
	t.AppendFooter(table.Row{"Total", lanes, reads, bases})

	t.SetStyle(table.StyleRounded)
	t.Render()
}
