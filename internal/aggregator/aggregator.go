package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/assert"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/dnanexus"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/instrument"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/lanereport"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/statsfile"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/window"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_run_query      = "run.query"
	report_run_skip       = "run.skip"
	report_run_processing = "run.processing"
	report_run_instrument = "run.unknown-instrument"
	report_run_schema     = "run.schema"
	report_run_processed  = "run.lanes-processed"
	report_run_skipped    = "run.lanes-skipped"
)

var tracer = otel.Tracer("seqstats.internal.aggregator")

var meter = otel.Meter("seqstats.internal.aggregator")
var processedCounter, _ = meter.Int64Counter("lanes_processed")
var skippedCounter, _ = meter.Int64Counter("lanes_skipped")

func laneName(run string, lane int) string {
	return fmt.Sprintf("%s_L%d", run, lane)
}

// Aggregator walks the sequencing records of a month and totals their
// lanes per sequencer type.
type Aggregator struct {
	api  RecordAPI
	opts Options
	tel  telemetry.API
}

func New(api RecordAPI, opts Options, tel telemetry.API) Aggregator {
	assert.NotNil(api, "api")
	assert.NotNil(tel, "tel")

	defaults := DefaultOptions()
	if opts.Project == "" {
		opts.Project = defaults.Project
	}
	if opts.Folder == "" {
		opts.Folder = defaults.Folder
	}
	if opts.RecordType == "" {
		opts.RecordType = defaults.RecordType
	}
	if opts.ReportFolder == "" {
		opts.ReportFolder = defaults.ReportFolder
	}
	if opts.ReportGlob == "" {
		opts.ReportGlob = defaults.ReportGlob
	}

	return Aggregator{
		api:  api,
		opts: opts,
		tel:  telemetry.NewScopedAPI("aggregator", tel),
	}
}

// skipError carries the reason a record was skipped.
type skipError struct {
	reason SkipReason
	err    error
}

func (e skipError) Error() string {
	if e.err == nil {
		return string(e.reason)
	}
	return fmt.Sprintf("%s: %s", e.reason, e.err.Error())
}

func (e skipError) Unwrap() error {
	return e.err
}

func skip(reason SkipReason, err error) error {
	return skipError{reason: reason, err: err}
}

// Run aggregates every record created inside the window. Each processed
// lane is written to `detail` as it is accumulated. Records that cannot be
// processed are skipped and counted in Result.Skipped, only a failed record
// query or a failed write aborts the run.
func (a Aggregator) Run(ctx context.Context, w window.MonthWindow, detail io.Writer) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.Int("year", w.Year),
		attribute.Int("month", int(w.Month)),
	))
	defer span.End()

	result := Result{
		Window:  w,
		Totals:  map[instrument.SequencerType]Totals{},
		Skipped: map[SkipReason]int{},
	}

	refs, err := a.api.FindRecords(ctx, dnanexus.RecordQuery{
		Project:       a.opts.Project,
		Folder:        a.opts.Folder,
		TypeName:      a.opts.RecordType,
		CreatedAfter:  w.After,
		CreatedBefore: w.Before,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query records")
		a.tel.ReportBroken(report_run_query, err, w.String())
		return result, fmt.Errorf("query records: %w", err)
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		lane, err := a.processRecord(ctx, ref, result.Totals)
		var skipped skipError
		if errors.As(err, &skipped) {
			result.Skipped[skipped.reason]++
			skippedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(skipped.reason))))
			a.tel.ReportWarning(report_run_skip, ref.ID, skipped.Error())
			continue
		}
		if err != nil {
			return result, err
		}

		totals := result.Totals[lane.SequencerType]
		totals.LaneCount++
		totals.ReadCount += lane.ReadCount
		totals.BaseCount += lane.BaseCount
		result.Totals[lane.SequencerType] = totals
		result.Lanes = append(result.Lanes, lane)
		processedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("sequencer_type", string(lane.SequencerType))))

		err = statsfile.WriteDetailLine(detail, w.Year, w.Month, statsfile.DetailLine{
			RunName:       lane.Record.RunName,
			LaneIndex:     lane.Record.LaneIndex,
			ReadCount:     lane.ReadCount,
			BaseCount:     lane.BaseCount,
			SequencerType: lane.SequencerType,
		})
		if err != nil {
			span.RecordError(err)
			return result, fmt.Errorf("write detail line: %w", err)
		}
	}

	a.tel.ReportCount(report_run_processed, int64(len(result.Lanes)))
	a.tel.ReportCount(report_run_skipped, int64(result.SkippedCount()))
	return result, nil
}

// describe reads a record into a SequencingRecord, every required field
// missing is a SkipDescribe, a missing or false production flag is a
// SkipNotProduction.
func (a Aggregator) describe(ctx context.Context, ref dnanexus.ObjectRef) (SequencingRecord, error) {
	desc, err := a.api.DescribeRecord(ctx, ref)
	if err != nil {
		return SequencingRecord{}, skip(SkipDescribe, err)
	}

	production, err := desc.Flag("production")
	if err != nil {
		return SequencingRecord{}, skip(SkipDescribe, err)
	}
	if production != dnanexus.FlagTrue {
		return SequencingRecord{}, skip(SkipNotProduction, fmt.Errorf("production is %s", production))
	}

	project, err := desc.DetailString("laneProject")
	if err != nil {
		return SequencingRecord{}, skip(SkipDescribe, err)
	}
	laneIndex, err := desc.DetailInt("lane")
	if err != nil {
		return SequencingRecord{}, skip(SkipDescribe, err)
	}
	runName, err := desc.DetailString("run")
	if err != nil {
		return SequencingRecord{}, skip(SkipDescribe, err)
	}

	pairedEnd, err := desc.Flag("paired_end")
	if err != nil {
		return SequencingRecord{}, skip(SkipDescribe, err)
	}
	if pairedEnd == dnanexus.FlagAbsent {
		return SequencingRecord{}, skip(SkipDescribe, errors.New("property paired_end is not set"))
	}

	seqInstrument, ok := desc.Property("seq_instrument")
	if !ok {
		return SequencingRecord{}, skip(SkipDescribe, errors.New("property seq_instrument is not set"))
	}

	return SequencingRecord{
		RecordID:   ref.ID,
		RunName:    runName,
		LaneIndex:  laneIndex,
		Project:    project,
		Production: true,
		PairedEnd:  pairedEnd == dnanexus.FlagTrue,
		Instrument: seqInstrument,
	}, nil
}

func (a Aggregator) classify(record SequencingRecord) instrument.SequencerType {
	seqType := instrument.Classify(record.Instrument)
	if !instrument.Known(record.Instrument) {
		suggestion, similarity := instrument.Suggest(record.Instrument)
		a.tel.ReportWarning(
			report_run_instrument,
			record.Instrument,
			fmt.Sprintf("classified as %s, closest known instrument is %s (%.2f)", seqType, suggestion, similarity),
		)
	}
	return seqType
}

// fetchReport locates and downloads the lane.html report of the lane's project.
func (a Aggregator) fetchReport(ctx context.Context, record SequencingRecord) (string, error) {
	ref, err := a.api.FindOneFile(ctx, dnanexus.FileQuery{
		Project:  record.Project,
		Folder:   a.opts.ReportFolder,
		NameGlob: a.opts.ReportGlob,
	})
	if err != nil {
		return "", skip(SkipReportMissing, err)
	}

	report, err := a.api.ReadFile(ctx, ref)
	if err != nil {
		return "", skip(SkipReportRead, err)
	}
	return report, nil
}

func (a Aggregator) processRecord(ctx context.Context, ref dnanexus.ObjectRef, totals map[instrument.SequencerType]Totals) (LaneResult, error) {
	ctx, span := tracer.Start(ctx, "processRecord", trace.WithAttributes(
		attribute.String("record", ref.ID),
	))
	defer span.End()

	record, err := a.describe(ctx, ref)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return LaneResult{}, err
	}
	a.tel.ReportDebug(report_run_processing, record.LaneName())

	seqType := a.classify(record)
	// every classified sequencer type gets a summary line, even if all of
	// its lanes end up skipped
	if _, ok := totals[seqType]; !ok {
		totals[seqType] = Totals{}
	}

	report, err := a.fetchReport(ctx, record)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return LaneResult{}, err
	}

	err = lanereport.CheckSchema(ctx, report)
	if errors.Is(err, lanereport.ErrSchemaMismatch) {
		span.SetStatus(codes.Error, err.Error())
		return LaneResult{}, skip(SkipSchemaMismatch, err)
	}
	if err != nil {
		a.tel.ReportWarning(report_run_schema, record.LaneName(), err)
	}

	metrics, ok := lanereport.Extract(report, record.LaneIndex, a.tel)
	if !ok {
		return LaneResult{}, skip(SkipLaneNotFound, fmt.Errorf("lane %d not in report", record.LaneIndex))
	}

	pfClusters, err := metrics.PFClusterCount()
	if err != nil {
		return LaneResult{}, skip(SkipUnparseable, err)
	}
	yieldMbases, err := metrics.YieldMbaseCount()
	if err != nil {
		return LaneResult{}, skip(SkipUnparseable, err)
	}

	return LaneResult{
		Record:        record,
		SequencerType: seqType,
		Metrics:       metrics,
		ReadCount:     ReadCount(pfClusters, record.PairedEnd),
		BaseCount:     BaseCount(yieldMbases),
	}, nil
}
