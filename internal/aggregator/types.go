package aggregator

import (
	"context"
	"sort"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/dnanexus"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/instrument"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/lanereport"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/statsfile"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/window"
)

// RecordAPI describes the platform calls the aggregator depends on,
// *dnanexus.Client implements it.
type RecordAPI interface {
	// FindRecords returns all records matching the query.
	FindRecords(ctx context.Context, query dnanexus.RecordQuery) ([]dnanexus.ObjectRef, error)
	// DescribeRecord returns the details and properties of a record.
	DescribeRecord(ctx context.Context, ref dnanexus.ObjectRef) (dnanexus.RecordDescription, error)
	// FindOneFile returns the first file matching the query, or an error wrapping dnanexus.ErrNotFound.
	FindOneFile(ctx context.Context, query dnanexus.FileQuery) (dnanexus.ObjectRef, error)
	// ReadFile returns the contents of a file.
	ReadFile(ctx context.Context, ref dnanexus.ObjectRef) (string, error)
}

// Options locates the sequencing records and their lane reports.
type Options struct {
	Project      string `json:"project"`
	Folder       string `json:"folder"`
	RecordType   string `json:"record_type"`
	ReportFolder string `json:"report_folder"`
	ReportGlob   string `json:"report_glob"`
}

// DefaultOptions points at the production run records.
func DefaultOptions() Options {
	return Options{
		Project:      "project-BY82j6Q0jJxgg986V16FQzjx",
		Folder:       "/",
		RecordType:   "SCGPMRun",
		ReportFolder: "/stage0_bcl2fastq/miscellany",
		ReportGlob:   "*.lane.html",
	}
}

// SequencingRecord is one sequenced lane as described by its record.
type SequencingRecord struct {
	RecordID   string
	RunName    string
	LaneIndex  int
	Project    string
	Production bool
	PairedEnd  bool
	Instrument string
}

// LaneName is the display name of the lane, ex. "160301_GADGET_0123_AH3LKMBBXX_L1".
func (r SequencingRecord) LaneName() string {
	return laneName(r.RunName, r.LaneIndex)
}

// Totals are accumulated per sequencer type.
type Totals struct {
	LaneCount int64
	ReadCount int64
	BaseCount int64
}

// LaneResult is a lane that contributed to the totals.
type LaneResult struct {
	Record        SequencingRecord
	SequencerType instrument.SequencerType
	Metrics       lanereport.LaneMetrics
	ReadCount     int64
	BaseCount     int64
}

// SkipReason explains why a record did not contribute to the totals.
type SkipReason string

const (
	SkipNotProduction  SkipReason = "not-production"
	SkipDescribe       SkipReason = "describe"
	SkipReportMissing  SkipReason = "report-missing"
	SkipReportRead     SkipReason = "report-read"
	SkipSchemaMismatch SkipReason = "schema-mismatch"
	SkipLaneNotFound   SkipReason = "lane-not-found"
	SkipUnparseable    SkipReason = "unparseable-metrics"
)

// Result is the outcome of one aggregation pass.
type Result struct {
	Window window.MonthWindow
	Totals map[instrument.SequencerType]Totals
	Lanes  []LaneResult
	// Skipped counts skipped records per reason.
	Skipped map[SkipReason]int
}

// SkippedCount is the number of records that were skipped for any reason.
func (r Result) SkippedCount() int {
	n := 0
	for _, count := range r.Skipped {
		n += count
	}
	return n
}

// SequencerTypes returns the labels present in Totals, sorted.
func (r Result) SequencerTypes() []instrument.SequencerType {
	types := make([]instrument.SequencerType, 0, len(r.Totals))
	for seqType := range r.Totals {
		types = append(types, seqType)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i] < types[j]
	})
	return types
}

// SummaryLines converts Totals into summary file lines, sorted by label.
func (r Result) SummaryLines() []statsfile.SummaryLine {
	var lines []statsfile.SummaryLine
	for _, seqType := range r.SequencerTypes() {
		totals := r.Totals[seqType]
		lines = append(lines, statsfile.SummaryLine{
			SequencerType: seqType,
			LaneCount:     totals.LaneCount,
			ReadCount:     totals.ReadCount,
			BaseCount:     totals.BaseCount,
		})
	}
	return lines
}

// ReadCount is the number of reads of a lane, paired-end lanes produce two
// reads per passing-filter cluster.
func ReadCount(pfClusters int64, pairedEnd bool) int64 {
	if pairedEnd {
		return pfClusters * 2
	}
	return pfClusters
}

// BaseCount converts a yield in megabases into bases.
func BaseCount(yieldMbases int64) int64 {
	return yieldMbases * 1_000_000
}
