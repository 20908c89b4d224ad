package lanereport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/textutil"
)

const (
	report_extract_field = "lane-report.extract-field"
)

// NotAvailable is the value of a field that could not be scraped.
const NotAvailable = "NA"

// Field names a metric of the bcl2fastq "Lane Summary" table.
type Field string

const (
	PFClusters             Field = "pf_clusters"
	PercPerfectBarcode     Field = "perc_perfect_barcode"
	PercOneMismatchBarcode Field = "perc_one_mismatch_barcode"
	YieldMbases            Field = "yield_mbases"
	PercPF                 Field = "perc_pf"
	PercQ30Bases           Field = "perc_q30_bases"
	MeanQuality            Field = "mean_quality"
)

// Column is one entry of the lane table layout. Offset is the line distance
// from the `<td>{lane}</td>` line as bcl2fastq writes it, which is also the
// column index in the table's header row.
type Column struct {
	Offset int
	Field  Field
	// Header is the normalized text (see textutil.NormalizeName) of the
	// column's header cell.
	Header string
	cell   *regexp.Regexp
}

var cellPattern = regexp.MustCompile(`<td>(.+)</td>`)

// Schema is the lane table layout produced by bcl2fastq v2.
// Offset 2 ("% of the lane") is not collected.
var Schema = []Column{
	{Offset: 1, Field: PFClusters, Header: "pfclusters", cell: cellPattern},
	{Offset: 3, Field: PercPerfectBarcode, Header: "%perfectbarcode", cell: cellPattern},
	{Offset: 4, Field: PercOneMismatchBarcode, Header: "%onemismatchbarcode", cell: cellPattern},
	{Offset: 5, Field: YieldMbases, Header: "yield(mbases)", cell: cellPattern},
	{Offset: 6, Field: PercPF, Header: "%pfclusters", cell: cellPattern},
	{Offset: 7, Field: PercQ30Bases, Header: "%>=q30bases", cell: cellPattern},
	{Offset: 8, Field: MeanQuality, Header: "meanqualityscore", cell: cellPattern},
}

// LaneMetrics holds the values scraped for a lane, verbatim except for
// YieldMbases which has its thousands separators removed.
type LaneMetrics struct {
	YieldMbases            string
	PercPF                 string
	PFClusters             string
	PercPerfectBarcode     string
	PercOneMismatchBarcode string
	PercQ30Bases           string
	MeanQuality            string
}

func (m *LaneMetrics) set(field Field, value string) {
	switch field {
	case PFClusters:
		m.PFClusters = value
	case PercPerfectBarcode:
		m.PercPerfectBarcode = value
	case PercOneMismatchBarcode:
		m.PercOneMismatchBarcode = value
	case YieldMbases:
		m.YieldMbases = textutil.StripThousands(value)
	case PercPF:
		m.PercPF = value
	case PercQ30Bases:
		m.PercQ30Bases = value
	case MeanQuality:
		m.MeanQuality = value
	}
}

// Get returns the value of a field.
func (m LaneMetrics) Get(field Field) string {
	switch field {
	case PFClusters:
		return m.PFClusters
	case PercPerfectBarcode:
		return m.PercPerfectBarcode
	case PercOneMismatchBarcode:
		return m.PercOneMismatchBarcode
	case YieldMbases:
		return m.YieldMbases
	case PercPF:
		return m.PercPF
	case PercQ30Bases:
		return m.PercQ30Bases
	case MeanQuality:
		return m.MeanQuality
	}
	return NotAvailable
}

func parseCount(field Field, value string) (int64, error) {
	count, err := strconv.ParseInt(textutil.StripThousands(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	if count < 0 {
		return 0, fmt.Errorf("parse %s %q: negative count", field, value)
	}
	return count, nil
}

// PFClusterCount parses the passing-filter cluster count.
func (m LaneMetrics) PFClusterCount() (int64, error) {
	return parseCount(PFClusters, m.PFClusters)
}

// YieldMbaseCount parses the yield in megabases.
func (m LaneMetrics) YieldMbaseCount() (int64, error) {
	return parseCount(YieldMbases, m.YieldMbases)
}

// Extract locates the row of `lane` in a lane.html report and reads its
// metrics. It returns false if the report has no row for the lane.
//
// Fields whose line does not hold a table cell are set to NotAvailable and
// reported as warnings, extraction of the other fields continues.
func Extract(report string, lane int, tel telemetry.API) (LaneMetrics, bool) {
	lines := strings.Split(report, "\n")
	marker := fmt.Sprintf("<td>%d</td>", lane)

	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}

		var metrics LaneMetrics
		for _, col := range Schema {
			metrics.set(col.Field, readCell(lines, i+col.Offset, col, lane, tel))
		}
		return metrics, true
	}

	return LaneMetrics{}, false
}

func readCell(lines []string, idx int, col Column, lane int, tel telemetry.API) string {
	if idx >= len(lines) {
		tel.ReportWarning(
			report_extract_field,
			fmt.Errorf("line %d is past the end of the report", idx+1),
			col.Field,
			lane,
		)
		return NotAvailable
	}

	groups := col.cell.FindStringSubmatch(lines[idx])
	if len(groups) < 2 {
		tel.ReportWarning(
			report_extract_field,
			fmt.Errorf("could not find value in html line: %s", lines[idx]),
			col.Field,
			lane,
		)
		return NotAvailable
	}
	return groups[1]
}
