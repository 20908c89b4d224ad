package lanereport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/htmlutil"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("seqstats.internal.lanereport")

var (
	// ErrNoLaneTable means the report has no header row starting with "Lane".
	ErrNoLaneTable = errors.New("no lane table header found")
	// ErrSchemaMismatch means the lane table columns are not laid out as Schema expects.
	ErrSchemaMismatch = errors.New("lane table does not match expected schema")
)

// CheckSchema verifies that the lane table header of a report lists the
// columns of Schema at their expected positions.
func CheckSchema(ctx context.Context, report string) error {
	ctx, span := tracer.Start(ctx, "CheckSchema")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(report))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return err
	}

	var header []string
	for _, cells := range htmlutil.RowCells(ctx, doc.Find("tr:has(th)")) {
		if len(cells) > 0 && textutil.NormalizeName(cells[0]) == "lane" {
			header = cells
			break
		}
	}
	if header == nil {
		span.SetStatus(codes.Error, "no lane table")
		return ErrNoLaneTable
	}

	for _, col := range Schema {
		if col.Offset >= len(header) {
			err := fmt.Errorf("%w: missing column %d (%s)", ErrSchemaMismatch, col.Offset, col.Field)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		got := textutil.NormalizeName(header[col.Offset])
		if got != col.Header {
			err := fmt.Errorf(
				"%w: column %d is %q, expected %q (%s)",
				ErrSchemaMismatch, col.Offset, header[col.Offset], col.Header, col.Field,
			)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}
