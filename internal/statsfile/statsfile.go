package statsfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/instrument"
)

// SummaryHeader is the first line of a summary file.
const SummaryHeader = "Year\tMonth\tLane_Count\tRead_Count\tBase_Count\tSeq_Type\n"

// DefaultSummaryPath is where summary rows are appended when no outfile is given.
const DefaultSummaryPath = "seq_stats.txt"

// DetailLine is one processed lane.
type DetailLine struct {
	RunName       string
	LaneIndex     int
	ReadCount     int64
	BaseCount     int64
	SequencerType instrument.SequencerType
}

// SummaryLine is the monthly total of one sequencer type.
type SummaryLine struct {
	SequencerType instrument.SequencerType
	LaneCount     int64
	ReadCount     int64
	BaseCount     int64
}

// CreateDetail truncates (or creates) the per-lane file of a month.
func CreateDetail(path string) (*os.File, error) {
	return os.Create(path)
}

// WriteDetailLine writes a tab separated lane line:
// year, month, run name, lane index, read count, base count, sequencer type.
func WriteDetailLine(w io.Writer, year int, month time.Month, line DetailLine) error {
	_, err := fmt.Fprintf(
		w, "%d\t%d\t%s\t%d\t%d\t%d\t%s\n",
		year, int(month),
		line.RunName, line.LaneIndex,
		line.ReadCount, line.BaseCount,
		line.SequencerType,
	)
	return err
}

// EnsureSummary creates the summary file with its header if it does not
// exist yet. The header is never written to an existing file.
func EnsureSummary(path string) (created bool, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = writeHeader(f)
	if err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err != nil {
		// a file without its header would never get one
		os.Remove(path)
		return false, err
	}
	return true, nil
}

var writeHeader = func(w io.Writer) error {
	_, err := io.WriteString(w, SummaryHeader)
	return err
}

// AppendSummary appends one line per sequencer type (sorted by label) to
// the summary file, creating it with a header first if needed.
func AppendSummary(path string, year int, month time.Month, lines []SummaryLine) error {
	_, err := EnsureSummary(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()

	sorted := append([]SummaryLine{}, lines...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SequencerType < sorted[j].SequencerType
	})

	for _, line := range sorted {
		_, err := fmt.Fprintf(
			f, "%d\t%d\t%d\t%d\t%d\t%s\n",
			year, int(month),
			line.LaneCount, line.ReadCount, line.BaseCount,
			line.SequencerType,
		)
		if err != nil {
			return err
		}
	}
	return f.Close()
}
