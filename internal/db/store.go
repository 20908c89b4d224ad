package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/assert"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"

	"github.com/mazen160/go-random"
)

const (
	report_db_query = "db.query"
	report_save_run = "store.save-run"
)

// LaneRecord is one processed lane of a run.
type LaneRecord struct {
	LaneName      string
	SequencerType string
	ReadCount     int64
	BaseCount     int64
	PercPF        string
	PercQ30Bases  string
	MeanQuality   string
}

// TotalRecord is the total of one sequencer type in a run.
type TotalRecord struct {
	SequencerType string
	LaneCount     int64
	ReadCount     int64
	BaseCount     int64
}

// RunRecord is everything stored about one aggregation pass.
type RunRecord struct {
	Year         int
	Month        time.Month
	StartedAt    time.Time
	LanesSkipped int
	Lanes        []LaneRecord
	Totals       []TotalRecord
}

// MonthlyTotal is a stored total, as returned by MonthlyTotals.
type MonthlyTotal struct {
	RunID     string
	Year      int
	Month     time.Month
	StartedAt time.Time
	TotalRecord
}

// Store keeps the history of aggregation runs.
type Store struct {
	qry    *Queries
	makeTx MakeTx
	tel    telemetry.API
}

// Open applies the schema to `sqldb` and returns a Store over it.
func Open(ctx context.Context, sqldb *sql.DB, tel telemetry.API) (Store, error) {
	_, err := sqldb.ExecContext(ctx, Schema)
	if err != nil {
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return NewStore(New(sqldb), NewMakeTx(sqldb), tel), nil
}

func NewStore(qry *Queries, makeTx MakeTx, tel telemetry.API) Store {
	assert.NotNil(qry, "qry")
	assert.NotNil(makeTx, "makeTx")
	assert.NotNil(tel, "tel")

	return Store{
		qry:    qry,
		makeTx: makeTx,
		tel:    telemetry.NewScopedAPI("db", tel),
	}
}

// SaveRun stores a run with its lanes and totals, it returns the id of the
// new run.
func (s Store) SaveRun(ctx context.Context, run RunRecord) (string, error) {
	id, err := random.String(16)
	if err != nil {
		s.tel.ReportBroken(report_save_run, fmt.Errorf("generate run id: %w", err))
		return "", err
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return "", err
	}
	defer discard()

	runParams := CreateRunParams{
		ID:             id,
		Year:           int64(run.Year),
		Month:          int64(run.Month),
		StartedAt:      run.StartedAt.UnixMilli(),
		LanesProcessed: int64(len(run.Lanes)),
		LanesSkipped:   int64(run.LanesSkipped),
	}
	err = tx.CreateRun(ctx, runParams)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateRun", runParams)
		return "", err
	}

	for _, lane := range run.Lanes {
		err = tx.CreateLaneStat(ctx, CreateLaneStatParams{
			RunID:         id,
			LaneName:      lane.LaneName,
			SequencerType: lane.SequencerType,
			ReadCount:     lane.ReadCount,
			BaseCount:     lane.BaseCount,
			PercPf:        lane.PercPF,
			PercQ30Bases:  lane.PercQ30Bases,
			MeanQuality:   lane.MeanQuality,
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "CreateLaneStat", lane.LaneName)
			return "", err
		}
	}

	for _, total := range run.Totals {
		err = tx.CreateSequencerTotal(ctx, CreateSequencerTotalParams{
			RunID:         id,
			SequencerType: total.SequencerType,
			LaneCount:     total.LaneCount,
			ReadCount:     total.ReadCount,
			BaseCount:     total.BaseCount,
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "CreateSequencerTotal", total.SequencerType)
			return "", err
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return "", err
	}
	return id, nil
}

// MonthlyTotals returns the totals of the latest run of every stored month,
// ordered by month then sequencer type.
func (s Store) MonthlyTotals(ctx context.Context) ([]MonthlyTotal, error) {
	rows, err := s.qry.GetLatestMonthlyTotals(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestMonthlyTotals")
		return nil, err
	}

	out := make([]MonthlyTotal, len(rows))
	for i, row := range rows {
		out[i] = MonthlyTotal{
			RunID:     row.RunID,
			Year:      int(row.Year),
			Month:     time.Month(row.Month),
			StartedAt: time.UnixMilli(row.StartedAt),
			TotalRecord: TotalRecord{
				SequencerType: row.SequencerType,
				LaneCount:     row.LaneCount,
				ReadCount:     row.ReadCount,
				BaseCount:     row.BaseCount,
			},
		}
	}
	return out, nil
}

// LaneCount returns the number of lanes stored for a run.
func (s Store) LaneCount(ctx context.Context, runID string) (int64, error) {
	count, err := s.qry.GetRunLaneCount(ctx, runID)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetRunLaneCount", runID)
		return 0, err
	}
	return count, nil
}
