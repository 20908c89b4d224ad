package db

import (
	"context"
)

const createRun = `insert into aggregation_run (
    id, year, month, started_at, lanes_processed, lanes_skipped
) values (?, ?, ?, ?, ?, ?)`

type CreateRunParams struct {
	ID             string
	Year           int64
	Month          int64
	StartedAt      int64
	LanesProcessed int64
	LanesSkipped   int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun,
		arg.ID,
		arg.Year,
		arg.Month,
		arg.StartedAt,
		arg.LanesProcessed,
		arg.LanesSkipped,
	)
	return err
}

const createLaneStat = `insert into lane_stat (
    run_id, lane_name, sequencer_type, read_count, base_count,
    perc_pf, perc_q30_bases, mean_quality
) values (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateLaneStatParams struct {
	RunID         string
	LaneName      string
	SequencerType string
	ReadCount     int64
	BaseCount     int64
	PercPf        string
	PercQ30Bases  string
	MeanQuality   string
}

func (q *Queries) CreateLaneStat(ctx context.Context, arg CreateLaneStatParams) error {
	_, err := q.db.ExecContext(ctx, createLaneStat,
		arg.RunID,
		arg.LaneName,
		arg.SequencerType,
		arg.ReadCount,
		arg.BaseCount,
		arg.PercPf,
		arg.PercQ30Bases,
		arg.MeanQuality,
	)
	return err
}

const createSequencerTotal = `insert into sequencer_total (
    run_id, sequencer_type, lane_count, read_count, base_count
) values (?, ?, ?, ?, ?)`

type CreateSequencerTotalParams struct {
	RunID         string
	SequencerType string
	LaneCount     int64
	ReadCount     int64
	BaseCount     int64
}

func (q *Queries) CreateSequencerTotal(ctx context.Context, arg CreateSequencerTotalParams) error {
	_, err := q.db.ExecContext(ctx, createSequencerTotal,
		arg.RunID,
		arg.SequencerType,
		arg.LaneCount,
		arg.ReadCount,
		arg.BaseCount,
	)
	return err
}

const getRunLaneCount = `select count(*) from lane_stat where run_id = ?`

func (q *Queries) GetRunLaneCount(ctx context.Context, runID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getRunLaneCount, runID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getLatestMonthlyTotals = `select r.id, r.year, r.month, r.started_at,
    t.sequencer_type, t.lane_count, t.read_count, t.base_count
from sequencer_total t
join aggregation_run r on r.id = t.run_id
where r.rowid = (
    select r2.rowid from aggregation_run r2
    where r2.year = r.year and r2.month = r.month
    order by r2.started_at desc, r2.rowid desc
    limit 1
)
order by r.year, r.month, t.sequencer_type`

type GetLatestMonthlyTotalsRow struct {
	RunID         string
	Year          int64
	Month         int64
	StartedAt     int64
	SequencerType string
	LaneCount     int64
	ReadCount     int64
	BaseCount     int64
}

func (q *Queries) GetLatestMonthlyTotals(ctx context.Context) ([]GetLatestMonthlyTotalsRow, error) {
	rows, err := q.db.QueryContext(ctx, getLatestMonthlyTotals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetLatestMonthlyTotalsRow
	for rows.Next() {
		var i GetLatestMonthlyTotalsRow
		if err := rows.Scan(
			&i.RunID,
			&i.Year,
			&i.Month,
			&i.StartedAt,
			&i.SequencerType,
			&i.LaneCount,
			&i.ReadCount,
			&i.BaseCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
