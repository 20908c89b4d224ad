package db

import (
	"context"
	"testing"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (Store, *telemetry.Recorder) {
	sqldb := testutil.SetupStore(t, testutil.StoreParams{
		Name:     "db",
		DbSchema: Schema,
	})
	rec := telemetry.NewRecorder()
	return NewStore(New(sqldb), NewMakeTx(sqldb), rec), rec
}

func TestSaveRun(t *testing.T) {
	store, rec := setupStore(t)
	ctx := context.Background()

	id, err := store.SaveRun(ctx, RunRecord{
		Year:         2016,
		Month:        time.March,
		StartedAt:    time.Date(2016, time.April, 1, 6, 0, 0, 0, time.UTC),
		LanesSkipped: 2,
		Lanes: []LaneRecord{
			{
				LaneName:      "160301_GADGET_0123_AH3LKMBBXX_L1",
				SequencerType: "HiSeq_4000",
				ReadCount:     2_000_000,
				BaseCount:     5_000_000_000,
				PercPF:        "74.94",
				PercQ30Bases:  "91.46",
				MeanQuality:   "38.44",
			},
		},
		Totals: []TotalRecord{
			{SequencerType: "HiSeq_4000", LaneCount: 1, ReadCount: 2_000_000, BaseCount: 5_000_000_000},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	count, err := store.LaneCount(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Empty(t, rec.Reports("broken", ""))
}

func TestSaveRunRollsBack(t *testing.T) {
	store, rec := setupStore(t)
	ctx := context.Background()

	lane := LaneRecord{LaneName: "160301_GADGET_0123_AH3LKMBBXX_L1", SequencerType: "HiSeq_4000"}
	_, err := store.SaveRun(ctx, RunRecord{
		Year:   2016,
		Month:  time.March,
		Lanes:  []LaneRecord{lane, lane},
		Totals: []TotalRecord{{SequencerType: "HiSeq_4000", LaneCount: 2}},
	})
	require.Error(t, err)
	require.Len(t, rec.Reports("broken", report_db_query), 1)

	totals, err := store.MonthlyTotals(ctx)
	require.NoError(t, err)
	require.Empty(t, totals)
}

func TestMonthlyTotals(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	save := func(month time.Month, startedAt time.Time, totals ...TotalRecord) string {
		id, err := store.SaveRun(ctx, RunRecord{
			Year:      2016,
			Month:     month,
			StartedAt: startedAt,
			Totals:    totals,
		})
		require.NoError(t, err)
		return id
	}

	first := time.Date(2016, time.April, 1, 6, 0, 0, 0, time.UTC)
	save(time.March, first, TotalRecord{SequencerType: "HiSeq_4000", LaneCount: 1})
	rerun := save(
		time.March, first.Add(time.Hour),
		TotalRecord{SequencerType: "MiSeq", LaneCount: 3, ReadCount: 30, BaseCount: 3_000_000},
		TotalRecord{SequencerType: "HiSeq_4000", LaneCount: 2, ReadCount: 40, BaseCount: 8_000_000},
	)
	feb := save(time.February, first.AddDate(0, -1, 0), TotalRecord{SequencerType: "HiSeq_2500", LaneCount: 5})

	totals, err := store.MonthlyTotals(ctx)
	require.NoError(t, err)

	type row struct {
		RunID         string
		Month         time.Month
		SequencerType string
		LaneCount     int64
	}
	var got []row
	for _, total := range totals {
		require.Equal(t, 2016, total.Year)
		got = append(got, row{total.RunID, total.Month, total.SequencerType, total.LaneCount})
	}

	expected := []row{
		{feb, time.February, "HiSeq_2500", 5},
		{rerun, time.March, "HiSeq_4000", 2},
		{rerun, time.March, "MiSeq", 3},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("monthly totals (-want +got):\n%s", diff)
	}
}
