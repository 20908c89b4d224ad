package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/chrono"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/telemetry"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/db"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/dnanexus"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/statsfile"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/window"
	configlibsql "github.com/StanfordBioinformatics/trajectoread-monitor/lib/configutil/libsql"

	"github.com/stretchr/testify/require"
)

func TestResolveWindow(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	clock := chrono.FixedImpl{Time: time.Date(2017, time.January, 1, 6, 0, 0, 0, la)}

	testCases := []struct {
		name     string
		flags    windowFlags
		expected string
		usage    bool
		invalid  bool
	}{
		{
			name:     "cron in january",
			flags:    windowFlags{Cron: true},
			expected: "2016-12",
		},
		{
			name:     "explicit month",
			flags:    windowFlags{Year: 2016, YearSet: true, Month: 3, MonthSet: true},
			expected: "2016-3",
		},
		{
			name:  "nothing given",
			flags: windowFlags{},
			usage: true,
		},
		{
			name:  "month without year",
			flags: windowFlags{Month: 3, MonthSet: true},
			usage: true,
		},
		{
			name:  "cron and year",
			flags: windowFlags{Cron: true, Year: 2016, YearSet: true},
			usage: true,
		},
		{
			name:    "month out of range",
			flags:   windowFlags{Year: 2016, YearSet: true, Month: 13, MonthSet: true},
			invalid: true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			w, err := resolveWindow(test.flags, clock)
			switch {
			case test.usage:
				require.ErrorIs(t, err, errUsage)
			case test.invalid:
				require.ErrorIs(t, err, window.ErrInvalidMonth)
			default:
				require.NoError(t, err)
				require.Equal(t, test.expected, w.String())
				require.Equal(t, la, w.After.Location())
			}
		})
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seqstats.json5")

	cfg, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)

	require.NoError(t, os.WriteFile(path, []byte(`{
		dnanexus: { token: "abc", requests_per_second: 2 },
		email: { server: "smtp.example.com", port: 25, recipients: ["a@example.com"] },
	}`), 0644))
	cfg, err = readConfig(path)
	require.NoError(t, err)
	require.Equal(t, "abc", cfg.Dnanexus.Token)
	require.Equal(t, 2.0, cfg.Dnanexus.ClientOptions().RequestsPerSecond)
	require.Equal(t, "SCGPMRun", cfg.Dnanexus.RecordType)
	require.Equal(t, "0 6 1 * *", cfg.Schedule)
	require.True(t, cfg.Email.Enabled())
}

func TestReadConfigUnlimitedRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqstats.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ dnanexus: { requests_per_second: 0 } }`), 0644))

	cfg, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, 0.0, cfg.Dnanexus.ClientOptions().RequestsPerSecond)
	require.Equal(t, "SCGPMRun", cfg.Dnanexus.RecordType)

	require.NoError(t, os.WriteFile(path, []byte(`{ dnanexus: { token: "abc" } }`), 0644))
	cfg, err = readConfig(path)
	require.NoError(t, err)
	require.Equal(t, 10.0, cfg.Dnanexus.ClientOptions().RequestsPerSecond)
}

func TestTokenFromEnvironment(t *testing.T) {
	t.Setenv(tokenEnv, "from-env")
	require.Equal(t, "from-env", DnanexusConfig{}.ClientOptions().Token)
	require.Equal(t, "configured", DnanexusConfig{Token: "configured"}.ClientOptions().Token)
}

type memoryPlatform struct {
	descriptions map[string]dnanexus.RecordDescription
	reports      map[string]string
}

func (p memoryPlatform) FindRecords(ctx context.Context, query dnanexus.RecordQuery) ([]dnanexus.ObjectRef, error) {
	var refs []dnanexus.ObjectRef
	for _, id := range []string{"record-1", "record-2"} {
		refs = append(refs, dnanexus.ObjectRef{Project: query.Project, ID: id})
	}
	return refs, nil
}

func (p memoryPlatform) DescribeRecord(ctx context.Context, ref dnanexus.ObjectRef) (dnanexus.RecordDescription, error) {
	return p.descriptions[ref.ID], nil
}

func (p memoryPlatform) FindOneFile(ctx context.Context, query dnanexus.FileQuery) (dnanexus.ObjectRef, error) {
	if _, ok := p.reports[query.Project]; !ok {
		return dnanexus.ObjectRef{}, dnanexus.ErrNotFound
	}
	return dnanexus.ObjectRef{Project: query.Project, ID: "file-1"}, nil
}

func (p memoryPlatform) ReadFile(ctx context.Context, ref dnanexus.ObjectRef) (string, error) {
	return p.reports[ref.Project], nil
}

func description(t testing.TB, laneProject, seqInstrument, production string) dnanexus.RecordDescription {
	details := map[string]json.RawMessage{}
	for key, value := range map[string]string{
		"laneProject": laneProject,
		"lane":        "1",
		"run":         "160301_" + seqInstrument + "_0123_AH3LKMBBXX",
	} {
		raw, err := json.Marshal(value)
		require.NoError(t, err)
		details[key] = raw
	}
	return dnanexus.RecordDescription{
		Details: details,
		Properties: map[string]string{
			"production":     production,
			"paired_end":     "true",
			"seq_instrument": seqInstrument,
		},
	}
}

const laneOneReport = `<table>
<tr>
<th>Lane</th>
<th>PF Clusters</th>
<th>% of the<br>lane</th>
<th>% Perfect<br>barcode</th>
<th>% One mismatch<br>barcode</th>
<th>Yield (Mbases)</th>
<th>% PF<br>Clusters</th>
<th>% &gt;= Q30<br>bases</th>
<th>Mean Quality<br>Score</th>
</tr>
<tr>
<td>1</td>
<td>1,000,000</td>
<td>100.00</td>
<td>97.50</td>
<td>2.50</td>
<td>5,000</td>
<td>81.20</td>
<td>92.10</td>
<td>38.70</td>
</tr>
</table>
`

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()
	w, err := window.New(2016, 3, time.UTC)
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.Database = configlibsql.Struct{File: filepath.Join(dir, "history.db")}

	var out bytes.Buffer
	summaryPath := filepath.Join(dir, "seq_stats.txt")
	r := runner{
		cfg: cfg,
		opts: runOptions{
			Outfile:   summaryPath,
			DetailDir: dir,
			Out:       &out,
		},
		api: memoryPlatform{
			descriptions: map[string]dnanexus.RecordDescription{
				"record-1": description(t, "project-lane1", "Gadget", "true"),
				"record-2": description(t, "project-lane2", "Cooper", "false"),
			},
			reports: map[string]string{
				"project-lane1": laneOneReport,
				"project-lane2": laneOneReport,
			},
		},
		tel: telemetry.NewRecorder(),
	}

	for i := 0; i < 2; i++ {
		result, err := r.run(context.Background(), w)
		require.NoError(t, err)
		require.Len(t, result.Lanes, 1)
	}

	detail, err := os.ReadFile(filepath.Join(dir, "2016-3_seq-stats.txt"))
	require.NoError(t, err)
	require.Equal(t, "2016\t3\t160301_Gadget_0123_AH3LKMBBXX\t1\t2000000\t5000000000\tHiSeq_4000\n", string(detail))

	summary, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	line := "2016\t3\t1\t2000000\t5000000000\tHiSeq_4000\n"
	require.Equal(t, statsfile.SummaryHeader+line+line, string(summary))

	require.Contains(t, out.String(), "HiSeq_4000")
	require.Contains(t, out.String(), "5000000000")

	sqldb, err := cfg.Database.OpenDB()
	require.NoError(t, err)
	defer sqldb.Close()
	store, err := db.Open(context.Background(), sqldb, telemetry.NewRecorder())
	require.NoError(t, err)
	totals, err := store.MonthlyTotals(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.Equal(t, "HiSeq_4000", totals[0].SequencerType)
	require.EqualValues(t, 2_000_000, totals[0].ReadCount)

	count, err := store.LaneCount(context.Background(), totals[0].RunID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count, fmt.Sprintf("run %s", totals[0].RunID))
}
