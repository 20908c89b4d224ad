package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	scoped := NewScopedAPI("aggregator", NewScopedAPI("seqstats", rec))

	scoped.ReportWarning("run.skip", "not-production")
	scoped.ReportBroken("run.query", "boom")
	scoped.ReportCount("run.lanes", 3)

	warnings := rec.Reports("warning", "run.skip")
	require.Len(t, warnings, 1)
	require.Equal(t, "seqstats: aggregator: run.skip", warnings[0].ID)
	require.Equal(t, []any{"not-production"}, warnings[0].Params)

	require.Len(t, rec.Reports("broken", ""), 1)

	counts := rec.Reports("count", "run.lanes")
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestScopedAPIIDs(t *testing.T) {
	testCases := []struct {
		namespace string
		expected  string
	}{
		{namespace: "dnanexus", expected: "dnanexus: client.describe-record"},
		{namespace: "", expected: "client.describe-record"},
	}

	for _, test := range testCases {
		rec := NewRecorder()
		scoped := NewScopedAPI(test.namespace, rec)
		scoped.ReportBroken("client.describe-record", "record-1")
		scoped.ReportDebug("client.describe-record")

		broken := rec.Reports("broken", "")
		require.Len(t, broken, 1)
		require.Equal(t, test.expected, broken[0].ID)
		require.Equal(t, []any{"record-1"}, broken[0].Params)

		debug := rec.Reports("debug", "")
		require.Len(t, debug, 1)
		require.Equal(t, test.expected, debug[0].ID)
	}
}
