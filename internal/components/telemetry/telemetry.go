package telemetry

// API is how seqstats components report what happened during a run.
// Components take an API instead of a logger so tests can inject a Recorder
// and assert on skips, failures and counts.
type API interface {
	// ReportBroken reports a failure that stops a component from doing its
	// job, ex. the record query against DNAnexus failing or the stats
	// database rejecting a run.
	//
	// The `id` names the component and the operation as
	// `<component>.<operation>` in lowercase with dashes between words,
	// ex. `client.describe-record` or `run.query`. Details about the failure
	// (the record id, the HTTP status, the wrapped error) go in `params`, not
	// in the id. Each package declares its ids as `report_...` constants.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something a run can carry on from, like a lane
	// that is skipped or an instrument name that falls back to the default
	// label. It uses the same `id` format as ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug reports per-record progress, it is dropped unless the log
	// level is debug.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a count at the end of an operation, ex. the lanes
	// processed by a run. Counts are separate observations and are not summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with the name of the package reporting it,
// ex. `dnanexus: client.describe-record`. Scopes nest, the outermost
// namespace comes first.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI wraps `inner` so reports carry `namespace`. An empty
// namespace leaves ids unchanged.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	if s.namespace == "" {
		return id
	}
	return s.namespace + ": " + id
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
