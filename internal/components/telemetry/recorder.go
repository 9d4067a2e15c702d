package telemetry

import (
	"strings"
	"sync"
)

// Report is a single call made against a RecorderAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// RecorderAPI implements API by keeping every report in memory, it is meant
// to be used in tests to assert that components report what they should.
type RecorderAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func NewRecorderAPI() *RecorderAPI {
	return &RecorderAPI{}
}

func (r *RecorderAPI) add(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *RecorderAPI) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
}

func (r *RecorderAPI) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
}

func (r *RecorderAPI) ReportDebug(msg string, params ...any) {
	r.add("debug", msg, params)
}

func (r *RecorderAPI) ReportCount(id string, count int64) {
	r.add("count", id, []any{count})
}

// Find returns all reports of the given kind whose id ends with `suffix`,
// the suffix match lets tests ignore ScopedAPI namespaces.
func (r *RecorderAPI) Find(kind, suffix string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, rep := range r.reports {
		if rep.Kind == kind && strings.HasSuffix(rep.ID, suffix) {
			out = append(out, rep)
		}
	}
	return out
}
