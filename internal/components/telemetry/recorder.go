package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_DEBUG
	REPORT_COUNT
)

type Report struct {
	Kind   ReportKind
	Id     string
	Params []any
	Count  int64
}

// RecorderAPI keeps every report in memory so tests can assert on what a
// component reported.
type RecorderAPI struct {
	mutex   *sync.Mutex
	reports *[]Report
}

func NewRecorderAPI() RecorderAPI {
	return RecorderAPI{
		mutex:   &sync.Mutex{},
		reports: &[]Report{},
	}
}

func (r RecorderAPI) add(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	*r.reports = append(*r.reports, report)
}

func (r RecorderAPI) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: REPORT_BROKEN, Id: id, Params: params})
}

func (r RecorderAPI) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: REPORT_WARNING, Id: id, Params: params})
}

func (r RecorderAPI) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: REPORT_DEBUG, Id: msg, Params: params})
}

func (r RecorderAPI) ReportCount(id string, count int64) {
	r.add(Report{Kind: REPORT_COUNT, Id: id, Count: count})
}

// Reports returns a copy of the reports of the given kind.
func (r RecorderAPI) Reports(kind ReportKind) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range *r.reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// HasReport checks if a report of the given kind has an id ending with `suffix`,
// the suffix form ignores ScopedAPI scopes.
func (r RecorderAPI) HasReport(kind ReportKind, suffix string) bool {
	for _, report := range r.Reports(kind) {
		if strings.HasSuffix(report.Id, suffix) {
			return true
		}
	}
	return false
}
