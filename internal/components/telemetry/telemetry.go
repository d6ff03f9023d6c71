package telemetry

import "fmt"

// API is where components send what they observe instead of logging
// directly, so tests can swap in a RecorderAPI and assert on it.
//
// Report ids name the component that observed something, like
// "client.get-schedule", lowercase with dots between type and method.
// Anything more specific goes into params.
type API interface {
	// ReportBroken means the component cannot do its job until someone
	// looks at it, for example the portal changed its markup.
	ReportBroken(id string, params ...any)
	// ReportWarning is for expected failures worth a look, like a wrong
	// password or an expired session.
	ReportWarning(id string, params ...any)
	ReportDebug(msg string, params ...any)
	// ReportCount is a gauge sample, not an increment.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id and debug message with "<scope>: ".
type ScopedAPI struct {
	scope string
	inner API
}

func NewScopedAPI(scope string, inner API) ScopedAPI {
	return ScopedAPI{scope: scope, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s: %s", s.scope, id)
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
