package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics so that components can be tested for
// the things they report.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that broke in a way that should be addressed.
	//
	// The `id` identifies the **component** that broke, not the line of code. A failing
	// HTTP request inside the bilibili fetcher is reported as `bilibili.fetch`, the
	// transport detail belongs in the params or a wrapped error.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	//
	// ScopedAPI takes care of the package level prefix, so an id is usually just
	// `<struct or intf>.<method>`. See the `report_...` constants in each package.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is not broken but may be worth a look,
	// ex. a platform that fell back to estimated data.
	ReportWarning(id string, params ...any)

	// ReportDebug reports debug information that is ignored in production.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the count of an event at the current time. Counts are points
	// of data over time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id and message with a namespace.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}

// NoopAPI discards everything.
type NoopAPI struct{}

func (NoopAPI) ReportBroken(id string, params ...any)  {}
func (NoopAPI) ReportWarning(id string, params ...any) {}
func (NoopAPI) ReportDebug(msg string, params ...any)  {}
func (NoopAPI) ReportCount(id string, count int64)     {}
