package perflog

// Kind labels a record in the console output.
type Kind string

const (
	KindDCL  Kind = "dcl"
	KindFCP  Kind = "fcp"
	KindFP   Kind = "fp"
	KindFID  Kind = "fid"
	KindLCP  Kind = "lcp"
	KindCLS  Kind = "cls"
	KindTBT  Kind = "tbt"
	KindLoad Kind = "load"
	KindMisc Kind = "misc"
)

// Metric names one tracker and its configuration switch.
type Metric string

const (
	MetricDCL       Metric = "dcl"
	MetricFCP       Metric = "fcp"
	MetricFP        Metric = "fp"
	MetricFID       Metric = "fid"
	MetricLCP       Metric = "lcp"
	MetricCLS       Metric = "cls"
	MetricTBT       Metric = "tbt"
	MetricResources Metric = "resources"
)

// Metrics lists every tracker in registration order.
var Metrics = []Metric{
	MetricDCL,
	MetricFCP,
	MetricFP,
	MetricFID,
	MetricLCP,
	MetricCLS,
	MetricTBT,
	MetricResources,
}

// ParseMetric accepts a tracker name as printed by Metric.String. The long
// forms "resource" and "longtask" are accepted as well.
func ParseMetric(value string) (Metric, bool) {
	switch value {
	case "dcl", "fcp", "fp", "fid", "lcp", "cls", "tbt", "resources":
		return Metric(value), true
	case "resource":
		return MetricResources, true
	case "longtask", "long-task":
		return MetricTBT, true
	default:
		return "", false
	}
}

func (m Metric) String() string { return string(m) }
