package perflog

import (
	"fmt"
	"strings"
)

// FirstInputPolicy selects what the first-input tracker reports.
type FirstInputPolicy int

const (
	// FirstInputDelay reports processingStart - startTime, the time the
	// browser spent before it could start handling the input.
	FirstInputDelay FirstInputPolicy = iota
	// FirstInputDuration reports the entry's total duration, from input to
	// the next paint.
	FirstInputDuration
)

// ParseFirstInputPolicy accepts "delay" or "duration" (case insensitive).
func ParseFirstInputPolicy(value string) (FirstInputPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "delay", "input-delay":
		return FirstInputDelay, true
	case "duration", "total":
		return FirstInputDuration, true
	default:
		return FirstInputDelay, false
	}
}

func (p FirstInputPolicy) String() string {
	if p == FirstInputDuration {
		return "duration"
	}
	return "delay"
}

// MarshalText implements encoding.TextMarshaler.
func (p FirstInputPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *FirstInputPolicy) UnmarshalText(text []byte) error {
	parsed, ok := ParseFirstInputPolicy(string(text))
	if !ok {
		return fmt.Errorf("perflog: unknown first-input policy %q", string(text))
	}
	*p = parsed
	return nil
}

// Options is a partial configuration. Nil fields are not supplied and take
// their default when resolved.
type Options struct {
	// Debug prints every raw entry as JSON after its record.
	Debug *bool `yaml:"debug,omitempty" json:"debug,omitempty"`

	DCL       *bool `yaml:"dcl,omitempty" json:"dcl,omitempty"`
	FCP       *bool `yaml:"fcp,omitempty" json:"fcp,omitempty"`
	FP        *bool `yaml:"fp,omitempty" json:"fp,omitempty"`
	FID       *bool `yaml:"fid,omitempty" json:"fid,omitempty"`
	LCP       *bool `yaml:"lcp,omitempty" json:"lcp,omitempty"`
	CLS       *bool `yaml:"cls,omitempty" json:"cls,omitempty"`
	TBT       *bool `yaml:"tbt,omitempty" json:"tbt,omitempty"`
	Resources *bool `yaml:"resources,omitempty" json:"resources,omitempty"`

	// Attribution prints one line per long-task attribution entry.
	Attribution *bool `yaml:"attribution,omitempty" json:"attribution,omitempty"`

	// FirstInput selects delay or duration reporting for first input.
	FirstInput *FirstInputPolicy `yaml:"fid_policy,omitempty" json:"fid_policy,omitempty"`
}

// Bool returns a pointer to v, for building Options literals.
func Bool(v bool) *bool { return &v }

// Policy returns a pointer to p, for building Options literals.
func Policy(p FirstInputPolicy) *FirstInputPolicy { return &p }

// Merge returns o with every field that over supplies replaced by over's
// value. Neither operand is modified.
func (o Options) Merge(over Options) Options {
	merged := o
	mergeBool(&merged.Debug, over.Debug)
	mergeBool(&merged.DCL, over.DCL)
	mergeBool(&merged.FCP, over.FCP)
	mergeBool(&merged.FP, over.FP)
	mergeBool(&merged.FID, over.FID)
	mergeBool(&merged.LCP, over.LCP)
	mergeBool(&merged.CLS, over.CLS)
	mergeBool(&merged.TBT, over.TBT)
	mergeBool(&merged.Resources, over.Resources)
	mergeBool(&merged.Attribution, over.Attribution)
	if over.FirstInput != nil {
		merged.FirstInput = Policy(*over.FirstInput)
	}
	return merged
}

// SetMetric supplies the switch for m. Unknown metrics are ignored.
func (o *Options) SetMetric(m Metric, enabled bool) {
	if field := o.metricField(m); field != nil {
		*field = Bool(enabled)
	}
}

func (o *Options) metricField(m Metric) **bool {
	switch m {
	case MetricDCL:
		return &o.DCL
	case MetricFCP:
		return &o.FCP
	case MetricFP:
		return &o.FP
	case MetricFID:
		return &o.FID
	case MetricLCP:
		return &o.LCP
	case MetricCLS:
		return &o.CLS
	case MetricTBT:
		return &o.TBT
	case MetricResources:
		return &o.Resources
	default:
		return nil
	}
}

func mergeBool(dst **bool, src *bool) {
	if src != nil {
		*dst = Bool(*src)
	}
}

// Config is a fully resolved configuration. It is a plain value; copies do
// not share state.
type Config struct {
	Debug       bool
	DCL         bool
	FCP         bool
	FP          bool
	FID         bool
	LCP         bool
	CLS         bool
	TBT         bool
	Resources   bool
	Attribution bool
	FirstInput  FirstInputPolicy
}

// DefaultConfig returns the built-in defaults: every tracker on, debug off,
// long-task attribution on, first input reported as delay.
func DefaultConfig() Config {
	return Config{
		DCL:         true,
		FCP:         true,
		FP:          true,
		FID:         true,
		LCP:         true,
		CLS:         true,
		TBT:         true,
		Resources:   true,
		Attribution: true,
		FirstInput:  FirstInputDelay,
	}
}

// Resolve overlays opts onto DefaultConfig field by field.
func Resolve(opts Options) Config {
	cfg := DefaultConfig()
	resolveBool(&cfg.Debug, opts.Debug)
	resolveBool(&cfg.DCL, opts.DCL)
	resolveBool(&cfg.FCP, opts.FCP)
	resolveBool(&cfg.FP, opts.FP)
	resolveBool(&cfg.FID, opts.FID)
	resolveBool(&cfg.LCP, opts.LCP)
	resolveBool(&cfg.CLS, opts.CLS)
	resolveBool(&cfg.TBT, opts.TBT)
	resolveBool(&cfg.Resources, opts.Resources)
	resolveBool(&cfg.Attribution, opts.Attribution)
	if opts.FirstInput != nil {
		cfg.FirstInput = *opts.FirstInput
	}
	return cfg
}

func resolveBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Enabled reports whether the tracker for m is switched on.
func (c Config) Enabled(m Metric) bool {
	switch m {
	case MetricDCL:
		return c.DCL
	case MetricFCP:
		return c.FCP
	case MetricFP:
		return c.FP
	case MetricFID:
		return c.FID
	case MetricLCP:
		return c.LCP
	case MetricCLS:
		return c.CLS
	case MetricTBT:
		return c.TBT
	case MetricResources:
		return c.Resources
	default:
		return false
	}
}
