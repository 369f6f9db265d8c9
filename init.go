package perflog

import (
	"fmt"
	"os"
	"slices"
)

// StartupMessage is the record Init writes before registering trackers.
const StartupMessage = "Starting performance logger"

// Registration is the outcome of registering one tracker.
type Registration struct {
	Metric       Metric
	Type         EntryType
	Subscription Subscription
	Err          error
}

// OK reports whether the tracker is receiving entries.
func (r Registration) OK() bool {
	return r.Err == nil && r.Subscription != nil
}

// Instance is one initialised set of trackers.
type Instance struct {
	config        Config
	registrations []Registration
}

// Init writes the startup record, resolves opts and registers every enabled
// tracker with src in the fixed order dcl, fcp, fp, fid, lcp, cls, tbt,
// resources. A tracker that fails to register, by error or by panic, is
// recorded in its Registration and does not affect the others; Init itself
// never fails. A nil f writes to standard output.
//
// Every call creates an independent Instance. Calling Init twice with the
// same source prints each entry twice.
func Init(src Source, f *Formatter, opts Options) *Instance {
	if f == nil {
		f = New(os.Stdout)
	}
	f.Log(KindMisc, StartupMessage)
	cfg := Resolve(opts)
	inst := &Instance{config: cfg}
	for _, t := range trackers {
		if !cfg.Enabled(t.Metric) {
			continue
		}
		inst.registrations = append(inst.registrations, register(t, src, f, cfg))
	}
	return inst
}

func register(t Tracker, src Source, f *Formatter, cfg Config) (reg Registration) {
	reg = Registration{Metric: t.Metric, Type: t.Type}
	if src == nil {
		reg.Err = ErrNoSource
		return reg
	}
	defer func() {
		if r := recover(); r != nil {
			reg.Subscription = nil
			reg.Err = fmt.Errorf("perflog: observe %s panicked: %v", t.Type, r)
		}
	}()
	sub, err := t.Register(src, f, cfg)
	if err == nil && sub == nil {
		err = fmt.Errorf("perflog: observe %s: source returned no subscription", t.Type)
	}
	reg.Subscription = sub
	reg.Err = err
	return reg
}

// Config returns the resolved configuration.
func (i *Instance) Config() Config { return i.config }

// Registrations returns the outcome of every attempted registration, in
// registration order.
func (i *Instance) Registrations() []Registration {
	return slices.Clone(i.registrations)
}

// Active lists the metrics whose trackers registered successfully.
func (i *Instance) Active() []Metric {
	var out []Metric
	for _, r := range i.registrations {
		if r.OK() {
			out = append(out, r.Metric)
		}
	}
	return out
}

// Disconnect stops every registered tracker. Trackers otherwise live as long
// as their source.
func (i *Instance) Disconnect() {
	for _, r := range i.registrations {
		if r.Subscription != nil {
			r.Subscription.Disconnect()
		}
	}
}
