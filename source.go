package perflog

import "errors"

var (
	// ErrUnsupportedEntryType is returned by a Source that cannot observe the
	// requested category.
	ErrUnsupportedEntryType = errors.New("perflog: unsupported entry type")
	// ErrNoSource is recorded for every registration when Init is given a nil
	// Source.
	ErrNoSource = errors.New("perflog: no source")
)

// ObserveOptions selects what a subscription receives.
type ObserveOptions struct {
	// Type is the category to observe.
	Type EntryType
	// Buffered asks for entries recorded before the subscription as well.
	Buffered bool
}

// BatchFunc receives the entries that became available since the previous
// call. It runs on the source's delivery goroutine and must not block.
type BatchFunc func(Batch)

// Subscription is the handle of one registered observer.
type Subscription interface {
	ID() string
	Type() EntryType
	// Disconnect stops delivery. It is safe to call more than once and from
	// inside the subscription's own callback.
	Disconnect()
}

// Source is a performance-event observation facility: the equivalent of
// PerformanceObserver. Implementations must deliver each entry to a
// subscription at most once and, for buffered subscriptions, replay the
// entries recorded before Observe returned.
type Source interface {
	Observe(opts ObserveOptions, fn BatchFunc) (Subscription, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(opts ObserveOptions, fn BatchFunc) (Subscription, error)

// Observe implements Source.
func (f SourceFunc) Observe(opts ObserveOptions, fn BatchFunc) (Subscription, error) {
	return f(opts, fn)
}
