package perflog

// handler turns one entry into a record plus auxiliary lines.
type handler func(g *Group, e Entry, cfg Config)

// Tracker binds one metric to the observation category it reads.
type Tracker struct {
	Metric Metric
	Type   EntryType
	handle handler
}

// trackers is the fixed registration order.
var trackers = []Tracker{
	{Metric: MetricDCL, Type: EntryNavigation, handle: trackDocumentReady},
	{Metric: MetricFCP, Type: EntryPaint, handle: trackPaint(KindFCP, "first-contentful-paint")},
	{Metric: MetricFP, Type: EntryPaint, handle: trackPaint(KindFP, "first-paint")},
	{Metric: MetricFID, Type: EntryFirstInput, handle: trackFirstInput},
	{Metric: MetricLCP, Type: EntryLargestContentfulPaint, handle: trackLargestContentfulPaint},
	{Metric: MetricCLS, Type: EntryLayoutShift, handle: trackLayoutShift},
	{Metric: MetricTBT, Type: EntryLongTask, handle: trackLongTask},
	{Metric: MetricResources, Type: EntryResource, handle: trackResource},
}

// Trackers returns every tracker in registration order.
func Trackers() []Tracker {
	out := make([]Tracker, len(trackers))
	copy(out, trackers)
	return out
}

// TrackerFor returns the tracker of m.
func TrackerFor(m Metric) (Tracker, bool) {
	for _, t := range trackers {
		if t.Metric == m {
			return t, true
		}
	}
	return Tracker{}, false
}

// Register subscribes t to src with buffering enabled. Every delivered entry
// is written to f as one group.
func (t Tracker) Register(src Source, f *Formatter, cfg Config) (Subscription, error) {
	return src.Observe(ObserveOptions{Type: t.Type, Buffered: true}, func(batch Batch) {
		for _, e := range batch {
			t.Handle(f, cfg, e)
		}
	})
}

// Handle writes the output for a single entry. A panic while formatting the
// entry discards its partial output and is not propagated.
func (t Tracker) Handle(f *Formatter, cfg Config, e Entry) {
	if e == nil || t.handle == nil {
		return
	}
	g := f.Group()
	defer func() {
		if recover() != nil {
			g.Discard()
			return
		}
		g.Flush()
	}()
	t.handle(g, normalize(e), cfg)
}
