package perflog

// EntryType is the observation category of an entry, as accepted by
// PerformanceObserver.observe.
type EntryType string

const (
	EntryNavigation             EntryType = "navigation"
	EntryPaint                  EntryType = "paint"
	EntryFirstInput             EntryType = "first-input"
	EntryLargestContentfulPaint EntryType = "largest-contentful-paint"
	EntryLayoutShift            EntryType = "layout-shift"
	EntryLongTask               EntryType = "longtask"
	EntryResource               EntryType = "resource"
)

// EntryTypes lists every category perflog understands.
var EntryTypes = []EntryType{
	EntryNavigation,
	EntryPaint,
	EntryFirstInput,
	EntryLargestContentfulPaint,
	EntryLayoutShift,
	EntryLongTask,
	EntryResource,
}

// Entry is one performance entry. The concrete type is one of
// NavigationTiming, PaintTiming, FirstInputTiming, LargestContentfulPaint,
// LayoutShift, LongTask or ResourceTiming.
type Entry interface {
	// Header returns the fields shared by every entry.
	Header() PerformanceEntry
	isEntry()
}

// PerformanceEntry holds the fields every entry carries. Times are
// milliseconds relative to the page's time origin.
type PerformanceEntry struct {
	Name      string    `json:"name"`
	Type      EntryType `json:"entryType"`
	StartTime float64   `json:"startTime"`
	Duration  float64   `json:"duration"`
}

// Header implements Entry for the embedding variants.
func (e PerformanceEntry) Header() PerformanceEntry { return e }

// NavigationTiming is a PerformanceNavigationTiming entry.
type NavigationTiming struct {
	PerformanceEntry
	NavigationType             string  `json:"type,omitempty"`
	DOMInteractive             float64 `json:"domInteractive"`
	DOMContentLoadedEventStart float64 `json:"domContentLoadedEventStart"`
	DOMContentLoadedEventEnd   float64 `json:"domContentLoadedEventEnd"`
	DOMComplete                float64 `json:"domComplete"`
	LoadEventStart             float64 `json:"loadEventStart"`
	LoadEventEnd               float64 `json:"loadEventEnd"`
}

// PaintTiming is a PerformancePaintTiming entry (first-paint or
// first-contentful-paint).
type PaintTiming struct {
	PerformanceEntry
}

// FirstInputTiming is the PerformanceEventTiming entry of the first input.
type FirstInputTiming struct {
	PerformanceEntry
	ProcessingStart float64 `json:"processingStart"`
	ProcessingEnd   float64 `json:"processingEnd"`
	Cancelable      bool    `json:"cancelable"`
	Target          *Node   `json:"target,omitempty"`
}

// LargestContentfulPaint is a LargestContentfulPaint entry.
type LargestContentfulPaint struct {
	PerformanceEntry
	RenderTime float64 `json:"renderTime"`
	LoadTime   float64 `json:"loadTime"`
	Size       int64   `json:"size"`
	ID         string  `json:"id,omitempty"`
	URL        string  `json:"url,omitempty"`
	Element    *Node   `json:"element,omitempty"`
}

// LayoutShiftSource is one region that moved during a layout shift.
type LayoutShiftSource struct {
	Node         *Node `json:"node,omitempty"`
	PreviousRect Rect  `json:"previousRect"`
	CurrentRect  Rect  `json:"currentRect"`
}

// LayoutShift is a LayoutShift entry.
type LayoutShift struct {
	PerformanceEntry
	Value          float64             `json:"value"`
	HadRecentInput bool                `json:"hadRecentInput"`
	LastInputTime  float64             `json:"lastInputTime"`
	Sources        []LayoutShiftSource `json:"sources,omitempty"`
}

// TaskAttribution is a TaskAttributionTiming entry of a long task.
type TaskAttribution struct {
	PerformanceEntry
	ContainerType string `json:"containerType,omitempty"`
	ContainerSrc  string `json:"containerSrc,omitempty"`
	ContainerID   string `json:"containerId,omitempty"`
	ContainerName string `json:"containerName,omitempty"`
}

func (a TaskAttribution) String() string {
	s := "        " + a.Name
	if a.ContainerType != "" {
		s += " in " + a.ContainerType
	}
	if a.ContainerSrc != "" {
		s += " " + a.ContainerSrc
	}
	if a.ContainerID != "" {
		s += " #" + a.ContainerID
	}
	if a.ContainerName != "" {
		s += " name=" + a.ContainerName
	}
	return s
}

// LongTask is a PerformanceLongTaskTiming entry.
type LongTask struct {
	PerformanceEntry
	Attribution []TaskAttribution `json:"attribution,omitempty"`
}

// ResourceTiming is a PerformanceResourceTiming entry.
type ResourceTiming struct {
	PerformanceEntry
	InitiatorType        string `json:"initiatorType,omitempty"`
	RenderBlockingStatus string `json:"renderBlockingStatus,omitempty"`
	NextHopProtocol      string `json:"nextHopProtocol,omitempty"`
	ResponseStatus       int    `json:"responseStatus,omitempty"`
	TransferSize         int64  `json:"transferSize"`
	EncodedBodySize      int64  `json:"encodedBodySize"`
	DecodedBodySize      int64  `json:"decodedBodySize"`
}

// RenderBlocking reports whether the resource delayed first render.
func (r ResourceTiming) RenderBlocking() bool {
	return r.RenderBlockingStatus == "blocking"
}

func (NavigationTiming) isEntry()       {}
func (PaintTiming) isEntry()            {}
func (FirstInputTiming) isEntry()       {}
func (LargestContentfulPaint) isEntry() {}
func (LayoutShift) isEntry()            {}
func (LongTask) isEntry()               {}
func (ResourceTiming) isEntry()         {}

// EntryTypeOf returns the category of e derived from its concrete type.
// Unknown implementations yield "".
func EntryTypeOf(e Entry) EntryType {
	switch e.(type) {
	case NavigationTiming, *NavigationTiming:
		return EntryNavigation
	case PaintTiming, *PaintTiming:
		return EntryPaint
	case FirstInputTiming, *FirstInputTiming:
		return EntryFirstInput
	case LargestContentfulPaint, *LargestContentfulPaint:
		return EntryLargestContentfulPaint
	case LayoutShift, *LayoutShift:
		return EntryLayoutShift
	case LongTask, *LongTask:
		return EntryLongTask
	case ResourceTiming, *ResourceTiming:
		return EntryResource
	default:
		return ""
	}
}

// normalize returns e as a value variant with its Type field filled in from
// the concrete type.
func normalize(e Entry) Entry {
	switch v := e.(type) {
	case *NavigationTiming:
		return normalize(*v)
	case *PaintTiming:
		return normalize(*v)
	case *FirstInputTiming:
		return normalize(*v)
	case *LargestContentfulPaint:
		return normalize(*v)
	case *LayoutShift:
		return normalize(*v)
	case *LongTask:
		return normalize(*v)
	case *ResourceTiming:
		return normalize(*v)
	case NavigationTiming:
		v.Type = EntryNavigation
		return v
	case PaintTiming:
		v.Type = EntryPaint
		return v
	case FirstInputTiming:
		v.Type = EntryFirstInput
		return v
	case LargestContentfulPaint:
		v.Type = EntryLargestContentfulPaint
		return v
	case LayoutShift:
		v.Type = EntryLayoutShift
		return v
	case LongTask:
		v.Type = EntryLongTask
		return v
	case ResourceTiming:
		v.Type = EntryResource
		return v
	default:
		return e
	}
}

// Batch is the list of entries handed to an observer callback.
type Batch []Entry

// Named returns the entries whose name equals name, like
// PerformanceObserverEntryList.getEntriesByName.
func (b Batch) Named(name string) Batch {
	var out Batch
	for _, e := range b {
		if e != nil && e.Header().Name == name {
			out = append(out, e)
		}
	}
	return out
}
