package perflog_test

import (
	"bytes"
	"strings"
	"testing"

	"pkt.systems/perflog"
)

// trackLines initialises trackers on a fresh buffer, publishes entries and
// returns the lines after the startup record.
func trackLines(t *testing.T, opts perflog.Options, entries ...perflog.Entry) []string {
	t.Helper()
	var out bytes.Buffer
	buf := perflog.NewBuffer()
	inst := perflog.Init(buf, plainFormatter(&out), opts)
	for _, r := range inst.Registrations() {
		if !r.OK() {
			t.Fatalf("registration %s failed: %v", r.Metric, r.Err)
		}
	}
	buf.Publish(entries...)
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if lines[0] != "    0 misc "+perflog.StartupMessage {
		t.Fatalf("unexpected startup line %q", lines[0])
	}
	return lines[1:]
}

func assertLines(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(got), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d:\n got %q\nwant %q", i, got[i], want[i])
		}
	}
}

func TestTrackDOMContentLoaded(t *testing.T) {
	lines := trackLines(t, perflog.Options{}, perflog.NavigationTiming{
		PerformanceEntry:           perflog.PerformanceEntry{Name: "https://x/"},
		DOMContentLoadedEventStart: 100.4,
		DOMContentLoadedEventEnd:   102.5,
	})
	assertLines(t, lines, "  100 dcl https://x/. DomContentLoaded handler took 2.10ms")
}

func TestTrackLoadHandler(t *testing.T) {
	lines := trackLines(t, perflog.Options{}, perflog.NavigationTiming{
		PerformanceEntry:           perflog.PerformanceEntry{Name: "https://x/"},
		DOMContentLoadedEventStart: 100,
		DOMContentLoadedEventEnd:   101,
		LoadEventStart:             250.6,
		LoadEventEnd:               253.1,
	})
	assertLines(t, lines, "  251 load https://x/. Load handler took 2.50ms")
}

func TestTrackPaints(t *testing.T) {
	lines := trackLines(t, perflog.Options{},
		paint("first-paint", 80),
		paint("first-contentful-paint", 95.5),
		paint("something-else", 1),
	)
	assertLines(t, lines, "   96 fcp", "   80 fp")
}

func TestTrackFirstInputDelay(t *testing.T) {
	lines := trackLines(t, perflog.Options{}, perflog.FirstInputTiming{
		PerformanceEntry: perflog.PerformanceEntry{Name: "mousedown", StartTime: 100, Duration: 48},
		ProcessingStart:  120,
		Target:           &perflog.Node{NodeType: perflog.ElementNode, NodeName: "BUTTON", ID: "go"},
	})
	assertLines(t, lines, "  100 fid mousedown delay 20ms", `<button id="go">`)
}

func TestTrackFirstInputDuration(t *testing.T) {
	lines := trackLines(t, perflog.Options{FirstInput: perflog.Policy(perflog.FirstInputDuration)}, perflog.FirstInputTiming{
		PerformanceEntry: perflog.PerformanceEntry{Name: "keydown", StartTime: 100, Duration: 48},
		ProcessingStart:  120,
	})
	assertLines(t, lines, "  100 fid keydown took 48ms", "null")
}

func TestTrackLargestContentfulPaint(t *testing.T) {
	img := &perflog.Node{NodeType: perflog.ElementNode, NodeName: "IMG", ClassName: "hero"}
	lines := trackLines(t, perflog.Options{},
		perflog.LargestContentfulPaint{PerformanceEntry: perflog.PerformanceEntry{StartTime: 1200}, URL: "https://x/hero.jpg", Element: img},
		perflog.LargestContentfulPaint{PerformanceEntry: perflog.PerformanceEntry{StartTime: 1300}, Element: img},
	)
	assertLines(t, lines,
		" 1200 lcp https://x/hero.jpg", `<img class="hero">`,
		` 1300 lcp <img class="hero">`, `<img class="hero">`,
	)
}

func TestTrackLayoutShift(t *testing.T) {
	parent := &perflog.Node{NodeType: perflog.ElementNode, NodeName: "DIV", ID: "main"}
	lines := trackLines(t, perflog.Options{}, perflog.LayoutShift{
		PerformanceEntry: perflog.PerformanceEntry{StartTime: 300},
		Value:            0.123456789,
		Sources: []perflog.LayoutShiftSource{{
			Node:         &perflog.Node{NodeType: perflog.TextNode, Text: "Hello", Parent: parent},
			PreviousRect: perflog.Rect{Top: 0, Right: 100, Bottom: 20, Left: 0},
			CurrentRect:  perflog.Rect{Top: 10, Right: 100, Bottom: 30, Left: 0},
		}},
	})
	assertLines(t, lines,
		"  300 cls 0.12346",
		"        from:    0  100   20    0",
		"        to:     10  100   30    0",
		`<div id="main">`,
	)
}

func TestTrackLayoutShiftDetachedText(t *testing.T) {
	lines := trackLines(t, perflog.Options{}, perflog.LayoutShift{
		PerformanceEntry: perflog.PerformanceEntry{StartTime: 40},
		Value:            0.5,
		Sources: []perflog.LayoutShiftSource{{
			Node: &perflog.Node{NodeType: perflog.TextNode, Text: "gone"},
		}},
	})
	assertLines(t, lines,
		"   40 cls 0.5",
		"        from:    0    0    0    0",
		"        to:      0    0    0    0",
		"null",
	)
}

func TestTrackLongTask(t *testing.T) {
	task := perflog.LongTask{
		PerformanceEntry: perflog.PerformanceEntry{Name: "self", StartTime: 500, Duration: 75},
		Attribution: []perflog.TaskAttribution{{
			PerformanceEntry: perflog.PerformanceEntry{Name: "unknown"},
			ContainerType:    "window",
		}},
	}
	assertLines(t, trackLines(t, perflog.Options{}, task), "  500 tbt 75ms", "        unknown in window")
	assertLines(t, trackLines(t, perflog.Options{Attribution: perflog.Bool(false)}, task), "  500 tbt 75ms")
}

func TestTrackResource(t *testing.T) {
	lines := trackLines(t, perflog.Options{},
		perflog.ResourceTiming{
			PerformanceEntry:     perflog.PerformanceEntry{Name: "https://x/app.css", StartTime: 100.2, Duration: 50.3},
			InitiatorType:        "link",
			RenderBlockingStatus: "blocking",
		},
		perflog.ResourceTiming{
			PerformanceEntry: perflog.PerformanceEntry{Name: "https://x/app.js", StartTime: 10, Duration: 5.6},
			InitiatorType:    "script",
		},
		perflog.ResourceTiming{
			PerformanceEntry: perflog.PerformanceEntry{Name: "https://x/font.woff2", StartTime: 150, Duration: 1.5},
			InitiatorType:    "css",
		},
	)
	assertLines(t, lines,
		"  150 load https://x/app.css (by link, blocking)",
		"   16 load https://x/app.js",
		"  152 load https://x/font.woff2",
	)
}

func TestTrackDebugPrintsEntry(t *testing.T) {
	lines := trackLines(t, perflog.Options{Debug: perflog.Bool(true)}, paint("first-paint", 80))
	assertLines(t, lines,
		"   80 fp",
		`{"name":"first-paint","entryType":"paint","startTime":80,"duration":0}`,
	)
}

func TestTrackerForAndOrder(t *testing.T) {
	all := perflog.Trackers()
	if len(all) != len(perflog.Metrics) {
		t.Fatalf("expected %d trackers, got %d", len(perflog.Metrics), len(all))
	}
	for i, tr := range all {
		if tr.Metric != perflog.Metrics[i] {
			t.Fatalf("tracker %d is %s want %s", i, tr.Metric, perflog.Metrics[i])
		}
	}
	tr, ok := perflog.TrackerFor(perflog.MetricTBT)
	if !ok || tr.Type != perflog.EntryLongTask {
		t.Fatalf("unexpected tbt tracker %+v", tr)
	}
	if _, ok := perflog.TrackerFor("ttfb"); ok {
		t.Fatalf("unexpected tracker for ttfb")
	}
}
