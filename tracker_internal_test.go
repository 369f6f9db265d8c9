package perflog

import (
	"bytes"
	"testing"
	"time"
)

func TestTrackerHandleContainsPanics(t *testing.T) {
	var out bytes.Buffer
	origin := time.Unix(0, 0)
	f := NewFormatter(&out, FormatterOptions{NoColor: true, Origin: origin, Now: func() time.Time { return origin }})
	broken := Tracker{Metric: MetricFP, Type: EntryPaint, handle: func(g *Group, e Entry, cfg Config) {
		g.Record(Record{Time: 1, Kind: KindFP, Message: "partial"})
		panic("boom")
	}}
	broken.Handle(f, DefaultConfig(), PaintTiming{})
	if out.Len() != 0 {
		t.Fatalf("partial output of a failed entry was written: %q", out.String())
	}

	fp, _ := TrackerFor(MetricFP)
	fp.Handle(f, DefaultConfig(), PaintTiming{PerformanceEntry: PerformanceEntry{Name: "first-paint", StartTime: 2}})
	if out.String() != "    2 fp\n" {
		t.Fatalf("unexpected output after recovered panic %q", out.String())
	}
}

func TestTrackerIgnoresMismatchedEntries(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out, FormatterOptions{NoColor: true})
	cls, _ := TrackerFor(MetricCLS)
	cls.Handle(f, DefaultConfig(), PaintTiming{})
	cls.Handle(f, DefaultConfig(), nil)
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}
