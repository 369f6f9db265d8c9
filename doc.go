// Package perflog logs browser performance metrics as they happen: document
// readiness, first paint and first contentful paint, first input, largest
// contentful paint, layout shifts, long tasks and render-blocking resources.
// Each metric has a tracker that subscribes to one performance entry type
// and turns every entry it sees into a timestamped, labelled line.
//
// # Design overview
//
//   - Sources: trackers subscribe through the Source interface. Buffer is
//     the in-process implementation; it replays entries recorded before a
//     subscription when the subscriber asks for buffered delivery, and
//     serialises delivery so lines stay in entry order.
//   - Entries: the entry types form a closed set (NavigationTiming,
//     PaintTiming, FirstInputTiming, LargestContentfulPaint, LayoutShift,
//     LongTask and ResourceTiming). DecodeEntry reads the JSON a browser
//     produces for them.
//   - Configuration: Options is a partial configuration whose nil fields
//     mean "not supplied". Resolve overlays it on DefaultConfig.
//   - Output: a Formatter renders records as console lines, coloured when
//     the destination is a terminal, or as one JSON object per line. Every
//     line derived from one entry is written with a single Write.
//
// # Usage
//
//	buf := perflog.NewBuffer()
//	inst := perflog.Init(buf, perflog.FormatterFromEnv(), perflog.Options{
//		Resources: perflog.Bool(false),
//	})
//	defer inst.Disconnect()
//	buf.Publish(perflog.PaintTiming{PerformanceEntry: perflog.PerformanceEntry{
//		Name: "first-contentful-paint", StartTime: 412.6,
//	}})
//
// Init never fails. A tracker whose entry type the source cannot observe is
// skipped and reported through Instance.Registrations.
//
// # Integration notes
//
//   - The ingest package serves a collection snippet and accepts entries
//     posted from real pages, one Init per browser session.
//   - The replay package feeds newline-delimited JSON captures, optionally
//     following a growing file.
//   - OptionsFromEnv and FormatterFromEnv read PERFLOG_* variables so a
//     binary can be reconfigured without flags.
package perflog
