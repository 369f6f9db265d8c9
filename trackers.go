package perflog

import "math"

func debugEntry(g *Group, e Entry, cfg Config) {
	if cfg.Debug {
		g.AuxEntry(e)
	}
}

func trackDocumentReady(g *Group, e Entry, cfg Config) {
	nav, ok := e.(NavigationTiming)
	if !ok {
		return
	}
	if nav.LoadEventStart != 0 {
		total := nav.LoadEventEnd - nav.LoadEventStart
		g.Record(Record{
			Time:    nav.LoadEventStart,
			Kind:    KindLoad,
			Message: nav.Name + ". Load handler took " + fixed(total, 2) + "ms",
			Color:   g.f.palette.Severe,
		})
	} else {
		total := nav.DOMContentLoadedEventEnd - nav.DOMContentLoadedEventStart
		g.Record(Record{
			Time:    nav.DOMContentLoadedEventStart,
			Kind:    KindDCL,
			Message: nav.Name + ". DomContentLoaded handler took " + fixed(total, 2) + "ms",
		})
	}
	debugEntry(g, e, cfg)
}

func trackPaint(kind Kind, name string) handler {
	return func(g *Group, e Entry, cfg Config) {
		paint, ok := e.(PaintTiming)
		if !ok || paint.Name != name {
			return
		}
		g.Record(Record{Time: paint.StartTime, Kind: kind})
		debugEntry(g, e, cfg)
	}
}

func trackFirstInput(g *Group, e Entry, cfg Config) {
	input, ok := e.(FirstInputTiming)
	if !ok {
		return
	}
	var msg string
	switch cfg.FirstInput {
	case FirstInputDuration:
		msg = input.Name + " took " + jsNumber(input.Duration) + "ms"
	default:
		msg = input.Name + " delay " + jsNumber(roundTo(input.ProcessingStart-input.StartTime, 2)) + "ms"
	}
	g.Record(Record{Time: input.StartTime, Kind: KindFID, Message: msg})
	g.AuxNode(input.Target)
	debugEntry(g, e, cfg)
}

func trackLargestContentfulPaint(g *Group, e Entry, cfg Config) {
	lcp, ok := e.(LargestContentfulPaint)
	if !ok {
		return
	}
	msg := lcp.URL
	if msg == "" && lcp.Element != nil {
		msg = lcp.Element.String()
	}
	g.Record(Record{Time: lcp.StartTime, Kind: KindLCP, Message: msg})
	g.AuxNode(lcp.Element)
	debugEntry(g, e, cfg)
}

func trackLayoutShift(g *Group, e Entry, cfg Config) {
	shift, ok := e.(LayoutShift)
	if !ok {
		return
	}
	g.Record(Record{Time: shift.StartTime, Kind: KindCLS, Message: jsNumber(roundTo(shift.Value, 5))})
	for _, src := range shift.Sources {
		g.Aux("        from: " + src.PreviousRect.edges())
		g.Aux("        to:   " + src.CurrentRect.edges())
		g.AuxNode(src.Node.Inspectable())
	}
	debugEntry(g, e, cfg)
}

func trackLongTask(g *Group, e Entry, cfg Config) {
	task, ok := e.(LongTask)
	if !ok {
		return
	}
	g.Record(Record{Time: task.StartTime, Kind: KindTBT, Message: jsNumber(task.Duration) + "ms"})
	if cfg.Attribution {
		for _, a := range task.Attribution {
			g.Aux(a.String())
		}
	}
	debugEntry(g, e, cfg)
}

func trackResource(g *Group, e Entry, cfg Config) {
	res, ok := e.(ResourceTiming)
	if !ok {
		return
	}
	msg := res.Name
	if res.RenderBlocking() {
		msg += " (by " + res.InitiatorType + ", " + res.RenderBlockingStatus + ")"
	}
	// Exact ties round to even, unlike formatTimestamp: 100.2+50.3 sums to
	// exactly 150.5 and is shown at 150.
	end := math.RoundToEven(res.StartTime + res.Duration)
	g.Record(Record{Time: end, Kind: KindLoad, Message: msg})
	debugEntry(g, e, cfg)
}
