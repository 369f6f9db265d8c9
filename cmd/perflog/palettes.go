package main

import (
	"fmt"
	"strings"

	"pkt.systems/perflog"
	"pkt.systems/perflog/ansi"
)

// PalettesCmd lists the built-in palettes.
type PalettesCmd struct {
	Sample bool `short:"s" help:"Render a sample label for every kind"`
}

var paletteKinds = []perflog.Kind{
	perflog.KindDCL, perflog.KindFCP, perflog.KindFP, perflog.KindFID, perflog.KindLCP,
	perflog.KindCLS, perflog.KindTBT, perflog.KindLoad, perflog.KindMisc,
}

// Run implements the palettes command.
func (p *PalettesCmd) Run(app *App) error {
	for _, name := range ansi.AvailablePaletteNames() {
		palette, _ := ansi.PaletteByName(name)
		if !p.Sample {
			colors := make([]string, 0, len(paletteKinds))
			for _, kind := range paletteKinds {
				colors = append(colors, fmt.Sprintf("%s=%s", kind, palette.Label(string(kind), "")))
			}
			fmt.Fprintf(app.Stdout, "%-15s %s\n", name, strings.Join(colors, " "))
			continue
		}
		fmt.Fprintln(app.Stdout, name)
		f := perflog.NewFormatter(app.Stdout, perflog.FormatterOptions{
			Palette:    &palette,
			ForceColor: app.Formatter.ColorEnabled(),
			NoColor:    !app.Formatter.ColorEnabled(),
		})
		g := f.Group()
		for i, kind := range paletteKinds {
			g.Record(perflog.Record{Time: float64(i * 100), Kind: kind, Message: "sample"})
		}
		g.Flush()
	}
	return nil
}
