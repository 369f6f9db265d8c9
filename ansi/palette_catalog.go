package ansi

import (
	"sort"
	"strings"
)

// Palette maps every record kind to a label background colour. Kinds that
// have no field fall back to Misc.
type Palette struct {
	Misc Color
	CLS  Color
	DCL  Color
	FCP  Color
	FID  Color
	FP   Color
	LCP  Color
	TBT  Color
	Load Color

	// Severe flags records that deserve attention, such as a navigation's
	// load handler.
	Severe Color
	// Timestamp is the background of the timestamp cell.
	Timestamp Color
	// Text is the foreground used inside the timestamp and label cells.
	Text Color
}

// Label returns the colour for kind. A non-empty override wins over the
// palette; unknown kinds and empty fields resolve to Misc.
func (p Palette) Label(kind string, override Color) Color {
	if override != "" {
		return override
	}
	var c Color
	switch kind {
	case "cls":
		c = p.CLS
	case "dcl":
		c = p.DCL
	case "fcp":
		c = p.FCP
	case "fid":
		c = p.FID
	case "fp":
		c = p.FP
	case "lcp":
		c = p.LCP
	case "tbt":
		c = p.TBT
	case "load":
		c = p.Load
	}
	if c == "" {
		c = p.Misc
	}
	if c == "" {
		c = PaletteDefault.Misc
	}
	return c
}

// Set replaces the colour of kind, or of the severe, timestamp and text
// slots. It reports false for unknown names.
func (p *Palette) Set(kind string, c Color) bool {
	var field *Color
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "misc":
		field = &p.Misc
	case "cls":
		field = &p.CLS
	case "dcl":
		field = &p.DCL
	case "fcp":
		field = &p.FCP
	case "fid":
		field = &p.FID
	case "fp":
		field = &p.FP
	case "lcp":
		field = &p.LCP
	case "tbt":
		field = &p.TBT
	case "load":
		field = &p.Load
	case "severe":
		field = &p.Severe
	case "timestamp":
		field = &p.Timestamp
	case "text":
		field = &p.Text
	default:
		return false
	}
	*field = c
	return true
}

// PaletteDefault mirrors the colours browsers show for the logger's labels.
var PaletteDefault = Palette{
	Misc:      "#444",
	CLS:       "#c50",
	DCL:       "#185ebd",
	FCP:       "green",
	FID:       "purple",
	FP:        "mediumseagreen",
	LCP:       "darkgreen",
	TBT:       "red",
	Load:      "#888",
	Severe:    "darkred",
	Timestamp: "#444",
	Text:      "white",
}

// PaletteGruvbox uses the gruvbox dark accents.
var PaletteGruvbox = Palette{
	Misc:      "#504945",
	CLS:       "#d65d0e",
	DCL:       "#458588",
	FCP:       "#98971a",
	FID:       "#b16286",
	FP:        "#689d6a",
	LCP:       "#79740e",
	TBT:       "#cc241d",
	Load:      "#7c6f64",
	Severe:    "#9d0006",
	Timestamp: "#3c3836",
	Text:      "#fbf1c7",
}

// PaletteNord uses the nord frost and aurora colours.
var PaletteNord = Palette{
	Misc:      "#4c566a",
	CLS:       "#d08770",
	DCL:       "#5e81ac",
	FCP:       "#a3be8c",
	FID:       "#b48ead",
	FP:        "#8fbcbb",
	LCP:       "#6d8a5a",
	TBT:       "#bf616a",
	Load:      "#616e88",
	Severe:    "#8c3a42",
	Timestamp: "#3b4252",
	Text:      "#eceff4",
}

// PaletteDracula uses the dracula theme accents.
var PaletteDracula = Palette{
	Misc:      "#44475a",
	CLS:       "#ffb86c",
	DCL:       "#6272a4",
	FCP:       "#50fa7b",
	FID:       "#bd93f9",
	FP:        "#8be9fd",
	LCP:       "#3a9a55",
	TBT:       "#ff5555",
	Load:      "#6c6f85",
	Severe:    "#a33",
	Timestamp: "#282a36",
	Text:      "#f8f8f2",
}

// PaletteSolarizedDark uses the solarized accents on base02.
var PaletteSolarizedDark = Palette{
	Misc:      "#586e75",
	CLS:       "#cb4b16",
	DCL:       "#268bd2",
	FCP:       "#859900",
	FID:       "#6c71c4",
	FP:        "#2aa198",
	LCP:       "#5f6e00",
	TBT:       "#dc322f",
	Load:      "#657b83",
	Severe:    "#8b1e1c",
	Timestamp: "#073642",
	Text:      "#fdf6e3",
}

// PaletteMono renders every label in greys, for screenshots and colour-blind
// friendly output.
var PaletteMono = Palette{
	Misc:      "#444",
	CLS:       "#666",
	DCL:       "#555",
	FCP:       "#777",
	FID:       "#555",
	FP:        "#777",
	LCP:       "#666",
	TBT:       "#333",
	Load:      "#888",
	Severe:    "#222",
	Timestamp: "#444",
	Text:      "white",
}

var namedPalettes = map[string]*Palette{
	"default":        &PaletteDefault,
	"gruvbox":        &PaletteGruvbox,
	"nord":           &PaletteNord,
	"dracula":        &PaletteDracula,
	"solarized-dark": &PaletteSolarizedDark,
	"mono":           &PaletteMono,
}

var paletteAliases = map[string]string{
	"browser":       "default",
	"devtools":      "default",
	"solarizeddark": "solarized-dark",
	"solarized":     "solarized-dark",
	"grey":          "mono",
	"gray":          "mono",
	"monochrome":    "mono",
}

// PaletteByName resolves a built-in palette by its canonical name. Names are
// case-insensitive and support aliases. Unknown names return PaletteDefault
// and false. The result is a copy; callers may modify it freely.
func PaletteByName(name string) (Palette, bool) {
	normalized := normalizePaletteName(name)
	if canonical, ok := paletteAliases[normalized]; ok {
		normalized = canonical
	}
	if palette, ok := namedPalettes[normalized]; ok && palette != nil {
		return *palette, true
	}
	return PaletteDefault, false
}

// AvailablePaletteNames returns canonical built-in palette names in sorted order.
func AvailablePaletteNames() []string {
	names := make([]string, 0, len(namedPalettes))
	for name := range namedPalettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizePaletteName(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if strings.HasPrefix(s, "palette-") {
		s = strings.TrimPrefix(s, "palette-")
	} else if strings.HasPrefix(s, "palette") {
		s = strings.TrimPrefix(s, "palette")
		s = strings.TrimLeft(s, "-")
	}
	return s
}
