// Package ansi provides the ANSI escape sequences, colour parsing and label
// palettes used by perflog's colourised console output. Colours are written
// the way a browser console accepts them (#rgb, #rrggbb or a CSS colour name)
// and rendered for the terminal profile at hand.
package ansi

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Reset is the ANSI escape code that clears all terminal styling; the
// remaining constants expose common ANSI sequences used by perflog.
const (
	Reset       = "\x1b[0m"
	Bold        = "\x1b[1m"
	Faint       = "\x1b[90m"
	BrightWhite = "\x1b[97m"
)

// Color is a CSS-style colour value: "#rgb", "#rrggbb" or one of the named
// colours known to this package (see NamedColors).
type Color string

// Profile selects how many colours the destination terminal can show.
type Profile int

const (
	// ProfileTrueColor emits 24-bit SGR sequences.
	ProfileTrueColor Profile = iota
	// ProfileANSI256 emits xterm 256-colour sequences.
	ProfileANSI256
	// ProfileANSI16 emits the sixteen basic colours.
	ProfileANSI16
)

// ParseProfile converts "truecolor", "24bit", "256", "ansi256", "16" or
// "ansi" into a Profile.
func ParseProfile(value string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "truecolor", "24bit", "true":
		return ProfileTrueColor, true
	case "256", "ansi256", "256color":
		return ProfileANSI256, true
	case "16", "ansi", "ansi16", "basic":
		return ProfileANSI16, true
	default:
		return ProfileTrueColor, false
	}
}

func (p Profile) String() string {
	switch p {
	case ProfileANSI256:
		return "ansi256"
	case ProfileANSI16:
		return "ansi16"
	default:
		return "truecolor"
	}
}

// ProfileFromEnv guesses the terminal profile from COLORTERM and TERM.
func ProfileFromEnv() Profile {
	switch strings.ToLower(os.Getenv("COLORTERM")) {
	case "truecolor", "24bit":
		return ProfileTrueColor
	}
	term := strings.ToLower(os.Getenv("TERM"))
	switch {
	case strings.Contains(term, "truecolor") || strings.Contains(term, "direct"):
		return ProfileTrueColor
	case strings.Contains(term, "256"):
		return ProfileANSI256
	default:
		return ProfileANSI16
	}
}

// NamedColors maps the CSS colour names used by the built-in palettes to
// their hex values.
var NamedColors = map[string]string{
	"black":          "#000000",
	"white":          "#ffffff",
	"gray":           "#808080",
	"grey":           "#808080",
	"red":            "#ff0000",
	"darkred":        "#8b0000",
	"green":          "#008000",
	"darkgreen":      "#006400",
	"mediumseagreen": "#3cb371",
	"purple":         "#800080",
	"orange":         "#ffa500",
	"teal":           "#008080",
	"navy":           "#000080",
	"crimson":        "#dc143c",
	"slategray":      "#708090",
}

// Parse resolves c into an RGB colour.
func (c Color) Parse() (colorful.Color, error) {
	s := strings.ToLower(strings.TrimSpace(string(c)))
	if hex, ok := NamedColors[s]; ok {
		s = hex
	}
	if !strings.HasPrefix(s, "#") || (len(s) != 4 && len(s) != 7) {
		return colorful.Color{}, fmt.Errorf("ansi: unsupported colour %q", string(c))
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("ansi: parse colour %q: %w", string(c), err)
	}
	return col, nil
}

type escapeKey struct {
	color      Color
	profile    Profile
	background bool
}

var escapeCache sync.Map

// Background returns the SGR sequence that sets c as background colour for
// profile. Unparseable colours yield an empty string.
func Background(c Color, profile Profile) string {
	return sequence(c, profile, true)
}

// Foreground returns the SGR sequence that sets c as foreground colour for
// profile. Unparseable colours yield an empty string.
func Foreground(c Color, profile Profile) string {
	return sequence(c, profile, false)
}

func sequence(c Color, profile Profile, background bool) string {
	key := escapeKey{color: c, profile: profile, background: background}
	if cached, ok := escapeCache.Load(key); ok {
		return cached.(string)
	}
	col, err := c.Parse()
	if err != nil {
		return ""
	}
	var seq string
	switch profile {
	case ProfileANSI256:
		idx := nearest256(col)
		if background {
			seq = "\x1b[48;5;" + strconv.Itoa(idx) + "m"
		} else {
			seq = "\x1b[38;5;" + strconv.Itoa(idx) + "m"
		}
	case ProfileANSI16:
		idx := nearestBasic(col)
		code := 30 + idx
		if idx >= 8 {
			code = 90 + idx - 8
		}
		if background {
			code += 10
		}
		seq = "\x1b[" + strconv.Itoa(code) + "m"
	default:
		r, g, b := col.RGB255()
		prefix := "\x1b[38;2;"
		if background {
			prefix = "\x1b[48;2;"
		}
		seq = prefix + strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b)) + "m"
	}
	escapeCache.Store(key, seq)
	return seq
}

// basic16 holds the xterm defaults for the sixteen basic colours.
var basic16 = [16]colorful.Color{
	rgb(0, 0, 0), rgb(205, 0, 0), rgb(0, 205, 0), rgb(205, 205, 0),
	rgb(0, 0, 238), rgb(205, 0, 205), rgb(0, 205, 205), rgb(229, 229, 229),
	rgb(127, 127, 127), rgb(255, 0, 0), rgb(0, 255, 0), rgb(255, 255, 0),
	rgb(92, 92, 255), rgb(255, 0, 255), rgb(0, 255, 255), rgb(255, 255, 255),
}

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func nearestBasic(col colorful.Color) int {
	best, bestDist := 0, -1.0
	for i, candidate := range basic16 {
		d := col.DistanceLab(candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// nearest256 only searches the colour cube and grey ramp (16-255); the first
// sixteen entries are terminal-themed and therefore unreliable.
func nearest256(col colorful.Color) int {
	best, bestDist := 16, -1.0
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				d := col.DistanceLab(rgb(cubeLevels[r], cubeLevels[g], cubeLevels[b]))
				if bestDist < 0 || d < bestDist {
					best, bestDist = 16+36*r+6*g+b, d
				}
			}
		}
	}
	for i := 0; i < 24; i++ {
		level := uint8(8 + 10*i)
		d := col.DistanceLab(rgb(level, level, level))
		if d < bestDist {
			best, bestDist = 232+i, d
		}
	}
	return best
}
