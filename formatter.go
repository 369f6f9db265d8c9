package perflog

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"pkt.systems/perflog/ansi"
)

// Mode controls how a Formatter renders records.
type Mode int

const (
	// ModeConsole emits aligned, optionally colourised console lines.
	ModeConsole Mode = iota
	// ModeStructured emits one compact JSON object per line.
	ModeStructured
)

// ParseMode accepts "console", "structured" or "json".
func ParseMode(value string) (Mode, bool) {
	switch value {
	case "console", "text":
		return ModeConsole, true
	case "structured", "json":
		return ModeStructured, true
	default:
		return ModeConsole, false
	}
}

// timestampWidth is the minimum width of the timestamp column.
const timestampWidth = 5

// FormatterOptions controls how a Formatter renders output.
type FormatterOptions struct {
	// Mode selects console (default) or structured JSON rendering.
	Mode Mode

	// NoColor forces colour escape codes off regardless of terminal detection.
	NoColor bool

	// ForceColor bypasses terminal detection and emits colour even when the
	// destination is not a TTY.
	ForceColor bool

	// Palette overrides the label colours. When nil, ansi.PaletteDefault is
	// used.
	Palette *ansi.Palette

	// Profile overrides the terminal colour profile. When nil it is derived
	// from COLORTERM and TERM.
	Profile *ansi.Profile

	// Origin is the time origin record timestamps are relative to. Defaults
	// to the moment the Formatter is created.
	Origin time.Time

	// Now replaces time.Now, mainly for tests.
	Now func() time.Time

	// OnWriteFailure is called, under the output lock, for every write the
	// destination rejects or shortens. Output is never retried.
	OnWriteFailure func(WriteFailure)
}

// Record is one rendered line: a timestamp in milliseconds since the time
// origin, a kind label and a free-form message. Color, when set, replaces
// the palette's colour for Kind.
type Record struct {
	Time    float64
	Kind    Kind
	Message string
	Color   ansi.Color
}

// output is shared by a Formatter and every formatter derived from it.
type output struct {
	mu       sync.Mutex
	w        io.Writer
	closed   bool
	observer writeObserver
}

// Formatter renders records to a writer. It is safe for concurrent use;
// lines written through one Group are never interleaved with other lines.
type Formatter struct {
	out     *output
	mode    Mode
	color   bool
	palette ansi.Palette
	profile ansi.Profile
	origin  time.Time
	now     func() time.Time

	cellText string
	cellTime string
}

// NewFormatter builds a Formatter writing to w. A nil writer discards
// output.
func NewFormatter(w io.Writer, opts FormatterOptions) *Formatter {
	if w == nil {
		w = io.Discard
	}
	mode := opts.Mode
	if mode != ModeStructured {
		mode = ModeConsole
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	origin := opts.Origin
	if origin.IsZero() {
		origin = now()
	}
	palette := ansi.PaletteDefault
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	profile := ansi.ProfileFromEnv()
	if opts.Profile != nil {
		profile = *opts.Profile
	}
	f := &Formatter{
		out:     &output{w: w, observer: writeObserver{onFailure: opts.OnWriteFailure}},
		mode:    mode,
		color:   mode == ModeConsole && !opts.NoColor && (opts.ForceColor || isTerminal(w)),
		palette: palette,
		profile: profile,
		origin:  origin,
		now:     now,
	}
	if f.color {
		f.cellText = ansi.Foreground(palette.Text, profile)
		f.cellTime = ansi.Background(palette.Timestamp, profile) + f.cellText
	}
	return f
}

// New returns a console Formatter writing to w with default options.
func New(w io.Writer) *Formatter {
	return NewFormatter(w, FormatterOptions{})
}

// WithOrigin returns a Formatter that shares f's writer and settings but
// measures timestamps from origin.
func (f *Formatter) WithOrigin(origin time.Time) *Formatter {
	clone := *f
	clone.origin = origin
	return &clone
}

// Origin returns the time origin.
func (f *Formatter) Origin() time.Time { return f.origin }

// ColorEnabled reports whether console output carries ANSI colour.
func (f *Formatter) ColorEnabled() bool { return f.color }

// Palette returns the label palette in use.
func (f *Formatter) Palette() ansi.Palette { return f.palette }

// Since returns the milliseconds elapsed since the time origin.
func (f *Formatter) Since() float64 {
	return float64(f.now().Sub(f.origin)) / float64(time.Millisecond)
}

// Log writes msg under kind, stamped with the current time.
func (f *Formatter) Log(kind Kind, msg string) {
	f.Emit(Record{Time: f.Since(), Kind: kind, Message: msg})
}

// LogAt writes msg under kind, stamped with ms milliseconds since the origin.
func (f *Formatter) LogAt(ms float64, kind Kind, msg string) {
	f.Emit(Record{Time: ms, Kind: kind, Message: msg})
}

// Emit writes a single record.
func (f *Formatter) Emit(rec Record) {
	g := f.Group()
	g.Record(rec)
	g.Flush()
}

// Close closes the writer when the Formatter owns it (see FormatterFromEnv).
// Standard output and standard error are never closed.
func (f *Formatter) Close() error {
	f.out.mu.Lock()
	defer f.out.mu.Unlock()
	if f.out.closed {
		return nil
	}
	f.out.closed = true
	return closeOutput(f.out.w)
}

func (f *Formatter) write(p []byte) {
	if len(p) == 0 {
		return
	}
	f.out.mu.Lock()
	defer f.out.mu.Unlock()
	if f.out.closed {
		return
	}
	f.out.observer.write(f.out.w, p)
}

// WriteStats returns the write counters of f's destination.
func (f *Formatter) WriteStats() WriteStats {
	return f.out.observer.stats()
}

// Group collects the lines derived from one entry and writes them at once.
// A Group must not be used after Flush or Discard.
type Group struct {
	f    *Formatter
	buf  []byte
	kind Kind
}

const (
	groupDefaultCap = 512
	groupMaxCap     = 64 << 10
)

var groupPool = sync.Pool{
	New: func() any {
		return &Group{buf: make([]byte, 0, groupDefaultCap)}
	},
}

// Group starts an event-scoped group of lines.
func (f *Formatter) Group() *Group {
	g := groupPool.Get().(*Group)
	g.f = f
	g.buf = g.buf[:0]
	g.kind = KindMisc
	return g
}

// Flush writes every buffered line with a single Write and releases g.
func (g *Group) Flush() {
	g.f.write(g.buf)
	g.release()
}

// Discard drops the buffered lines and releases g.
func (g *Group) Discard() {
	g.release()
}

func (g *Group) release() {
	g.f = nil
	if cap(g.buf) > groupMaxCap {
		g.buf = make([]byte, 0, groupDefaultCap)
	} else {
		g.buf = g.buf[:0]
	}
	groupPool.Put(g)
}

// Record appends a formatted record. Auxiliary lines that follow are
// attributed to its kind.
func (g *Group) Record(rec Record) {
	if rec.Kind == "" {
		rec.Kind = KindMisc
	}
	g.kind = rec.Kind
	f := g.f
	color := f.palette.Label(string(rec.Kind), rec.Color)
	if f.mode == ModeStructured {
		g.appendJSON(structuredRecord{
			Time:    timestampValue(rec.Time),
			Kind:    rec.Kind,
			Color:   color,
			Message: rec.Message,
		})
		return
	}
	ts := pad(formatTimestamp(rec.Time), timestampWidth)
	if f.color {
		g.buf = append(g.buf, f.cellTime...)
		g.buf = append(g.buf, ts...)
		g.buf = append(g.buf, ansi.Reset...)
		g.buf = append(g.buf, ' ')
		g.buf = append(g.buf, ansi.Background(color, f.profile)...)
		g.buf = append(g.buf, f.cellText...)
		g.buf = append(g.buf, ' ')
		g.buf = append(g.buf, rec.Kind...)
		g.buf = append(g.buf, ' ')
		g.buf = append(g.buf, ansi.Reset...)
	} else {
		g.buf = append(g.buf, ts...)
		g.buf = append(g.buf, ' ')
		g.buf = append(g.buf, rec.Kind...)
	}
	if rec.Message != "" {
		g.buf = append(g.buf, ' ')
		g.buf = appendConsoleSafe(g.buf, rec.Message)
	}
	g.buf = append(g.buf, '\n')
}

// Aux appends an unstyled auxiliary line.
func (g *Group) Aux(line string) {
	if g.f.mode == ModeStructured {
		g.appendJSON(structuredAux{Kind: g.kind, Aux: line})
		return
	}
	g.buf = appendConsoleSafe(g.buf, line)
	g.buf = append(g.buf, '\n')
}

// AuxNode appends a line describing n, or "null" when n is nil.
func (g *Group) AuxNode(n *Node) {
	if g.f.mode == ModeStructured {
		g.appendJSON(structuredNode{Kind: g.kind, Node: n})
		return
	}
	g.buf = appendConsoleSafe(g.buf, n.String())
	g.buf = append(g.buf, '\n')
}

// AuxEntry appends e serialised as JSON. Entries that cannot be encoded are
// skipped.
func (g *Group) AuxEntry(e Entry) {
	raw, err := MarshalEntry(e)
	if err != nil {
		return
	}
	if g.f.mode == ModeStructured {
		g.appendJSON(structuredEntry{Kind: g.kind, Entry: raw})
		return
	}
	g.buf = appendConsoleSafe(g.buf, string(raw))
	g.buf = append(g.buf, '\n')
}

type structuredRecord struct {
	Time    json.Number `json:"ts"`
	Kind    Kind        `json:"kind"`
	Color   ansi.Color  `json:"color"`
	Message string      `json:"msg"`
}

type structuredAux struct {
	Kind Kind   `json:"kind"`
	Aux  string `json:"aux"`
}

type structuredNode struct {
	Kind Kind  `json:"kind"`
	Node *Node `json:"node"`
}

type structuredEntry struct {
	Kind  Kind            `json:"kind"`
	Entry json.RawMessage `json:"entry"`
}

func (g *Group) appendJSON(v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return
	}
	g.buf = append(g.buf, buf.Bytes()...)
}

// formatTimestamp rounds ms half-up to an integer.
func formatTimestamp(ms float64) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return jsNumber(ms)
	}
	return strconv.FormatInt(int64(roundHalfUp(ms)), 10)
}

// timestampValue is formatTimestamp for JSON, where non-finite numbers are
// not representable.
func timestampValue(ms float64) json.Number {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return "0"
	}
	return json.Number(strconv.FormatInt(int64(roundHalfUp(ms)), 10))
}

func closeOutput(w io.Writer) error {
	if w == nil || w == os.Stdout || w == os.Stderr {
		return nil
	}
	if c, ok := w.(*ownedOutput); ok {
		return c.Close()
	}
	return nil
}
