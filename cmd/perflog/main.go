// Command perflog prints browser performance metrics as timestamped,
// colour-labelled console lines. It replays NDJSON recordings of performance
// entries or receives them live from pages that load its snippet.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"pkt.systems/perflog"
	"pkt.systems/perflog/ansi"
)

var version = "dev"

// CLI holds the global flags and commands.
type CLI struct {
	Config  string   `short:"c" help:"Configuration file path" type:"path"`
	EnvFile []string `name:"env-file" help:"Environment files to load (default: .env, .env.local when present)" sep:","`

	JSON       bool     `help:"Emit one JSON object per line instead of console output"`
	NoColor    bool     `name:"no-color" help:"Disable colour"`
	ForceColor bool     `name:"force-color" help:"Emit colour even when the output is not a terminal"`
	Palette    string   `help:"Label palette (${palettes})"`
	Profile    string   `help:"Colour profile: truecolor, ansi256 or ansi16"`
	Output     string   `short:"o" help:"Output: stdout, stderr, a file path, or stdout+PATH to tee"`
	Debug      bool     `short:"d" help:"Print every raw entry as JSON after its record"`
	Enable     []string `help:"Trackers to enable (${metrics})" sep:","`
	Disable    []string `help:"Trackers to disable (${metrics})" sep:","`
	FIDPolicy  string   `name:"fid-policy" help:"First input reporting: delay or duration"`

	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Replay   ReplayCmd   `cmd:"" help:"Replay NDJSON recordings of performance entries"`
	Serve    ServeCmd    `cmd:"" help:"Receive performance entries from browsers over HTTP"`
	Palettes PalettesCmd `cmd:"" help:"List the built-in label palettes"`
}

// App is the resolved runtime state handed to every command.
type App struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Config    *FileConfig
	Options   perflog.Options
	Formatter *perflog.Formatter
	Context   context.Context
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("perflog"),
		kong.Description("Print browser performance metrics as colour-labelled console lines."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.Vars{
			"version":      version,
			"palettes":     strings.Join(ansi.AvailablePaletteNames(), ", "),
			"metrics":      metricNames(),
			"default_addr": DefaultAddr,
		},
	)
	if err != nil {
		fmt.Fprintf(stderr, "perflog: %v\n", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "perflog: %v\n", err)
		return 2
	}

	if _, err := loadEnvFiles(cli.EnvFile); err != nil {
		fmt.Fprintf(stderr, "perflog: %v\n", err)
		return 1
	}
	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "perflog: %v\n", err)
		return 1
	}
	app, err := cli.newApp(ctx, cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "perflog: %v\n", err)
		return 2
	}
	defer app.Formatter.Close()

	if err := kctx.Run(app); err != nil {
		fmt.Fprintf(stderr, "perflog: %v\n", err)
		return 1
	}
	return 0
}

func metricNames() string {
	names := make([]string, len(perflog.Metrics))
	for i, m := range perflog.Metrics {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

// newApp resolves tracker options and the formatter. Precedence, lowest
// first: built-in defaults, the configuration file, PERFLOG_* environment
// variables, flags.
func (c *CLI) newApp(ctx context.Context, cfg *FileConfig, stdout, stderr io.Writer) (*App, error) {
	opts, err := c.options(cfg)
	if err != nil {
		return nil, err
	}
	f, err := c.formatter(cfg, stdout)
	if err != nil {
		return nil, err
	}
	return &App{
		Stdout:    stdout,
		Stderr:    stderr,
		Config:    cfg,
		Options:   opts,
		Formatter: f,
		Context:   ctx,
	}, nil
}

func (c *CLI) options(cfg *FileConfig) (perflog.Options, error) {
	opts := perflog.OptionsFromEnv(perflog.WithEnvOptions(cfg.Metrics))
	if c.Debug {
		opts.Debug = perflog.Bool(true)
	}
	for _, list := range []struct {
		names   []string
		enabled bool
	}{{c.Enable, true}, {c.Disable, false}} {
		for _, name := range list.names {
			m, ok := perflog.ParseMetric(strings.ToLower(strings.TrimSpace(name)))
			if !ok {
				return opts, fmt.Errorf("unknown tracker %q (want one of %s)", name, metricNames())
			}
			opts.SetMetric(m, list.enabled)
		}
	}
	if c.FIDPolicy != "" {
		policy, ok := perflog.ParseFirstInputPolicy(c.FIDPolicy)
		if !ok {
			return opts, fmt.Errorf("unknown first-input policy %q", c.FIDPolicy)
		}
		opts.FirstInput = perflog.Policy(policy)
	}
	return opts, nil
}

func (c *CLI) formatter(cfg *FileConfig, stdout io.Writer) (*perflog.Formatter, error) {
	var seed perflog.FormatterOptions
	out := cfg.Output
	if out.Mode != "" {
		mode, ok := perflog.ParseMode(strings.ToLower(out.Mode))
		if !ok {
			return nil, fmt.Errorf("config: unknown output mode %q", out.Mode)
		}
		seed.Mode = mode
	}
	seed.NoColor = out.NoColor
	seed.ForceColor = out.ForceColor
	if out.Palette != "" {
		p, err := paletteByName(out.Palette)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		seed.Palette = &p
	}
	if out.Profile != "" {
		p, err := profileByName(out.Profile)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		seed.Profile = &p
	}

	opts := perflog.FormatterOptionsFromEnv(perflog.WithEnvFormatterOptions(seed))
	if c.JSON {
		opts.Mode = perflog.ModeStructured
	}
	if c.NoColor {
		opts.NoColor = true
	}
	if c.ForceColor {
		opts.ForceColor = true
	}
	if c.Palette != "" {
		p, err := paletteByName(c.Palette)
		if err != nil {
			return nil, err
		}
		opts.Palette = &p
	}
	if c.Profile != "" {
		p, err := profileByName(c.Profile)
		if err != nil {
			return nil, err
		}
		opts.Profile = &p
	}
	if len(out.Colors) > 0 {
		p := ansi.PaletteDefault
		if opts.Palette != nil {
			p = *opts.Palette
		}
		for kind, color := range out.Colors {
			if _, err := ansi.Color(color).Parse(); err != nil {
				return nil, fmt.Errorf("config: colour for %s: %w", kind, err)
			}
			if !p.Set(kind, ansi.Color(color)) {
				return nil, fmt.Errorf("config: unknown colour slot %q", kind)
			}
		}
		opts.Palette = &p
	}

	dest := out.Destination
	if value, ok := perflog.OutputFromEnv(); ok && value != "" {
		dest = value
	}
	if c.Output != "" {
		dest = c.Output
	}
	w, err := perflog.OpenOutput(dest, stdout)
	if err != nil {
		return nil, err
	}
	return perflog.NewFormatter(w, opts), nil
}

func paletteByName(name string) (ansi.Palette, error) {
	p, ok := ansi.PaletteByName(name)
	if !ok {
		return p, fmt.Errorf("unknown palette %q (want one of %s)", name, strings.Join(ansi.AvailablePaletteNames(), ", "))
	}
	return p, nil
}

func profileByName(name string) (ansi.Profile, error) {
	p, ok := ansi.ParseProfile(name)
	if !ok {
		return p, fmt.Errorf("unknown colour profile %q (want truecolor, ansi256 or ansi16)", name)
	}
	return p, nil
}
