package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"pkt.systems/perflog"
	"pkt.systems/perflog/replay"
)

// ReplayCmd feeds recordings to the trackers.
type ReplayCmd struct {
	Files  []string `arg:"" name:"file" help:"NDJSON recordings, one entry or array of entries per line ('-' reads standard input)"`
	Follow bool     `short:"f" help:"Keep reading the file as it grows"`
}

// Run implements the replay command.
func (r *ReplayCmd) Run(app *App) error {
	if r.Follow && (len(r.Files) != 1 || r.Files[0] == "-") {
		return errors.New("--follow takes exactly one file")
	}
	buf := perflog.NewBuffer()
	inst := perflog.Init(buf, app.Formatter, app.Options)
	defer inst.Disconnect()
	reportRegistrations(app.Formatter, inst)

	var total replay.Stats
	if r.Follow {
		stats, err := replay.Follow(app.Context, r.Files[0], buf, replay.WithErrorHandler(func(err error) {
			app.Formatter.Log(perflog.KindMisc, err.Error())
		}))
		addStats(&total, stats)
		if err != nil {
			return err
		}
	} else {
		for _, name := range r.Files {
			stats, err := feedFile(name, buf)
			addStats(&total, stats)
			if err != nil {
				return err
			}
		}
	}
	if total.Skipped > 0 {
		app.Formatter.Log(perflog.KindMisc, fmt.Sprintf("Skipped %d undecodable entries", total.Skipped))
	}
	return nil
}

func feedFile(name string, p replay.Publisher) (replay.Stats, error) {
	var in io.Reader = os.Stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return replay.Stats{}, fmt.Errorf("open recording: %w", err)
		}
		defer file.Close()
		in = file
	}
	return replay.Feed(in, p)
}

func addStats(total *replay.Stats, s replay.Stats) {
	total.Lines += s.Lines
	total.Entries += s.Entries
	total.Skipped += s.Skipped
}

// reportRegistrations logs trackers the source could not register.
func reportRegistrations(f *perflog.Formatter, inst *perflog.Instance) {
	for _, r := range inst.Registrations() {
		if !r.OK() {
			f.Log(perflog.KindMisc, fmt.Sprintf("%s tracker unavailable: %v", r.Metric, r.Err))
		}
	}
}
