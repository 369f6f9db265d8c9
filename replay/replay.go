// Package replay feeds recorded performance entries to perflog trackers.
//
// Recordings are newline-delimited JSON: each line holds one entry object or
// an array of entries, in the shape produced by PerformanceEntry.toJSON and
// perflog.MarshalEntry. Blank lines are ignored and undecodable lines are
// counted, never fatal.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"pkt.systems/perflog"
)

// MaxLineBytes bounds a single recorded line.
const MaxLineBytes = 4 << 20

// Publisher receives decoded entries. *perflog.Buffer implements it.
type Publisher interface {
	Publish(entries ...perflog.Entry)
}

// Stats counts what a replay consumed.
type Stats struct {
	Lines   int
	Entries int
	Skipped int
}

func (s *Stats) add(o Stats) {
	s.Lines += o.Lines
	s.Entries += o.Entries
	s.Skipped += o.Skipped
}

// decodeLine decodes one recorded line. Array elements that fail to decode
// are counted as skipped individually.
func decodeLine(line []byte) (perflog.Batch, Stats) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, Stats{}
	}
	stats := Stats{Lines: 1}
	if line[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(line, &items); err != nil {
			stats.Skipped++
			return nil, stats
		}
		batch := make(perflog.Batch, 0, len(items))
		for _, item := range items {
			entry, err := perflog.DecodeEntry(item)
			if err != nil {
				stats.Skipped++
				continue
			}
			batch = append(batch, entry)
		}
		stats.Entries = len(batch)
		return batch, stats
	}
	entry, err := perflog.DecodeEntry(line)
	if err != nil {
		stats.Skipped++
		return nil, stats
	}
	stats.Entries = 1
	return perflog.Batch{entry}, stats
}

func scanLines(r io.Reader, fn func(perflog.Batch) error) (Stats, error) {
	var stats Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), MaxLineBytes)
	for sc.Scan() {
		batch, s := decodeLine(sc.Bytes())
		stats.add(s)
		if len(batch) == 0 {
			continue
		}
		if err := fn(batch); err != nil {
			return stats, err
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("replay: read: %w", err)
	}
	return stats, nil
}

// Decode calls fn for every entry in r, in order. It stops at the first
// error fn returns.
func Decode(r io.Reader, fn func(perflog.Entry) error) (Stats, error) {
	return scanLines(r, func(batch perflog.Batch) error {
		for _, e := range batch {
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// Feed publishes every line of r to p as one batch.
func Feed(r io.Reader, p Publisher) (Stats, error) {
	return scanLines(r, func(batch perflog.Batch) error {
		p.Publish(batch...)
		return nil
	})
}
