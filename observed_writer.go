package perflog

import (
	"io"
	"sync/atomic"
)

// WriteFailure describes one failed write of a Formatter.
type WriteFailure struct {
	Err       error
	Written   int
	Attempted int
}

// WriteStats captures cumulative write counters of a Formatter and every
// Formatter derived from it.
type WriteStats struct {
	Writes      uint64
	Failures    uint64
	ShortWrites uint64
}

// writeObserver counts writes so lost output can be observed without
// changing the logging call signatures.
type writeObserver struct {
	onFailure   func(WriteFailure)
	writes      atomic.Uint64
	failures    atomic.Uint64
	shortWrites atomic.Uint64
}

func (o *writeObserver) write(dst io.Writer, p []byte) {
	o.writes.Add(1)
	n, err := dst.Write(p)
	if n != len(p) {
		o.shortWrites.Add(1)
		if err == nil {
			err = io.ErrShortWrite
		}
	}
	if err == nil {
		return
	}
	o.failures.Add(1)
	if o.onFailure != nil {
		o.onFailure(WriteFailure{Err: err, Written: n, Attempted: len(p)})
	}
}

func (o *writeObserver) stats() WriteStats {
	return WriteStats{
		Writes:      o.writes.Load(),
		Failures:    o.failures.Load(),
		ShortWrites: o.shortWrites.Load(),
	}
}
