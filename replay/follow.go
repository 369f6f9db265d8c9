package replay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval re-checks the followed file even without filesystem
// events, for filesystems that do not deliver them.
const DefaultPollInterval = time.Second

// FollowOption customises Follow.
type FollowOption func(*follower)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) FollowOption {
	return func(f *follower) {
		if d > 0 {
			f.poll = d
		}
	}
}

// WithErrorHandler receives watcher and read errors. Follow keeps going
// after reporting them.
func WithErrorHandler(fn func(error)) FollowOption {
	return func(f *follower) {
		f.onError = fn
	}
}

type follower struct {
	path    string
	pub     Publisher
	poll    time.Duration
	onError func(error)

	maxLine    int
	offset     int64
	pending    []byte
	discarding bool
	stats      Stats
}

// followChunk is how much of the followed file is read at once.
const followChunk = 64 << 10

// Follow feeds path to p and then tails it, publishing lines as they are
// appended, until ctx is done. A missing file is waited for. A file that
// shrinks is treated as truncated and read again from the start. A trailing
// line without newline is held back until it is completed. Lines longer than
// MaxLineBytes are skipped and reported. The returned error is nil when ctx
// ends the follow.
func Follow(ctx context.Context, path string, p Publisher, opts ...FollowOption) (Stats, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Stats{}, fmt.Errorf("replay: resolve %s: %w", path, err)
	}
	f := &follower{path: abs, pub: p, poll: DefaultPollInterval, maxLine: MaxLineBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Stats{}, fmt.Errorf("replay: create file watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: editors and log rotation replace the file.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return Stats{}, fmt.Errorf("replay: watch %s: %w", filepath.Dir(abs), err)
	}
	if err := f.readMore(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return f.stats, err
	}

	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()
	name := filepath.Base(abs)
	for {
		select {
		case <-ctx.Done():
			return f.stats, nil
		case event, ok := <-watcher.Events:
			if !ok {
				return f.stats, nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				f.refresh()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return f.stats, nil
			}
			f.report(fmt.Errorf("replay: watcher: %w", err))
		case <-ticker.C:
			f.refresh()
		}
	}
}

func (f *follower) refresh() {
	if err := f.readMore(); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.report(err)
	}
}

func (f *follower) report(err error) {
	if f.onError != nil {
		f.onError(err)
	}
}

// readMore publishes every complete line appended since the last call.
func (f *follower) readMore() error {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("replay: open %s: %w", f.path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("replay: stat %s: %w", f.path, err)
	}
	if info.Size() < f.offset {
		f.offset = 0
		f.pending = nil
		f.discarding = false
	}
	if info.Size() == f.offset {
		return nil
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("replay: seek %s: %w", f.path, err)
	}
	r := io.LimitReader(file, info.Size()-f.offset)
	chunk := make([]byte, followChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			f.offset += int64(n)
			f.consume(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("replay: read %s: %w", f.path, err)
		}
	}
}

// consume splits data into lines, joining it with the held back partial
// line. A line that grows past maxLine is dropped up to its newline.
func (f *follower) consume(data []byte) {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if f.discarding {
			if i < 0 {
				return
			}
			f.discarding = false
			data = data[i+1:]
			continue
		}
		if i < 0 {
			f.pending = append(f.pending, data...)
			if len(f.pending) > f.maxLine {
				f.skipLong()
				f.discarding = true
			}
			return
		}
		line := data[:i]
		if len(f.pending) > 0 {
			line = append(f.pending, line...)
		}
		if len(line) > f.maxLine {
			f.skipLong()
		} else {
			batch, s := decodeLine(line)
			f.stats.add(s)
			if len(batch) > 0 {
				f.pub.Publish(batch...)
			}
		}
		f.pending = nil
		data = data[i+1:]
	}
}

func (f *follower) skipLong() {
	f.pending = nil
	f.stats.add(Stats{Lines: 1, Skipped: 1})
	f.report(fmt.Errorf("replay: %s: line exceeds %d bytes", f.path, f.maxLine))
}
