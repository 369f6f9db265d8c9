package perflog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type teeWriter struct {
	writers []io.Writer
}

func newTeeWriter(writers ...io.Writer) io.Writer {
	return &teeWriter{writers: writers}
}

func (t *teeWriter) Write(p []byte) (int, error) {
	for _, w := range t.writers {
		n, err := w.Write(p)
		if err != nil {
			return n, err
		}
		if n != len(p) {
			return n, io.ErrShortWrite
		}
	}
	return len(p), nil
}

// ownedOutput is a writer whose closer belongs to the Formatter.
type ownedOutput struct {
	writer   io.Writer
	closer   io.Closer
	closeErr error
	once     sync.Once
}

func newOwnedOutput(writer io.Writer, closer io.Closer) io.Writer {
	if writer == nil {
		writer = io.Discard
	}
	if closer == nil {
		return writer
	}
	return &ownedOutput{writer: writer, closer: closer}
}

func (o *ownedOutput) Write(p []byte) (int, error) {
	return o.writer.Write(p)
}

func (o *ownedOutput) Close() error {
	o.once.Do(func() {
		o.closeErr = o.closer.Close()
	})
	return o.closeErr
}

// OpenOutput resolves an output destination into a writer. value accepts
// stdout, stderr, default (base), a file path, or stdout+, stderr+ or
// default+ followed by a path to tee into that file. Files are opened for
// appending. Writers that wrap a file are closed by Formatter.Close.
func OpenOutput(value string, base io.Writer) (io.Writer, error) {
	trimmed := strings.TrimSpace(value)
	if base == nil {
		base = io.Discard
	}
	if trimmed == "" {
		return base, nil
	}
	switch strings.ToLower(trimmed) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "default":
		return base, nil
	}
	prefixes := []struct {
		prefix string
		writer io.Writer
	}{
		{"stdout+", os.Stdout},
		{"stderr+", os.Stderr},
		{"default+", base},
	}
	lowered := strings.ToLower(trimmed)
	for _, p := range prefixes {
		if !strings.HasPrefix(lowered, p.prefix) {
			continue
		}
		path := strings.TrimSpace(trimmed[len(p.prefix):])
		if path == "" {
			return p.writer, nil
		}
		file, err := openOutputFile(path)
		if err != nil {
			return base, err
		}
		return newOwnedOutput(newTeeWriter(p.writer, file), file), nil
	}
	file, err := openOutputFile(trimmed)
	if err != nil {
		return base, err
	}
	return newOwnedOutput(file, file), nil
}

func openOutputFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open perflog output %q: %w", path, err)
	}
	return file, nil
}
