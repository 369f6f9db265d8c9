package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/perflog"
)

const recording = `{"name":"first-paint","entryType":"paint","startTime":80}
{"name":"first-contentful-paint","entryType":"paint","startTime":95}
{"name":"","entryType":"layout-shift","startTime":300,"value":0.123456789}
garbage
`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// isolate runs the test from an empty directory so no stray .env file is
// picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunReplay(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "rec.ndjson"), recording)

	code, stdout, stderr := runCLI(t, "--no-color", "replay", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "misc Starting performance logger\n")
	assert.Contains(t, stdout, "   80 fp\n")
	assert.Contains(t, stdout, "   95 fcp\n")
	assert.Contains(t, stdout, "  300 cls 0.12346\n")
	assert.Contains(t, stdout, "misc Skipped 1 undecodable entries\n")
	assert.NotContains(t, stdout, "\x1b[")
}

func TestRunReplayJSON(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "rec.ndjson"), recording)

	code, stdout, stderr := runCLI(t, "--json", "replay", path)
	require.Equal(t, 0, code, stderr)
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		assert.True(t, json.Valid([]byte(line)), "line is not JSON: %s", line)
	}
	assert.Contains(t, stdout, `{"ts":80,"kind":"fp","color":"mediumseagreen","msg":""}`)
}

func TestRunReplayTrackerFlags(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "rec.ndjson"), recording)

	code, stdout, stderr := runCLI(t, "--no-color", "--disable", "fp,cls", "--debug", "replay", path)
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, stdout, " fp\n")
	assert.NotContains(t, stdout, " cls ")
	assert.Contains(t, stdout, "   95 fcp\n"+`{"name":"first-contentful-paint","entryType":"paint","startTime":95,"duration":0}`+"\n")
}

func TestRunReplayToFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "rec.ndjson"), recording)
	out := filepath.Join(dir, "out.log")

	code, stdout, stderr := runCLI(t, "--no-color", "--output", out, "replay", path)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "   80 fp\n")
}

func TestRunRejectsBadFlags(t *testing.T) {
	isolate(t)
	code, _, stderr := runCLI(t, "--enable", "ttfb", "palettes")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown tracker "ttfb"`)

	code, _, stderr = runCLI(t, "--palette", "neon", "palettes")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown palette "neon"`)

	code, _, _ = runCLI(t, "--fid-policy", "sometimes", "palettes")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "no-such-command")
	assert.Equal(t, 2, code)
}

func TestRunFollowNeedsOneFile(t *testing.T) {
	dir := isolate(t)
	a := writeFile(t, filepath.Join(dir, "a.ndjson"), recording)
	b := writeFile(t, filepath.Join(dir, "b.ndjson"), recording)
	code, _, stderr := runCLI(t, "replay", "--follow", a, b)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--follow takes exactly one file")
}

func TestRunMissingConfig(t *testing.T) {
	dir := isolate(t)
	code, _, stderr := runCLI(t, "--config", filepath.Join(dir, "nope.yaml"), "palettes")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "configuration file not found")
}

func TestRunWithConfig(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "rec.ndjson"), recording)
	cfg := writeFile(t, filepath.Join(dir, "perflog.yaml"), `
metrics:
  fcp: false
output:
  mode: json
  colors:
    fp: "#010203"
`)
	code, stdout, stderr := runCLI(t, "--config", cfg, "replay", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `{"ts":80,"kind":"fp","color":"#010203","msg":""}`)
	assert.NotContains(t, stdout, `"kind":"fcp"`)
}

func TestRunEnvFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "rec.ndjson"), recording)
	env := writeFile(t, filepath.Join(dir, "perflog.env"), "PERFLOG_MODE=json\n")
	t.Cleanup(func() { _ = os.Unsetenv("PERFLOG_MODE") })

	code, stdout, stderr := runCLI(t, "--env-file", env, "replay", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"kind":"fp"`)
}

func TestRunPalettes(t *testing.T) {
	isolate(t)
	code, stdout, stderr := runCLI(t, "palettes")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "dcl=#185ebd")
	for _, name := range []string{"default", "gruvbox", "mono", "nord"} {
		assert.Contains(t, stdout, name)
	}

	code, stdout, stderr = runCLI(t, "--no-color", "palettes", "--sample")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "  100 fcp sample\n")
}

func TestRunVersion(t *testing.T) {
	isolate(t)
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, version)
}

func TestServe(t *testing.T) {
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Stdout:    out,
		Stderr:    out,
		Config:    &FileConfig{},
		Options:   perflog.Options{},
		Formatter: perflog.NewFormatter(out, perflog.FormatterOptions{NoColor: true}),
		Context:   ctx,
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cmd := &ServeCmd{}
	done := make(chan error, 1)
	go func() { done <- cmd.serve(app, ln) }()

	body := `{"session":"123e4567-e89b-42d3-a456-426614174000","entries":[{"name":"self","entryType":"longtask","startTime":500,"duration":75}]}`
	resp, err := http.Post("http://"+ln.Addr().String()+"/entries", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Contains(t, out.String(), "  500 tbt 75ms\n")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Contains(t, out.String(), "misc Listening on http://")
}

func TestServeResolve(t *testing.T) {
	cfg := &FileConfig{Serve: ServeConfig{Addr: "0.0.0.0:9000", MaxSessions: 3, SessionTTL: time.Minute}}

	cmd := &ServeCmd{}
	assert.Equal(t, "0.0.0.0:9000", cmd.resolve(cfg))
	assert.Equal(t, 3, cmd.MaxSessions)
	assert.Equal(t, time.Minute, cmd.SessionTTL)

	cmd = &ServeCmd{Addr: "127.0.0.1:1", MaxSessions: 5}
	assert.Equal(t, "127.0.0.1:1", cmd.resolve(cfg))
	assert.Equal(t, 5, cmd.MaxSessions)

	assert.Equal(t, DefaultAddr, (&ServeCmd{}).resolve(&FileConfig{}))
}
