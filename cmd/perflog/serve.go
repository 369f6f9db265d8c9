package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"pkt.systems/perflog"
	"pkt.systems/perflog/ingest"
)

// DefaultAddr is where serve listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:8765"

// ServeCmd runs the ingest HTTP server.
type ServeCmd struct {
	Addr         string        `short:"a" help:"Listen address (default ${default_addr})"`
	MaxSessions  int           `name:"max-sessions" help:"Maximum number of tracked pages"`
	SessionTTL   time.Duration `name:"session-ttl" help:"Idle time after which a page is forgotten"`
	MaxBodyBytes int64         `name:"max-body-bytes" help:"Maximum size of one upload"`
	AllowOrigin  []string      `name:"allow-origin" help:"Additional CORS origins to accept ('*' for any)" sep:","`
}

// Run implements the serve command.
func (s *ServeCmd) Run(app *App) error {
	addr := s.resolve(app.Config)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.serve(app, ln)
}

// resolve fills unset flags from the configuration file and returns the
// listen address.
func (s *ServeCmd) resolve(cfg *FileConfig) string {
	if s.MaxSessions == 0 {
		s.MaxSessions = cfg.Serve.MaxSessions
	}
	if s.SessionTTL == 0 {
		s.SessionTTL = cfg.Serve.SessionTTL
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = cfg.Serve.MaxBodyBytes
	}
	if len(s.AllowOrigin) == 0 {
		s.AllowOrigin = cfg.Serve.AllowedOrigins
	}
	switch {
	case s.Addr != "":
		return s.Addr
	case cfg.Serve.Addr != "":
		return cfg.Serve.Addr
	default:
		return DefaultAddr
	}
}

func (s *ServeCmd) serve(app *App, ln net.Listener) error {
	handler := ingest.NewHandler(app.Formatter, app.Options,
		ingest.WithMaxSessions(s.MaxSessions),
		ingest.WithSessionTTL(s.SessionTTL),
		ingest.WithMaxBodyBytes(s.MaxBodyBytes),
		ingest.WithAllowedOrigins(s.AllowOrigin...),
	)
	defer handler.Close()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	app.Formatter.Log(perflog.KindMisc, fmt.Sprintf("Listening on http://%s, add <script src=\"http://%s/perflog.js\"></script> to your page", ln.Addr(), ln.Addr()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-app.Context.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
