package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/lixenwraith/dockbridge/config"
	"github.com/lixenwraith/dockbridge/scenario"
	"github.com/lixenwraith/dockbridge/system"
)

// session is a loaded scenario plus the sandbox's optional tracing and HTTP endpoints
// mu serializes world access between the command loop and HTTP handlers
type session struct {
	mu     sync.Mutex
	runner *scenario.Runner
	log    *slog.Logger
	tp     *sdktrace.TracerProvider
	server *http.Server
}

func openSession(path string, logOut io.Writer) (*session, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		sc.Config = cfg
	}

	s := &session{log: sc.Config.NewLogger(logOut)}

	var opts []system.Option
	if traceSpans {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(logOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create exporter: %w", err)
		}
		s.tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		opts = append(opts, system.WithTracerProvider(s.tp))
	}

	s.runner, err = scenario.NewRunner(sc, s.log, opts...)
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// serve starts the HTTP endpoints on addr in the background
func (s *session) serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listener: %w", err)
	}
	s.server = &http.Server{Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", "error", err)
		}
	}()
	s.log.Info("serving metrics and debug", "addr", ln.Addr().String())
	return nil
}

// next plays one step under the session lock
func (s *session) next() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Next()
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if s.server != nil {
		_ = s.server.Shutdown(ctx)
	}
	if s.tp != nil {
		_ = s.tp.Shutdown(ctx)
	}
}
