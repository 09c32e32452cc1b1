package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/boozedog/devserve/internal/config"
	"github.com/boozedog/devserve/internal/web/handler"
	"github.com/boozedog/devserve/internal/web/middleware"
	"github.com/boozedog/devserve/internal/web/reload"
)

// ShutdownTimeout bounds how long in-flight responses may take to finish
// once shutdown starts.
const ShutdownTimeout = 5 * time.Second

// Server is the static dev server.
type Server struct {
	cfg    *config.Config
	out    io.Writer
	root   *os.Root
	ln     net.Listener
	broker *reload.Broker
	srv    *http.Server
}

// NewServer creates a new dev server. Banner, access log and shutdown lines
// are written to out.
func NewServer(cfg *config.Config, out io.Writer) *Server {
	return &Server{
		cfg: cfg,
		out: out,
	}
}

// Listen opens the root directory and binds the listening socket.
// It returns a *DirectoryError or a *BindError on failure.
func (s *Server) Listen() error {
	root, err := os.OpenRoot(s.cfg.Root)
	if err != nil {
		return &DirectoryError{Path: s.cfg.Root, Err: err}
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port()))
	if err != nil {
		_ = root.Close()
		return &BindError{Port: s.cfg.Port(), Err: err}
	}

	s.root = root
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe binds the port and blocks serving until the context is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve serves requests on the socket opened by Listen until the context is
// cancelled, then shuts down gracefully. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("serve: Listen has not been called")
	}
	defer func() { _ = s.root.Close() }()

	// Live change stream. The server still works without it.
	s.broker = reload.NewBroker()
	watcher, err := reload.NewWatcher(s.cfg.Root, s.broker)
	if err != nil {
		slog.Warn("file watcher disabled", "err", err)
	} else {
		defer func() { _ = watcher.Close() }()
	}

	h := handler.New(s.root, s.broker)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+handler.EventsPath, h.Events)
	mux.HandleFunc("GET /", h.Static)

	s.srv = &http.Server{
		Handler: middleware.Chain(mux,
			middleware.AccessLog(middleware.AccessLogConfig{
				Writer:       s.out,
				ExemptPrefix: handler.EventsPath,
			}),
			middleware.CORS(),
		),
		IdleTimeout: 120 * time.Second,
	}
	// Change streams never finish on their own, so Shutdown must end them.
	s.srv.RegisterOnShutdown(s.broker.Close)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Graceful shutdown on context cancellation.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		slog.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", "err", err)
		}
	}()

	port := s.cfg.Port()
	if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	printBanner(s.out, port, s.cfg.Root)
	slog.Info("listening", "addr", fmt.Sprintf("http://localhost:%d", port))

	if err := s.srv.Serve(s.ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	<-stopped

	printStopped(s.out)
	return nil
}
