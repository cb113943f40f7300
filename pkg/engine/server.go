package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/oasmock/pkg/logging"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// ServerConfig holds the listener settings.
type ServerConfig struct {
	// Addr is the mock server address, e.g. ":8080". Port 0 picks a free port.
	Addr string
	// AdminAddr is the control API address. Empty disables the control API.
	AdminAddr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server runs the mock handler and the control API.
type Server struct {
	cfg   ServerConfig
	mock  http.Handler
	admin http.Handler
	log   *slog.Logger

	mu          sync.Mutex
	running     bool
	httpServer  *http.Server
	adminServer *http.Server
	addr        net.Addr
	adminAddr   net.Addr
	errCh       chan error
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = logging.Component(log, "engine")
		}
	}
}

// WithAdmin serves h on the control API address.
func WithAdmin(h http.Handler) ServerOption {
	return func(s *Server) {
		s.admin = h
	}
}

// NewServer creates a server for mock.
func NewServer(cfg ServerConfig, mock http.Handler, opts ...ServerOption) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	s := &Server{
		cfg:  cfg,
		mock: mock,
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listeners and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	var adminLn net.Listener
	if s.admin != nil && s.cfg.AdminAddr != "" {
		adminLn, err = net.Listen("tcp", s.cfg.AdminAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.AdminAddr, err)
		}
	}

	s.errCh = make(chan error, 2)
	s.httpServer = s.newHTTPServer(s.mock)
	s.addr = ln.Addr()
	go s.serve(s.httpServer, ln, "mock server")

	if adminLn != nil {
		s.adminServer = s.newHTTPServer(s.admin)
		s.adminAddr = adminLn.Addr()
		go s.serve(s.adminServer, adminLn, "control API")
	}

	s.running = true
	s.log.Info("engine started", "addr", s.addr.String(), "admin_addr", addrString(s.adminAddr))
	return nil
}

func (s *Server) newHTTPServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}

func (s *Server) serve(srv *http.Server, ln net.Listener, name string) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error(name+" error", "error", err)
		s.errCh <- fmt.Errorf("%s: %w", name, err)
	}
}

// Run starts the server and blocks until ctx is done or a listener fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-s.errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, s.Stop(shutdownCtx))
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	var errs []error
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("control API shutdown: %w", err))
		}
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	s.running = false
	s.log.Info("engine stopped")
	return errors.Join(errs...)
}

// Addr returns the bound mock server address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// AdminAddr returns the bound control API address, or nil when disabled.
func (s *Server) AdminAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminAddr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
