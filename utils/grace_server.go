package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DEFAULT_READ_TIMEOUT     = 60 * time.Second
	DEFAULT_WRITE_TIMEOUT    = DEFAULT_READ_TIMEOUT
	DEFAULT_SHUTDOWN_TIMEOUT = 30 * time.Second
)

// Server wraps http.Server with signal handling: SIGINT/SIGTERM drain and stop,
// SIGHUP calls OnReload.
type Server struct {
	*http.Server

	// OnReload is invoked on SIGHUP; errors are logged and serving continues.
	OnReload func() error

	certFile   string
	keyFile    string
	signalChan chan os.Signal
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		signalChan: make(chan os.Signal, 1),
	}
}

// WithTLS makes Run serve HTTPS with the given key pair.
func (srv *Server) WithTLS(certFile, keyFile string) *Server {
	srv.certFile = certFile
	srv.keyFile = keyFile
	return srv
}

// Run serves until ctx is cancelled or a stop signal arrives, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.Listen error: %w", err)
	}

	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(srv.signalChan)

	serveErr := make(chan error, 1)
	go func() {
		if srv.certFile != "" {
			serveErr <- srv.Server.ServeTLS(ln, srv.certFile, srv.keyFile)
			return
		}
		serveErr <- srv.Server.Serve(ln)
	}()

	for {
		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			return srv.shutdownHTTPServer()
		case sig := <-srv.signalChan:
			switch sig {
			case syscall.SIGHUP:
				Sugar.Info("received SIGHUP, reloading configuration")
				if srv.OnReload == nil {
					continue
				}
				if err := srv.OnReload(); err != nil {
					Sugar.Errorf("reload failed: %v, continue serving", err)
				}
			default:
				Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
				return srv.shutdownHTTPServer()
			}
		}
	}
}

func (srv *Server) shutdownHTTPServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), DEFAULT_SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
		return err
	}
	Sugar.Info("HTTP server shutdown success")
	return nil
}

// GraceServer starts an HTTP server with graceful capabilities.
func GraceServer(ctx context.Context, addr string, handler http.Handler, onReload func() error) error {
	srv := NewServer(addr, handler, DEFAULT_READ_TIMEOUT, DEFAULT_WRITE_TIMEOUT)
	srv.OnReload = onReload
	return srv.Run(ctx)
}

// GraceServerTLS starts an HTTPS server with graceful capabilities.
func GraceServerTLS(ctx context.Context, addr, certFile, keyFile string, handler http.Handler, onReload func() error) error {
	srv := NewServer(addr, handler, DEFAULT_READ_TIMEOUT, DEFAULT_WRITE_TIMEOUT).WithTLS(certFile, keyFile)
	srv.OnReload = onReload
	return srv.Run(ctx)
}
