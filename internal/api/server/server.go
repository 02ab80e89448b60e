package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/remiblancher/kmscert/internal/api/router"
	"github.com/remiblancher/kmscert/internal/issue"
)

// Server represents the HTTP server.
type Server struct {
	cfg     *Config
	version string
	issuer  *issue.Issuer
	srv     *http.Server
}

// New creates a new Server.
func New(cfg *Config, version string, issuer *issue.Issuer) *Server {
	return &Server{
		cfg:     cfg,
		version: version,
		issuer:  issuer,
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	handler := router.New(&router.Config{
		Version: s.version,
		Issuer:  s.issuer,
	})

	s.srv = &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.printStartupInfo()

	errChan := make(chan error, 1)
	go func() {
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			errChan <- s.srv.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			errChan <- s.srv.ListenAndServe()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		return s.shutdown()
	}

	return nil
}

// shutdown gracefully shuts down the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}

// printStartupInfo prints server startup information.
func (s *Server) printStartupInfo() {
	fmt.Println()
	fmt.Println("kmscert API Server")
	fmt.Println("==================")
	fmt.Printf("  Version:  %s\n", s.version)
	fmt.Printf("  Address:  http://%s\n", s.cfg.Address())
	if s.cfg.TLSCert != "" {
		fmt.Println("  TLS:      enabled")
	}
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health               - Health check")
	fmt.Println("  GET  /ready                - Readiness check")
	fmt.Println("  POST /api/v1/certificates  - Issue a self-signed certificate")
	fmt.Println()
	fmt.Println("Use Ctrl+C to stop")
	fmt.Println()
}
