// Package mux serves gRPC and the REST API from a single listener.
package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/soheilhy/cmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/grpc/server"
	"letraz-jobboard/internal/logging"
)

// Multiplexer handles protocol detection and routing between gRPC and HTTP
type Multiplexer struct {
	grpcServer *server.Server
	httpServer *http.Server
	logger     logging.Logger

	mux      cmux.CMux
	listener net.Listener
	wg       sync.WaitGroup
}

// NewMultiplexer wraps httpHandler with otelhttp and pairs it with grpcServer
func NewMultiplexer(cfg *config.Config, grpcServer *server.Server, httpHandler http.Handler, logger logging.Logger) *Multiplexer {
	return &Multiplexer{
		grpcServer: grpcServer,
		logger:     logger.WithField("component", "mux"),
		httpServer: &http.Server{
			Handler:           otelhttp.NewHandler(httpHandler, "http.server"),
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and serves both protocols in the background
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return m.Serve(listener)
}

// Serve splits listener by protocol and returns once the servers are running
func (m *Multiplexer) Serve(listener net.Listener) error {
	m.listener = listener
	m.mux = cmux.New(listener)

	grpcListener := m.mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpListener := m.mux.Match(cmux.HTTP1Fast())

	address := listener.Addr().String()

	m.wg.Add(3)
	go func() {
		defer m.wg.Done()
		if err := m.grpcServer.Serve(grpcListener); err != nil && !isClosed(err) {
			m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{"address": address})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !isClosed(err) {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !isClosed(err) {
			m.logger.Error("Multiplexer failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.logger.Info("Multiplexer started", map[string]interface{}{"address": address})
	return nil
}

// Stop drains HTTP and gRPC traffic, then closes the shared listener
func (m *Multiplexer) Stop(ctx context.Context) error {
	m.logger.Info("Stopping multiplexer...")

	var errs []error
	if err := m.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	m.grpcServer.Stop(ctx)

	if m.mux != nil {
		m.mux.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Multiplexer stopped")
	case <-ctx.Done():
		m.logger.Warn("Multiplexer shutdown timed out")
		errs = append(errs, ctx.Err())
	}

	return errors.Join(errs...)
}

// Addr is the address the multiplexer is listening on
func (m *Multiplexer) Addr() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed) || errors.Is(err, cmux.ErrServerClosed)
}
