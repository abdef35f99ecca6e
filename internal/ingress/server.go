// Package ingress hosts the node's HTTP surface: four REST endpoints
// that let operators and peers submit messages and read the chain,
// neighbours, and pending mempool. It never touches chain, peer, or
// mempool state directly — every request is served through the
// coordinator's public contract.
package ingress

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	klog "github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/node"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Server is the ingress HTTP server.
type Server struct {
	addr        string
	coordinator *node.Coordinator
	echo        *echo.Echo
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
}

// New creates a Server bound to addr (host:port, or ":0" for an
// ephemeral port) that serves coordinator's state.
func New(addr string, coordinator *node.Coordinator) *Server {
	s := &Server{
		addr:        addr,
		coordinator: coordinator,
		logger:      klog.WithComponent("ingress"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.PUT("/add", s.handleAdd)
	e.GET("/chain", s.handleChain)
	e.GET("/neighbours", s.handleNeighbours)
	e.GET("/data", s.handleData)
	e.RouteNotFound("/*", s.handleNotFound)
	s.echo = e

	s.server = &http.Server{
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins listening and serving in a background goroutine. It
// returns immediately once the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("ingress listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("ingress server error")
		}
	}()
	return nil
}

// Addr returns the listener's bound address (useful when addr was ":0").
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server, letting in-flight requests
// finish.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
