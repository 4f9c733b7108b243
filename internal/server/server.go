package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pfrederiksen/rota-merge/internal/logger"
	"github.com/pfrederiksen/rota-merge/internal/rota"
)

const (
	// shutdownTimeout bounds graceful shutdown after the context is cancelled.
	shutdownTimeout = 5 * time.Second

	// staticPage is the frontend file name inside the assets filesystem.
	staticPage = "rota.html"
)

// Aggregator produces the merged rota for one request.
type Aggregator interface {
	Aggregate(ctx context.Context) ([]rota.Record, error)
}

// aggregatorRef lets differently-typed aggregators share one atomic.Pointer.
type aggregatorRef struct {
	Aggregator
}

// Server handles HTTP requests for the rota API and frontend.
type Server struct {
	agg        atomic.Pointer[aggregatorRef]
	port       int
	assets     fs.FS
	metrics    *logger.Metrics
	httpServer *http.Server
	done       chan struct{}
}

// NewServer creates a new HTTP [Server].
//
// assets must contain rota.html at its root; it may be nil, in which case
// /rota.html answers 500. The server is not started until [Server.Start] is called.
func NewServer(agg Aggregator, port int, assets fs.FS) *Server {
	s := &Server{
		port:    port,
		assets:  assets,
		metrics: logger.DefaultMetrics(),
		done:    make(chan struct{}),
	}
	s.SetAggregator(agg)
	return s
}

// SetAggregator swaps the aggregator used by subsequent requests.
// Requests already running keep the aggregator they started with.
func (s *Server) SetAggregator(agg Aggregator) {
	s.agg.Store(&aggregatorRef{agg})
}

func (s *Server) aggregator() Aggregator {
	return s.agg.Load().Aggregator
}

// Handler returns the fully wrapped route handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/api", s.handleHome)
	mux.HandleFunc("/api/merged-rota", s.handleMergedRota)
	mux.HandleFunc("/merged-rota", s.handleMergedRota)
	mux.HandleFunc("/"+staticPage, s.handleStatic)
	mux.HandleFunc("/metrics", s.handleMetrics)

	return withCORS(withRecover(mux))
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. When ctx is
// cancelled the server shuts down gracefully within shutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", nil, err)
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", nil, err)
		}
	}()

	logger.Info("HTTP server listening", logger.Fields{"addr": ln.Addr().String()})
	return nil
}

// Done is closed once the server has shut down after its context was cancelled.
func (s *Server) Done() <-chan struct{} {
	return s.done
}
