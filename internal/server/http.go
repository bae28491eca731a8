package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/render"
)

// HTTPServer serves the websocket feed at /ws, the latest frame at /frame
// and a liveness probe at /healthz.
type HTTPServer struct {
	addr    string
	feed    *Feed
	logger  log.Log
	server  *http.Server
	running int32 // atomic bool

	mu    sync.RWMutex
	last  *render.Frame
	ready chan struct{}
	bound net.Addr
}

func NewHTTPServer(addr string, feed *Feed, logger log.Log) *HTTPServer {
	s := &HTTPServer{
		addr:   addr,
		feed:   feed,
		logger: logger.With(log.String("component", "http")),
		ready:  make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", feed.handleWebSocket)
	mux.HandleFunc("/frame", s.handleFrame)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.server.Handler }

// Publish remembers frame for /frame and forwards it to the feed.
func (s *HTTPServer) Publish(frame render.Frame) {
	s.mu.Lock()
	s.last = &frame
	s.mu.Unlock()
	s.feed.Publish(frame)
}

// Addr blocks until the listener is bound and returns its address.
func (s *HTTPServer) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		return s.bound, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Serve(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.bound = ln.Addr()
	close(s.ready)
	s.logger.Info("serving", log.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.feed.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("stopped")
	return nil
}

func (s *HTTPServer) handleFrame(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	frame := s.last
	s.mu.RUnlock()
	if frame == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(frame)
}
