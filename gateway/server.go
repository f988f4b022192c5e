package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/telistry/switchboard/observability"
)

const readHeaderTimeout = 10 * time.Second

// NewMux assembles the gateway routes: the Connect procedure, the WebSocket
// stream at /stream, and GET /healthz.
func NewMux(svc Dialog, cfg Config, observer observability.Observer) *http.ServeMux {
	if observer == nil {
		observer = observability.NoopObserver{}
	}

	mux := http.NewServeMux()
	procedure, handler := NewConnectHandler(svc)
	mux.Handle(procedure, handler)
	mux.Handle("/stream", newWSHandler(svc, cfg, observer))
	mux.Handle("/healthz", newHealthHandler(svc))
	return mux
}

// Server runs the gateway over HTTP.
type Server struct {
	cfg  Config
	http *http.Server
}

// NewServer builds a Server listening on cfg.Addr. No server-level read or
// write timeouts: the stream endpoint manages its own deadlines.
func NewServer(svc Dialog, cfg Config, observer observability.Observer) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewMux(svc, cfg, observer),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// ListenAndServe blocks serving requests until Shutdown or a listener
// failure. A graceful shutdown is not an error.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the configured grace period.
// Upgraded stream connections are not tracked by the HTTP server; they end
// with their calls.
func (s *Server) Shutdown(ctx context.Context) error {
	if timeout := s.cfg.ShutdownTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}
