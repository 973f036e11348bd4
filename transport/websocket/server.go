package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
)

const (
	// Default maximum message size allowed from peer. Larger frames are a
	// transport error and close the connection with 1009.
	maxMessageSize = 1 << 20

	// Pause before retrying after a failed accept.
	acceptRetryDelay = 50 * time.Millisecond

	// Time allowed for a client to send the upgrade request headers.
	handshakeTimeout = 10 * time.Second

	// Time allowed for in-flight handshakes to finish on shutdown.
	shutdownTimeout = 5 * time.Second
)

// Server upgrades HTTP requests to WebSocket connections and runs one
// Handler per connection. It keeps no per-session state.
type Server struct {
	upgrader  websocket.Upgrader
	newSource func() engine.ChoiceSource
	stats     *Stats
	log       *zap.Logger
	readLimit int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the server and its handlers.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithChoiceSource sets the factory that creates the opponent source for
// each new connection.
func WithChoiceSource(newSource func() engine.ChoiceSource) Option {
	return func(s *Server) {
		if newSource != nil {
			s.newSource = newSource
		}
	}
}

// WithAllowedOrigins restricts browser clients to the given origins, for
// example "http://localhost:3000". An empty list allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = checkOrigin(origins)
	}
}

// WithStats sets the counters updated by handlers.
func WithStats(stats *Stats) Option {
	return func(s *Server) {
		if stats != nil {
			s.stats = stats
		}
	}
}

// WithReadLimit sets the largest frame accepted from a client.
func WithReadLimit(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.readLimit = limit
		}
	}
}

// NewServer creates a WebSocket game server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(nil),
		},
		newSource: func() engine.ChoiceSource { return engine.NewRandomSource() },
		stats:     NewStats(),
		log:       zap.NewNop(),
		readLimit: maxMessageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the server's counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// ServeHTTP performs the upgrade handshake and then serves the game on the
// connection until it closes. A failed handshake only affects this request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket handshake failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	conn.SetReadLimit(s.readLimit)

	handler := NewHandler(conn, s.newSource(), s.stats, s.log.With(zap.String("remote_addr", r.RemoteAddr)))
	handler.log.Info("connection accepted")
	handler.Serve()
}

// Listen binds addr. A failure here is a startup error and is returned
// before any connection is accepted.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until ctx is cancelled or the listener is
// closed. Each connection is served on its own goroutine. Failed accepts are
// logged and retried.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: handshakeTimeout,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(&retryListener{Listener: ln, log: logger})
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// retryListener keeps accepting after a failed attempt. Only a closed
// listener ends the accept loop. Listeners that do not report net.ErrClosed
// after Close, such as tunnels, are tracked through closed.
type retryListener struct {
	net.Listener
	log    *zap.Logger
	closed atomic.Bool
}

func (l *retryListener) Close() error {
	l.closed.Store(true)
	return l.Listener.Close()
}

func (l *retryListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, net.ErrClosed) || l.closed.Load() {
			return nil, err
		}
		l.log.Warn("accept failed", zap.Error(err))
		time.Sleep(acceptRetryDelay)
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}

	origins := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origins[normalizeOrigin(origin)] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients do not send an Origin header.
			return true
		}
		return origins[normalizeOrigin(origin)]
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}
