package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"piview/internal/supervisor/api/handler"
	"piview/internal/supervisor/api/routes"
	"piview/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 30 * time.Second
	shutdownTimeout   = 5 * time.Second
	listenRetry       = 10 * time.Second
)

// NewRouter wires the health routes behind recovery, request metrics and the
// shared rate limit.
func NewRouter(h handler.HealthHandler, observer middleware.RequestObserver, rps int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if observer != nil {
		r.Use(middleware.Observe(observer))
	}
	routes.AddHealthRoutes(r, h, middleware.NewRateLimitMiddleware(rps))
	return r
}

// Server serves the health endpoint with a bounded number of concurrent
// connections, so a client that never drains its socket holds one slot and
// nothing else.
type Server struct {
	addr     string
	maxConns int
	srv      *http.Server
	logger   *zap.Logger
	listen   func(network, addr string) (net.Listener, error)
	bound    chan net.Addr
}

func NewServer(addr string, h http.Handler, maxConns int, logger *zap.Logger) *Server {
	return &Server{
		addr:     addr,
		maxConns: maxConns,
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ErrorLog:          zap.NewStdLog(logger),
		},
		logger: logger,
		listen: net.Listen,
		bound:  make(chan net.Addr, 1),
	}
}

// Addr returns the bound address once the listener is up.
func (s *Server) Addr() <-chan net.Addr {
	return s.bound
}

// Run serves until ctx is cancelled. A port that cannot be bound is retried
// rather than treated as fatal: the endpoint is for remote monitoring and
// must not take the supervisor down.
func (s *Server) Run(ctx context.Context) error {
	l, err := s.bind(ctx)
	if err != nil {
		return nil
	}
	if s.maxConns > 0 {
		l = netutil.LimitListener(l, s.maxConns)
	}
	s.bound <- l.Addr()
	s.logger.Info(fmt.Sprintf("starting health endpoint on %s", l.Addr()), zap.Int("max_connections", s.maxConns))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(l)
	}()

	select {
	case err = <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("Server.Run: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down health endpoint...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("health endpoint forced to shutdown", zap.Error(err))
		_ = s.srv.Close()
	}
	<-errCh
	return nil
}

func (s *Server) bind(ctx context.Context) (net.Listener, error) {
	for {
		l, err := s.listen("tcp", s.addr)
		if err == nil {
			return l, nil
		}
		s.logger.Error("failed to bind health endpoint", zap.String("addr", s.addr), zap.Error(err))
		t := time.NewTimer(listenRetry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
