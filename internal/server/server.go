package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
	"github.com/locallook/context-bridge/internal/config"
)

// Server exposes the capture and interaction engines over HTTP. It owns
// the route table and the http.Server lifecycle; the engines themselves
// are injected so tests can swap them out.
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	capturer   schemas.Capturer
	interactor schemas.Interactor
	health     schemas.HealthReporter
	version    string
	startedAt  time.Time

	httpServer *http.Server
}

// New assembles the service layer around the given engines.
func New(cfg *config.Config, logger *zap.Logger, capturer schemas.Capturer, interactor schemas.Interactor, health schemas.HealthReporter, version string) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger.Named("server"),
		capturer:   capturer,
		interactor: interactor,
		health:     health,
		version:    version,
		startedAt:  time.Now(),
	}

	container := restful.NewContainer()
	ws := new(restful.WebService)
	ws.Path("/").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)
	s.registerRoutes(ws)
	container.Add(ws)
	container.Filter(s.accessLogFilter)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      container,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler returns the assembled HTTP handler, used by tests to drive the
// routes without a listening socket.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(sctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// accessLogFilter logs one line per request with method, path, status
// and latency.
func (s *Server) accessLogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	s.logger.Info("Request handled",
		zap.String("method", req.Request.Method),
		zap.String("path", req.Request.URL.Path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)),
	)
}
