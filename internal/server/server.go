// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the analysis pipeline and its history over HTTP.
//
//	POST /v1/analyses       run an analysis {"smiles": "..."}
//	GET  /v1/analyses       list stored analyses (?query=&limit=)
//	GET  /v1/analyses/:id   fetch one analysis
//	GET  /healthz           liveness
//	GET  /metrics           prometheus metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/nnaasynth/internal/store"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

// Analyzer runs the pipeline for one amino acid.
type Analyzer interface {
	Run(ctx context.Context, smiles string) ([]types.SelectedResult, error)
}

// Repository stores analyses.
type Repository interface {
	Save(ctx context.Context, a types.Analysis) error
	Get(ctx context.Context, id string) (types.Analysis, error)
	List(ctx context.Context, opts store.ListOptions) ([]types.Analysis, error)
}

// Server serves the HTTP API.
type Server struct {
	cfg      types.ServerConfig
	analyzer Analyzer
	repo     Repository
	log      *zap.Logger
	router   *gin.Engine

	newID func() string
	now   func() time.Time
}

// New builds a Server and its routes.
func New(cfg types.ServerConfig, analyzer Analyzer, repo Repository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		repo:     repo,
		log:      log,
		newID:    uuid.NewString,
		now:      time.Now,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/analyses", s.handleAnalyze)
	v1.GET("/analyses", s.handleList)
	v1.GET("/analyses/:id", s.handleGet)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
