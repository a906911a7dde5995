// Package webapi serves the JSON analysis API: single and batch analysis,
// history access, cluster discovery, and report export.
package webapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhoran/kubesift/internal/config"
	"github.com/mhoran/kubesift/internal/history"
	"github.com/mhoran/kubesift/internal/notify"
	"github.com/mhoran/kubesift/internal/pipeline"
)

// ClusterSource is the discovery surface the API needs beyond log
// fetching.
type ClusterSource interface {
	TestConnection(ctx context.Context, kubeconfig string) (int, error)
	ListNamespaces(ctx context.Context, kubeconfig string) ([]string, error)
	ListComponents(ctx context.Context, kind, namespace, kubeconfig string) ([]string, error)
}

// Server wires the pipeline and its collaborators to HTTP handlers.
type Server struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	coord    *pipeline.Coordinator
	cluster  ClusterSource
	store    history.Port
	notifier *notify.Notifier
}

// Deps holds the Server's collaborators.
type Deps struct {
	Config      *config.Config
	Runner      *pipeline.Runner
	Coordinator *pipeline.Coordinator
	Cluster     ClusterSource
	Store       history.Port
	Notifier    *notify.Notifier // nil disables notifications
}

// New creates a Server.
func New(deps Deps) *Server {
	return &Server{
		cfg:      deps.Config,
		runner:   deps.Runner,
		coord:    deps.Coordinator,
		cluster:  deps.Cluster,
		store:    deps.Store,
		notifier: deps.Notifier,
	}
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Port int
	Out  io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8787
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "kubesift API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webapi: %w", err)
	}
	return nil
}

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/analyze-multi", s.handleAnalyzeMulti)
	api.GET("/history", s.handleHistoryList)
	api.GET("/history/:id", s.handleHistoryGet)
	api.DELETE("/history/:id", s.handleHistoryDelete)
	api.GET("/k8s/test-connection", s.handleTestConnection)
	api.GET("/k8s/namespaces", s.handleNamespaces)
	api.GET("/k8s/components", s.handleComponents)
	api.GET("/report/capability", s.handleReportCapability)
	api.POST("/export/report", s.handleExportReport)
}
